package provider

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// Backend precondition errors. The conversation turns each into a prompt
// for the user instead of a failure.
var (
	ErrMissingCredential = errors.New("no API key configured for the hosted model")
	ErrConsentRequired   = errors.New("consent required before downloading the model")
	ErrRuntimeNotReady   = errors.New("model runtime is not ready")
)

// RateLimitError is returned when a vendor rejects a request for exceeding
// its quota. RetryAfter is zero when the vendor gave no hint.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limit exceeded, retry after %v", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limit exceeded", e.Provider)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimit reports whether err is or wraps a *RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

var retryHints = []*regexp.Regexp{
	regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)\s*s`),
	regexp.MustCompile(`(?i)retryDelay"?\s*:\s*"(\d+(?:\.\d+)?)s"`),
	regexp.MustCompile(`(?i)retry-after:\s*(\d+(?:\.\d+)?)`),
}

var rateLimitPhrases = []string{
	"429",
	"rate limit",
	"rate_limit",
	"resource_exhausted",
	"resource exhausted",
	"quota",
	"too many requests",
}

// ClassifyError converts vendor quota errors into *RateLimitError. Other
// errors are returned unchanged.
func ClassifyError(providerName string, err error) error {
	if err == nil || IsRateLimit(err) {
		return err
	}

	limited := false
	var retry time.Duration

	var gv genai.APIError
	var gp *genai.APIError
	switch {
	case errors.As(err, &gv):
		limited = gv.Code == http.StatusTooManyRequests || gv.Status == "RESOURCE_EXHAUSTED"
		retry = retryFromDetails(gv.Details)
	case errors.As(err, &gp) && gp != nil:
		limited = gp.Code == http.StatusTooManyRequests || gp.Status == "RESOURCE_EXHAUSTED"
		retry = retryFromDetails(gp.Details)
	}

	var oe *openai.Error
	if errors.As(err, &oe) && oe.StatusCode == http.StatusTooManyRequests {
		limited = true
		retry = retryFromResponse(oe.Response)
	}

	var ae *anthropic.Error
	if errors.As(err, &ae) && ae.StatusCode == http.StatusTooManyRequests {
		limited = true
		retry = retryFromResponse(ae.Response)
	}

	var se api.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
		limited = true
	}

	msg := err.Error()
	if !limited {
		lower := strings.ToLower(msg)
		for _, phrase := range rateLimitPhrases {
			if strings.Contains(lower, phrase) {
				limited = true
				break
			}
		}
	}
	if !limited {
		return err
	}

	if retry == 0 {
		retry = ParseRetryHint(msg)
	}
	return &RateLimitError{Provider: providerName, RetryAfter: retry, Err: err}
}

// ParseRetryHint extracts a retry delay from an error message, or returns 0.
func ParseRetryHint(msg string) time.Duration {
	for _, re := range retryHints {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		secs, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return time.Duration(secs * float64(time.Second))
	}
	return 0
}

// retryFromDetails reads google.rpc.RetryInfo from a Gemini error.
func retryFromDetails(details []map[string]any) time.Duration {
	for _, d := range details {
		if delay, ok := d["retryDelay"].(string); ok {
			if parsed, err := time.ParseDuration(delay); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func retryFromResponse(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if secs, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return 0
}
