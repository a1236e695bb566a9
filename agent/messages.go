package agent

import (
	"fmt"
	"math"
	"strings"
	"time"

	"logchat/model"
)

// WelcomeMessage opens every conversation. It is never sent to a model.
const WelcomeMessage = "Hi! I can search the loaded logs, look for repeating errors and activity spikes, " +
	"trace what led up to an error, and adjust your log filters. What would you like to know?"

// User-visible texts.
const (
	msgBackpressure     = "All model tiers are at their rate limit right now. Please wait a minute before asking again."
	msgGenericFailure   = "Sorry, something went wrong while talking to the model. Please try again."
	msgNeedCredential   = "An API key is needed to use the hosted model. Enter one and your question will be sent automatically."
	msgNeedConsent      = "This backend runs a model on your machine and needs to download it first. Allow the download?"
	msgConsentDeclined  = "The model was not downloaded, so your question was not sent. Choose another backend to continue."
	msgRuntimeNotReady  = "The local model is not available: %v"
	msgPrepareFailed    = "Failed to prepare the local model: %v"
	msgConsentSaveError = "Failed to save your choice: %v"
	msgNoBackend        = "No model backend is configured for %q."
)

func degradedNotice(requested, admitted string) string {
	return fmt.Sprintf("The %s tier is at its rate limit, so this request uses the %s tier.", requested, admitted)
}

func rateLimitedNotice(retryAfter time.Duration) string {
	if retryAfter <= 0 {
		return "The model is rate limited. Please wait a moment and try again."
	}
	secs := int(math.Ceil(retryAfter.Seconds()))
	return fmt.Sprintf("The model is rate limited. Please wait about %ds and try again.", secs)
}

// maxPromptDaemons caps the daemon list embedded in the system prompt.
const maxPromptDaemons = 40

// buildSystemPrompt describes the corpus and saved findings to the model.
func buildSystemPrompt(entries []model.LogEntry, daemons []string, findings []string, state model.ConversationState) string {
	var b strings.Builder

	b.WriteString("You are a log analysis assistant. Answer questions about the user's system logs. ")
	b.WriteString("Use the provided tools to look at the logs instead of guessing, and cite log ids when you refer to specific entries.\n\n")

	if len(entries) == 0 {
		b.WriteString("No logs are loaded.\n")
	} else {
		first, last := entries[0].Timestamp, entries[len(entries)-1].Timestamp
		fmt.Fprintf(&b, "The corpus has %d log entries from %s to %s (UTC).\n",
			len(entries), first.UTC().Format(model.TimestampLayout), last.UTC().Format(model.TimestampLayout))
	}

	if len(daemons) > 0 {
		shown := daemons
		if len(shown) > maxPromptDaemons {
			shown = shown[:maxPromptDaemons]
		}
		fmt.Fprintf(&b, "Daemons: %s", strings.Join(shown, ", "))
		if len(daemons) > len(shown) {
			fmt.Fprintf(&b, " and %d more", len(daemons)-len(shown))
		}
		b.WriteString(".\n")
	}

	if len(findings) > 0 {
		b.WriteString("\nThe user saved these findings earlier:\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	if state == model.StateAnalyzing {
		b.WriteString("\nYou found matching logs. Focus on them: trace their origin, suggest solutions, or point the user to specific entries.\n")
	}

	return b.String()
}
