package tools

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"logchat/model"
)

const (
	patternRepeatingError = "repeating_error"
	patternFrequencySpike = "frequency_spike"

	topPatterns    = 5
	bucketSize     = 60 * time.Second
	spikeDeviation = 2.0
)

var digitRun = regexp.MustCompile(`\d+`)

// NormalizeMessage replaces every maximal run of digits with "N" so that
// messages differing only in numbers group together.
func NormalizeMessage(msg string) string {
	return digitRun.ReplaceAllString(msg, "N")
}

// Pattern is a group of error messages sharing a normalized text.
type Pattern struct {
	Text      string
	Count     int
	ExampleID string
}

// Spike is a one-minute bucket with unusually many entries.
type Spike struct {
	Start time.Time
	Count int
}

// SpikeReport is the outcome of FrequencySpikes.
type SpikeReport struct {
	Buckets   int
	Mean      float64
	StdDev    float64
	Threshold float64
	Spikes    []Spike
}

func (e *Engine) findLogPatterns(args map[string]any) model.ToolResult {
	entries := e.snapshot()
	if minutes := numberArg(args, "time_window_minutes", 0); minutes > 0 {
		entries = TrailingWindow(entries, time.Duration(minutes*float64(time.Minute)))
	}

	switch kind := strings.ToLower(stringArg(args, "pattern_type", "")); kind {
	case patternRepeatingError:
		patterns := RepeatingErrors(entries, topPatterns)
		out := make([]map[string]any, 0, len(patterns))
		for _, p := range patterns {
			out = append(out, map[string]any{
				"pattern":    p.Text,
				"count":      p.Count,
				"example_id": p.ExampleID,
			})
		}
		summary := fmt.Sprintf("Found %d repeating error patterns.", len(out))
		if len(out) == 0 {
			summary = "No ERROR or CRITICAL entries in the analyzed range."
		}
		return model.ToolResult{"patterns": out, "summary": summary}

	case patternFrequencySpike:
		report, ok := FrequencySpikes(entries)
		if !ok {
			return model.ToolResult{
				"spikes":  []map[string]any{},
				"summary": "Not enough data to detect spikes (fewer than 2 one-minute buckets).",
			}
		}
		spikes := make([]map[string]any, 0, len(report.Spikes))
		for _, s := range report.Spikes {
			spikes = append(spikes, map[string]any{
				"start": s.Start.UTC().Format(model.TimestampLayout),
				"count": s.Count,
			})
		}
		return model.ToolResult{
			"bucket_count": report.Buckets,
			"mean":         round2(report.Mean),
			"stddev":       round2(report.StdDev),
			"threshold":    round2(report.Threshold),
			"spikes":       spikes,
			"summary":      fmt.Sprintf("Found %d spikes across %d one-minute buckets.", len(spikes), report.Buckets),
		}

	default:
		return failure(ReasonInvalidArguments, fmt.Errorf("unknown pattern_type %q", kind))
	}
}

// TrailingWindow keeps the entries within d of the last entry's timestamp.
func TrailingWindow(entries []model.LogEntry, d time.Duration) []model.LogEntry {
	if len(entries) == 0 {
		return nil
	}
	cutoff := entries[len(entries)-1].Timestamp.Add(-d)
	var out []model.LogEntry
	for _, entry := range entries {
		if !entry.Timestamp.Before(cutoff) {
			out = append(out, entry)
		}
	}
	return out
}

// RepeatingErrors groups ERROR and CRITICAL entries by normalized message and
// returns the n largest groups. Ties keep corpus order of first occurrence.
func RepeatingErrors(entries []model.LogEntry, n int) []Pattern {
	index := make(map[string]int)
	var groups []Pattern
	for _, entry := range entries {
		if !entry.Level.IsErrorLevel() {
			continue
		}
		key := NormalizeMessage(entry.Message)
		if i, ok := index[key]; ok {
			groups[i].Count++
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Pattern{Text: key, Count: 1, ExampleID: entry.ID})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// FrequencySpikes buckets entries into fixed one-minute windows and reports
// buckets whose count exceeds mean + 2 standard deviations (population).
// It returns false when fewer than two buckets exist.
func FrequencySpikes(entries []model.LogEntry) (SpikeReport, bool) {
	counts := make(map[int64]int)
	for _, entry := range entries {
		counts[entry.Timestamp.Truncate(bucketSize).Unix()]++
	}
	if len(counts) < 2 {
		return SpikeReport{Buckets: len(counts)}, false
	}

	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / float64(len(counts))

	var sq float64
	for _, c := range counts {
		d := float64(c) - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(counts)))
	threshold := mean + spikeDeviation*stddev

	report := SpikeReport{
		Buckets:   len(counts),
		Mean:      mean,
		StdDev:    stddev,
		Threshold: threshold,
	}
	for start, c := range counts {
		if float64(c) > threshold {
			report.Spikes = append(report.Spikes, Spike{Start: time.Unix(start, 0).UTC(), Count: c})
		}
	}
	sort.Slice(report.Spikes, func(i, j int) bool {
		return report.Spikes[i].Start.Before(report.Spikes[j].Start)
	})
	return report, true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
