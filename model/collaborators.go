package model

// Corpus provides read-only access to the full, unfiltered log corpus.
// A snapshot must stay stable for the duration of a turn. Callers must not
// modify the returned slice.
type Corpus interface {
	Snapshot() []LogEntry
}

// DaemonLister provides the set of known daemon names.
type DaemonLister interface {
	Daemons() []string
}

// MatchMode selects how multiple keywords combine.
type MatchMode string

const (
	MatchAny MatchMode = "OR"
	MatchAll MatchMode = "AND"
)

// Filters describes a filter update requested by the assistant.
// Nil slices leave the corresponding filter untouched.
type Filters struct {
	Levels    []Level
	Daemons   []string
	Keywords  []string
	MatchMode MatchMode
}

// FilterSink applies filters to the user's visible log view.
type FilterSink interface {
	ApplyFilters(filters Filters, reset bool)
}

// Navigator scrolls the user's log view to an entry.
type Navigator interface {
	ScrollTo(logID string)
}

// FindingsReader returns previously saved finding texts, oldest first.
type FindingsReader interface {
	Findings() ([]string, error)
}

// CredentialStore gets and sets the single hosted-provider credential.
type CredentialStore interface {
	Credential() string
	SetCredential(key string) error
}

// ConsentStore gets and sets the downloadable runtime consent flag.
type ConsentStore interface {
	Consented() bool
	SetConsent(granted bool) error
}
