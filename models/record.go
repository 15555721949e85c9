// Package models defines data structures for the import engine.
package models

import "time"

// ImportRow is a raw spreadsheet row mapping column name to cell text.
// Missing cells are simply absent from the map.
type ImportRow map[string]string

// Record is the validated, typed form of an import row.
type Record struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock"`
}

// Rejection reports a row that failed normalization.
type Rejection struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Update pairs an existing record id with replacement values. The natural
// key on Record is carried for error attribution only and is never part of
// the update payload.
type Update struct {
	ID     string
	Record Record
}

// MatchPolicy selects what happens when an import row matches an existing
// record.
type MatchPolicy string

const (
	// UpdateOnMatch rewrites the matched record (product imports).
	UpdateOnMatch MatchPolicy = "update"
	// SkipOnMatch leaves the matched record untouched (supplier imports).
	SkipOnMatch MatchPolicy = "skip"
)

// Plan is the output of reconciliation: what to insert, what to update,
// and which keys were skipped under SkipOnMatch.
type Plan struct {
	BusinessID  string
	Inserts     []Record
	Updates     []Update
	SkippedKeys []string
}

// WriteFailure records a single failed update, attributed to its natural key.
type WriteFailure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// RunResult holds the overall outcome of one import run.
type RunResult struct {
	RunID     string
	Policy    MatchPolicy
	StartTime time.Time
	EndTime   time.Time

	RowsRead int
	Rejected []Rejection

	InsertsPlanned int
	UpdatesPlanned int

	Inserted int
	Updated  int
	Skipped  int

	InsertFailure  string
	UpdateFailures []WriteFailure
}

// Duplicates preserves the legacy import-dialog contract: the product path
// reported updated records under this name, the supplier path reported
// skipped rows.
func (r *RunResult) Duplicates() int {
	if r.Policy == SkipOnMatch {
		return r.Skipped
	}
	return r.Updated
}

// Duration returns the wall-clock time of the run.
func (r *RunResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
