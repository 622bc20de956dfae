package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// SearchPhase is the type for the search lifecycle enum.
type SearchPhase string

// SearchPhase enum values.
const (
	PhaseIdle     SearchPhase = "idle"
	PhaseLocating SearchPhase = "locating"
	PhaseLoading  SearchPhase = "loading"
	PhaseSuccess  SearchPhase = "success"
	PhaseError    SearchPhase = "error"
)

// Waiting reports whether the phase is one in which progress ticks advance.
func (p SearchPhase) Waiting() bool {
	return p == PhaseLocating || p == PhaseLoading
}

// SearchState is the orchestrator's session record, exposed to the
// presentation layer as a read-only snapshot.
//
// Invariants: Results is non-empty only when Phase is success; ErrorMessage
// is set only when Phase is error; Notice carries the advisory
// empty-result message alongside a success phase; ProgressTick advances
// only while Phase is locating or loading and resets to 0 at the start of
// every new search.
type SearchState struct {
	Phase        SearchPhase    `json:"phase"`
	Results      []Restaurant   `json:"results"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Notice       string         `json:"notice,omitempty"`
	ProgressTick int            `json:"progress_tick"`
	Criteria     SearchCriteria `json:"criteria"`
}

// SearchOutcome is the type for the recorded outcome enum.
type SearchOutcome string

// SearchOutcome enum values.
const (
	OutcomeSuccess   SearchOutcome = "success"
	OutcomeEmpty     SearchOutcome = "empty"
	OutcomeUpstream  SearchOutcome = "upstream_error"
	OutcomeMalformed SearchOutcome = "malformed_response"
	OutcomeLocation  SearchOutcome = "location_unavailable"
	OutcomeStale     SearchOutcome = "stale_discarded"
)

// SearchRecord is the model for one completed search, kept for diagnostics.
// The user never sees the ErrorDetail column.
type SearchRecord struct {
	gorm.Model
	ClientID    string         `gorm:"index"`
	Sequence    uint64         `gorm:"index"`
	City        City           `gorm:"type:text"`
	Category    string
	FreeText    string
	Live        bool
	Latitude    float64
	Longitude   float64
	Outcome     SearchOutcome  `gorm:"type:text;index"`
	ResultCount int
	ErrorDetail string
	Platforms   pq.StringArray `gorm:"type:text[]"`
	LatencyMS   int64
}
