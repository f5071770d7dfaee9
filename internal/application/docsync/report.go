package docsync

import "time"

// State is a step of the sync cycle
type State string

const (
	StateIdle               State = "IDLE"
	StateFetchingWatermarks State = "FETCHING_WATERMARKS"
	StateFetchingDocuments  State = "FETCHING_DOCUMENTS"
	StateDeduping           State = "DEDUPING"
	StateDelivering         State = "DELIVERING"
	StateCommitting         State = "COMMITTING"
)

// Outcome is how a cycle ended
type Outcome string

const (
	OutcomeNoCounterparties Outcome = "no_counterparties"
	OutcomeNothingToSend    Outcome = "nothing_to_send"
	OutcomeDelivered        Outcome = "delivered"
	OutcomeFailed           Outcome = "failed"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeSkipped          Outcome = "skipped"
)

// CycleReport describes one sync cycle
type CycleReport struct {
	ID             string     `json:"id"`
	Trigger        string     `json:"trigger,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     time.Time  `json:"finishedAt"`
	States         []State    `json:"states"`
	Counterparties int        `json:"counterparties"`
	Floor          *time.Time `json:"floor,omitempty"`
	Fetched        int        `json:"fetched"`
	Deduped        int        `json:"deduped"`
	Delivered      int        `json:"delivered"`
	CommitFailures int        `json:"commitFailures"`
	CommittedAt    *time.Time `json:"committedAt,omitempty"`
	Outcome        Outcome    `json:"outcome"`
	Error          string     `json:"error,omitempty"`
}

// Duration returns how long the cycle ran
func (r *CycleReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *CycleReport) enter(s State) {
	r.States = append(r.States, s)
}
