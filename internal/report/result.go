package report

import "time"

// Mode selects whether a run persists rewritten documents.
type Mode string

const (
	// ModeDry computes results without writing documents.
	ModeDry Mode = "dry"
	// ModeApply writes converted content back to the store.
	ModeApply Mode = "apply"
)

// Valid reports whether the mode is known.
func (m Mode) Valid() bool {
	return m == ModeDry || m == ModeApply
}

// Trigger identifies what started a run.
type Trigger string

const (
	// TriggerManual is an operator initiated run. Manual runs report every item.
	TriggerManual Trigger = "manual"
	// TriggerScheduled is a periodic run. Scheduled runs keep at most
	// ScheduledItemCap item details.
	TriggerScheduled Trigger = "scheduled"
)

// ScheduledItemCap bounds the item details kept for scheduled runs.
const ScheduledItemCap = 20

// ItemResult describes the outcome for one document that carried source blocks.
type ItemResult struct {
	PostID       int64  `json:"post_id"`
	PostTitle    string `json:"post_title"`
	SourceBlocks int    `json:"source_blocks"`
	Converted    int    `json:"converted"`
	Changed      bool   `json:"changed"`
	Note         string `json:"note,omitempty"`
	Preview      string `json:"preview,omitempty"`
}

// RunResult aggregates one invocation of the batch engine.
type RunResult struct {
	RunID           string       `json:"run_id"`
	Mode            Mode         `json:"mode"`
	Trigger         Trigger      `json:"trigger"`
	Scanned         int          `json:"scanned"`
	Matched         int          `json:"matched"`
	Changed         int          `json:"changed"`
	BlocksConverted int          `json:"blocks_converted"`
	Items           []ItemResult `json:"items"`
	Errors          []string     `json:"errors"`
	Checkpoint      int64        `json:"checkpoint"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      time.Time    `json:"finished_at"`
}

// New returns an empty result for the supplied run.
func New(runID string, mode Mode, trigger Trigger, startedAt time.Time) *RunResult {
	return &RunResult{
		RunID:     runID,
		Mode:      mode,
		Trigger:   trigger,
		Items:     []ItemResult{},
		Errors:    []string{},
		StartedAt: startedAt,
	}
}

// AddItem appends an item detail honouring the scheduled run cap. It reports
// whether the item was kept.
func (r *RunResult) AddItem(item ItemResult) bool {
	if r.Trigger == TriggerScheduled && len(r.Items) >= ScheduledItemCap {
		return false
	}
	r.Items = append(r.Items, item)
	return true
}

// AddError records a run level error message.
func (r *RunResult) AddError(message string) {
	r.Errors = append(r.Errors, message)
}

// Duration returns the wall time of the run, zero while it is still running.
func (r *RunResult) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasErrors reports whether any error was recorded.
func (r *RunResult) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}
