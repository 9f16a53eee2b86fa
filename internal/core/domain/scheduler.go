package domain

import "time"

// Trigger names what started an indexing run.
type Trigger string

// Run triggers.
const (
	TriggerManual   Trigger = "manual"
	TriggerSchedule Trigger = "schedule"
	TriggerWatch    Trigger = "watch"
)

// IndexRun is the outcome of one scheduled or watched indexing run.
type IndexRun struct {
	// Trigger is what started the run.
	Trigger Trigger

	// StartedAt is when the run started.
	StartedAt time.Time

	// EndedAt is when the run completed.
	EndedAt time.Time

	// Report is nil when the run failed before producing one.
	Report *IndexReport

	// Error contains the error message if the run failed.
	Error string

	// Skipped is true when the run was dropped because another was active.
	Skipped bool
}

// Success indicates whether the run completed without error.
func (r IndexRun) Success() bool {
	return !r.Skipped && r.Error == ""
}
