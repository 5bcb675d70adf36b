package statusview

import (
	"context"
	"time"
)

// StatusStore persists workflow statuses. LoadStatus returns the most
// recently saved status for a workflow, or nil when there is none.
type StatusStore interface {
	// SaveStatus stores a status snapshot
	SaveStatus(ctx context.Context, status *Status) error

	// LoadStatus loads the latest status for a workflow
	LoadStatus(ctx context.Context, name string) (*Status, error)

	// DeleteStatus removes all statuses of a workflow
	DeleteStatus(ctx context.Context, name string) error

	// ListStatuses summarizes the latest status of every workflow
	ListStatuses(ctx context.Context) ([]*StatusSummary, error)
}

// StatusSummary provides a summary view of a workflow run
type StatusSummary struct {
	RequestID  string          `json:"request_id"`
	Name       string          `json:"name"`
	Status     SchedulerStatus `json:"status"`
	StatusText string          `json:"status_text"`
	StartedAt  string          `json:"started_at"`
	FinishedAt string          `json:"finished_at"`
	Duration   time.Duration   `json:"duration"`
}

// Summarize builds the summary of a status.
func Summarize(status *Status) *StatusSummary {
	summary := &StatusSummary{
		RequestID:  status.RequestID,
		Name:       status.Name,
		Status:     status.Status,
		StatusText: status.Status.String(),
		StartedAt:  status.StartedAt,
		FinishedAt: status.FinishedAt,
	}
	start, startOK := parseISOTime(status.StartedAt, time.Local)
	finish, finishOK := parseISOTime(status.FinishedAt, time.Local)
	if startOK && finishOK && !finish.Before(start) {
		summary.Duration = finish.Sub(start)
	}
	return summary
}
