package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup pre-computes monthly reports and the account overview
	// into the cache so the first dashboard hit of the day is warm.
	TaskReportWarmup = "reports:warmup"
)

// ReportWarmupPayload configures how far back the warmup reaches.
type ReportWarmupPayload struct {
	// Months is the number of closed months to pre-compute, counting back
	// from the month before the current one.
	Months int `json:"months"`
}

// NewReportWarmupTask constructs an Asynq task for report warmup.
func NewReportWarmupTask(months int) (*asynq.Task, error) {
	data, err := json.Marshal(ReportWarmupPayload{Months: months})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
