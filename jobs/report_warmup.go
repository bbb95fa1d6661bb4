package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/khata-erp/khata-erp/internal/jobs"
	"github.com/khata-erp/khata-erp/internal/overview"
	"github.com/khata-erp/khata-erp/internal/report"
)

// ReportWarmupJob pre-populates the report and overview caches.
type ReportWarmupJob struct {
	Reports  *report.Service
	Overview *overview.Service
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reports *report.Service, ov *overview.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports:  reports,
		Overview: ov,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Months <= 0 {
		payload.Months = 1
	}

	tracker := j.Metrics.Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("months", payload.Months))
	logger.Info("starting report warmup")

	now := j.clock()
	for i := 1; i <= payload.Months; i++ {
		if err := j.warmMonth(ctx, now.AddDate(0, -i, 0)); err != nil {
			resultErr = err
			logger.Error("warm month", slog.Int("offset", i), slog.Any("error", err))
			return resultErr
		}
	}

	if j.Overview != nil {
		warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		if _, err := j.Overview.GetAccountOverview(warmCtx, nil); err != nil {
			resultErr = err
			logger.Error("warm overview", slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed report warmup", slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *ReportWarmupJob) warmMonth(ctx context.Context, at time.Time) error {
	if j.Reports == nil {
		return nil
	}
	// Each month gets its own timeout to keep the job bounded.
	monthCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	_, err := j.Reports.GetMonthlyReport(monthCtx, at.Year(), at.Month())
	return err
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
