package workers

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/tasks"
)

// StartFeeScanScheduler enqueues a fee scan task on the configured cron
// schedule. Runs on a one-minute tick; cron precision is all the scan needs.
func StartFeeScanScheduler(client *asynq.Client, schedule string, logger zerolog.Logger) {
	if schedule == "" {
		logger.Info().Msg("Fee scan schedule disabled")
		return
	}

	spec, err := cron.ParseStandard(schedule)
	if err != nil {
		logger.Error().Err(err).Str("schedule", schedule).Msg("Invalid fee scan schedule")
		return
	}

	next := spec.Next(time.Now())
	logger.Info().Str("schedule", schedule).Time("next_run", next).Msg("Fee scan scheduler started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if time.Now().Before(next) {
			continue
		}

		task, err := tasks.NewFeeScanTask()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to build fee scan task")
		} else if _, err := client.Enqueue(task); err != nil {
			logger.Error().Err(err).Msg("Failed to enqueue fee scan task")
		} else {
			logger.Info().Msg("Fee scan task enqueued")
		}

		next = spec.Next(time.Now())
	}
}
