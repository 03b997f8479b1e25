package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/attendance"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/storage"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/tasks"
)

// HandleAttendanceExport renders an allocation's attendance report to a CSV
// file in the upload directory. The requesting handler has already chosen
// the target file name and returned it to the caller.
func HandleAttendanceExport(ctx context.Context, t *asynq.Task, attendanceService *attendance.Service, store *storage.Service, logger zerolog.Logger) error {
	payload, err := tasks.ParseAttendanceExportPayload(t)
	if err != nil {
		return err
	}

	start, err := parseDate(payload.Start)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDate(payload.End)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	report, err := attendanceService.Report(payload.AllocationID, start, end)
	if err != nil {
		return err
	}

	file, err := store.Create(payload.FileName)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := attendance.WriteCSV(file, report); err != nil {
		// Leave no truncated export behind
		_ = store.Remove(payload.FileName)
		return err
	}

	logger.Info().
		Str("allocation_id", payload.AllocationID).
		Str("file", payload.FileName).
		Int("students", len(report.StudentStats)).
		Msg("Attendance report exported")
	return nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
