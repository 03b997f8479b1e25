package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Periodic scan of the fee ledger for outstanding balances
	TypeFeeScan = "fees:scan"

	// On-demand CSV export of an allocation's attendance report
	TypeAttendanceExport = "reports:attendance_export"
)

// FeeScanPayload is the payload of a fee scan task (currently empty, the
// scan always covers the whole ledger)
type FeeScanPayload struct{}

// AttendanceExportPayload describes one attendance export request
type AttendanceExportPayload struct {
	AllocationID string `json:"allocation_id"`
	Start        string `json:"start,omitempty"` // YYYY-MM-DD, empty = unbounded
	End          string `json:"end,omitempty"`
	FileName     string `json:"file_name"` // Target name in the upload dir
}

// NewFeeScanTask creates a task to scan the fee ledger
func NewFeeScanTask() (*asynq.Task, error) {
	payload, err := json.Marshal(FeeScanPayload{})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeFeeScan, payload, asynq.Queue("low")), nil
}

// NewAttendanceExportTask creates a task to export an attendance report
func NewAttendanceExportTask(allocationID, start, end, fileName string) (*asynq.Task, error) {
	payload, err := json.Marshal(AttendanceExportPayload{
		AllocationID: allocationID,
		Start:        start,
		End:          end,
		FileName:     fileName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeAttendanceExport, payload), nil
}

// ParseAttendanceExportPayload parses the payload from an Asynq task
func ParseAttendanceExportPayload(task *asynq.Task) (AttendanceExportPayload, error) {
	var payload AttendanceExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
