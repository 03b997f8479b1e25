package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// Service implements attendance marking and reporting for allocations
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewService creates a new attendance service
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Entry is one student's status when marking a session
type Entry struct {
	StudentID string                  `json:"student_id" binding:"required"`
	Status    models.AttendanceStatus `json:"status" binding:"required"`
}

// StudentStat is one row of an allocation's attendance report
type StudentStat struct {
	StudentID        string  `json:"student_id"`
	StudentName      string  `json:"student_name"`
	PRN              string  `json:"prn"`
	SessionsAttended int     `json:"sessions_attended"`
	Percentage       float64 `json:"percentage"`
}

// Report summarizes attendance for one allocation over a date range
type Report struct {
	SubjectName       string        `json:"subject_name"`
	SubjectCode       string        `json:"subject_code"`
	Year              int           `json:"year"`
	Range             string        `json:"range"`
	TotalSessionsHeld int           `json:"total_sessions_held"`
	StudentStats      []StudentStat `json:"student_stats"`
}

// SubjectSummary is one subject's attendance totals for a single student
type SubjectSummary struct {
	SubjectName      string  `json:"subject_name"`
	SubjectCode      string  `json:"subject_code"`
	TotalSessions    int     `json:"total_sessions"`
	AttendedSessions int     `json:"attended_sessions"`
	Percentage       float64 `json:"percentage"`
}

// Mark records one taught session with a status per student.
// The session and its records are written in a single transaction.
func (s *Service) Mark(allocationID string, date time.Time, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("attendance sheet is empty")
	}

	var allocation models.SubjectAllocation
	if err := models.FindByID(s.db, allocationID, &allocation); err != nil {
		return fmt.Errorf("allocation not found: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		session := models.AttendanceSession{
			AllocationID: allocation.ID,
			Date:         date,
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		records := make([]models.AttendanceRecord, 0, len(entries))
		for _, entry := range entries {
			records = append(records, models.AttendanceRecord{
				SessionID: session.ID,
				StudentID: entry.StudentID,
				Status:    entry.Status,
			})
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to create records: %w", err)
		}

		s.logger.Info().
			Str("allocation_id", allocation.ID).
			Int("students", len(records)).
			Msg("Attendance marked")
		return nil
	})
}

// StudentsForAllocation returns the students eligible for an allocation's
// sessions: everyone in the academic year the subject is taught in.
func (s *Service) StudentsForAllocation(allocationID string) ([]models.StudentProfile, error) {
	var allocation models.SubjectAllocation
	if err := models.FindByIDWithPreload(s.db, allocationID, &allocation, "Subject"); err != nil {
		return nil, fmt.Errorf("allocation not found: %w", err)
	}

	var students []models.StudentProfile
	if err := s.db.Where("current_year = ?", allocation.Subject.Year).
		Order("prn").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// Report computes per-student attendance for an allocation. A nil start or
// end means no bound on that side.
func (s *Service) Report(allocationID string, start, end *time.Time) (*Report, error) {
	var allocation models.SubjectAllocation
	if err := models.FindByIDWithPreload(s.db, allocationID, &allocation, "Subject"); err != nil {
		return nil, fmt.Errorf("allocation not found: %w", err)
	}

	sessionQuery := s.db.Where("allocation_id = ?", allocationID)
	if start != nil {
		sessionQuery = sessionQuery.Where("date >= ?", *start)
	}
	if end != nil {
		sessionQuery = sessionQuery.Where("date <= ?", *end)
	}

	var sessions []models.AttendanceSession
	if err := sessionQuery.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessionIDs := make([]string, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}

	// Sessions attended per student, one query for the whole report
	attended := map[string]int{}
	if len(sessionIDs) > 0 {
		type row struct {
			StudentID string
			Count     int
		}
		var rows []row
		err := s.db.Model(&models.AttendanceRecord{}).
			Select("student_id, count(*) as count").
			Where("session_id IN ? AND status = ?", sessionIDs, models.AttendancePresent).
			Group("student_id").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count attendance: %w", err)
		}
		for _, r := range rows {
			attended[r.StudentID] = r.Count
		}
	}

	students, err := s.StudentsForAllocation(allocationID)
	if err != nil {
		return nil, err
	}

	stats := make([]StudentStat, 0, len(students))
	for _, student := range students {
		count := attended[student.ID]
		stats = append(stats, StudentStat{
			StudentID:        student.ID,
			StudentName:      student.FullName(),
			PRN:              student.PRN,
			SessionsAttended: count,
			Percentage:       Percentage(count, len(sessions)),
		})
	}

	return &Report{
		SubjectName:       allocation.Subject.Name,
		SubjectCode:       allocation.Subject.Code,
		Year:              allocation.Subject.Year,
		Range:             formatRange(start, end),
		TotalSessionsHeld: len(sessions),
		StudentStats:      stats,
	}, nil
}

// StudentSummary computes per-subject attendance for one student across
// every subject of their academic year.
func (s *Service) StudentSummary(studentID string) ([]SubjectSummary, error) {
	var student models.StudentProfile
	if err := models.FindByID(s.db, studentID, &student); err != nil {
		return nil, fmt.Errorf("student not found: %w", err)
	}

	var subjects []models.Subject
	if err := s.db.Where("year = ?", student.CurrentYear).Order("code").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	summaries := make([]SubjectSummary, 0, len(subjects))
	for _, subject := range subjects {
		var allocationIDs []string
		if err := s.db.Model(&models.SubjectAllocation{}).
			Where("subject_id = ?", subject.ID).
			Pluck("id", &allocationIDs).Error; err != nil {
			return nil, fmt.Errorf("failed to list allocations: %w", err)
		}

		var total, attended int64
		if len(allocationIDs) > 0 {
			if err := s.db.Model(&models.AttendanceSession{}).
				Where("allocation_id IN ?", allocationIDs).
				Count(&total).Error; err != nil {
				return nil, fmt.Errorf("failed to count sessions: %w", err)
			}
			err := s.db.Model(&models.AttendanceRecord{}).
				Joins("JOIN attendance_sessions ON attendance_sessions.id = attendance_records.session_id").
				Where("attendance_sessions.allocation_id IN ?", allocationIDs).
				Where("attendance_records.student_id = ? AND attendance_records.status = ?",
					student.ID, models.AttendancePresent).
				Count(&attended).Error
			if err != nil {
				return nil, fmt.Errorf("failed to count attendance: %w", err)
			}
		}

		summaries = append(summaries, SubjectSummary{
			SubjectName:      subject.Name,
			SubjectCode:      subject.Code,
			TotalSessions:    int(total),
			AttendedSessions: int(attended),
			Percentage:       Percentage(int(attended), int(total)),
		})
	}
	return summaries, nil
}

// OverallPercentage averages the per-subject percentages of a summary
func OverallPercentage(summaries []SubjectSummary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	var sum float64
	for _, summary := range summaries {
		sum += summary.Percentage
	}
	return math.Round(sum/float64(len(summaries))*10) / 10
}

// Percentage computes an attendance percentage rounded to one decimal
func Percentage(attended, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(attended)/float64(total)*1000) / 10
}

// WriteCSV renders a report in the download format used by the faculty view
func WriteCSV(w io.Writer, report *Report) error {
	writer := csv.NewWriter(w)

	header := [][]string{
		{"Subject", report.SubjectName},
		{"Code", report.SubjectCode},
		{"Range", report.Range},
		{"Total Sessions", fmt.Sprintf("%d", report.TotalSessionsHeld)},
		{},
		{"PRN", "Student Name", "Attended", "Total", "Percentage"},
	}
	for _, row := range header {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}

	for _, stat := range report.StudentStats {
		row := []string{
			stat.PRN,
			stat.StudentName,
			fmt.Sprintf("%d", stat.SessionsAttended),
			fmt.Sprintf("%d", report.TotalSessionsHeld),
			fmt.Sprintf("%.1f%%", stat.Percentage),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatRange(start, end *time.Time) string {
	if start == nil && end == nil {
		return "Overall"
	}
	format := func(t *time.Time) string {
		if t == nil {
			return "..."
		}
		return t.Format("2006-01-02")
	}
	return format(start) + " to " + format(end)
}
