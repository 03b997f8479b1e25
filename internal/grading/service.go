package grading

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// Service implements assessment entry and report-card aggregation
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewService creates a new grading service
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// MarkEntry is one student's score on a marks sheet
type MarkEntry struct {
	StudentID string  `json:"student_id" binding:"required"`
	Marks     float64 `json:"marks"`
}

// CreateAssessment stores an assessment and its whole marks sheet atomically
func (s *Service) CreateAssessment(allocationID, title string, examType models.ExamType, maxMarks float64, marks []MarkEntry) (*models.Assessment, error) {
	var allocation models.SubjectAllocation
	if err := models.FindByID(s.db, allocationID, &allocation); err != nil {
		return nil, fmt.Errorf("allocation not found: %w", err)
	}

	assessment := models.Assessment{
		AllocationID: allocation.ID,
		Title:        title,
		Type:         examType,
		MaxMarks:     maxMarks,
		Date:         time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&assessment).Error; err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
		if len(marks) == 0 {
			return nil
		}
		rows := make([]models.StudentMark, 0, len(marks))
		for _, entry := range marks {
			rows = append(rows, models.StudentMark{
				AssessmentID:  assessment.ID,
				StudentID:     entry.StudentID,
				MarksObtained: entry.Marks,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save marks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("assessment_id", assessment.ID).
		Str("allocation_id", allocation.ID).
		Int("marks", len(marks)).
		Msg("Assessment created")
	return &assessment, nil
}

// SubjectResult is one subject line of a report card
type SubjectResult struct {
	SubjectName   string  `json:"subject_name"`
	SubjectCode   string  `json:"subject_code"`
	InternalMarks float64 `json:"internal_marks"`
	ExternalMarks float64 `json:"external_marks"`
	Total         float64 `json:"total"`
}

// scoredMark pairs an exam type with marks for the aggregation rule
type scoredMark struct {
	Type  models.ExamType
	Marks float64
}

// ReportCard aggregates a student's marks into one line per subject
func (s *Service) ReportCard(studentID string) ([]SubjectResult, error) {
	var marks []models.StudentMark
	err := s.db.
		Preload("Assessment").
		Preload("Assessment.Allocation").
		Preload("Assessment.Allocation.Subject").
		Where("student_id = ?", studentID).
		Find(&marks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load marks: %w", err)
	}

	type subjectMarks struct {
		subject models.Subject
		marks   []scoredMark
	}
	bySubject := map[string]*subjectMarks{}
	for _, mark := range marks {
		if mark.Assessment == nil || mark.Assessment.Allocation == nil || mark.Assessment.Allocation.Subject == nil {
			continue
		}
		subject := *mark.Assessment.Allocation.Subject
		entry, ok := bySubject[subject.ID]
		if !ok {
			entry = &subjectMarks{subject: subject}
			bySubject[subject.ID] = entry
		}
		entry.marks = append(entry.marks, scoredMark{Type: mark.Assessment.Type, Marks: mark.MarksObtained})
	}

	results := make([]SubjectResult, 0, len(bySubject))
	for _, entry := range bySubject {
		internal, external := aggregate(entry.marks)
		results = append(results, SubjectResult{
			SubjectName:   entry.subject.Name,
			SubjectCode:   entry.subject.Code,
			InternalMarks: internal,
			ExternalMarks: external,
			Total:         internal + external,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].SubjectCode < results[j].SubjectCode })
	return results, nil
}

// CGPA averages a student's SGPA across recorded exam sessions
func (s *Service) CGPA(studentID string) (float64, error) {
	var results []models.ExamResult
	if err := s.db.Where("student_id = ?", studentID).Find(&results).Error; err != nil {
		return 0, fmt.Errorf("failed to load exam results: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	var sum float64
	for _, result := range results {
		sum += result.SGPA
	}
	cgpa := sum / float64(len(results))
	// Two decimal places, matching the transcript format
	return float64(int(cgpa*100+0.5)) / 100, nil
}

// aggregate applies the grading rule to one subject's marks:
// internal = average of the best two unit tests plus all assignment marks,
// external = the end-of-semester theory exam.
func aggregate(marks []scoredMark) (internal, external float64) {
	var unitTests []float64
	for _, mark := range marks {
		switch {
		case strings.HasPrefix(string(mark.Type), "UNIT_TEST"):
			unitTests = append(unitTests, mark.Marks)
		case mark.Type == models.ExamAssignment:
			internal += mark.Marks
		case mark.Type == models.ExamTheoryESE:
			external = mark.Marks
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(unitTests)))
	switch {
	case len(unitTests) >= 2:
		internal += (unitTests[0] + unitTests[1]) / 2
	case len(unitTests) == 1:
		internal += unitTests[0]
	}
	return internal, external
}
