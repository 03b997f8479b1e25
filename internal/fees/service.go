package fees

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// Service implements the fee ledger
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewService creates a new fee service
func NewService(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// LedgerEntry is one student's row in the admin fee ledger
type LedgerEntry struct {
	StudentID string     `json:"student_id"`
	Name      string     `json:"name"`
	PRN       string     `json:"prn"`
	Total     float64    `json:"total"`
	Paid      float64    `json:"paid"`
	Balance   float64    `json:"balance"`
	Status    string     `json:"status"`
	LastPaid  *time.Time `json:"last_payment_date"`
}

// Initialize sets (or resets) the total fee for a student, creating the
// record on first use. Paid amount is preserved across re-initialization.
func (s *Service) Initialize(studentID string, total float64) error {
	if total <= 0 {
		return fmt.Errorf("total fee must be positive")
	}

	var student models.StudentProfile
	if err := models.FindByID(s.db, studentID, &student); err != nil {
		return fmt.Errorf("student not found: %w", err)
	}

	var record models.FeeRecord
	err := s.db.Where("student_id = ?", student.ID).First(&record).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		record = models.FeeRecord{StudentID: student.ID, TotalFee: total}
		if err := s.db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create fee record: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to load fee record: %w", err)
	default:
		record.TotalFee = total
		if err := s.db.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to update fee record: %w", err)
		}
	}

	s.logger.Info().Str("student_id", student.ID).Float64("total", total).Msg("Fee initialized")
	return nil
}

// RecordPayment adds a payment to a student's ledger
func (s *Service) RecordPayment(studentID string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("payment amount must be positive")
	}

	var record models.FeeRecord
	if err := s.db.Where("student_id = ?", studentID).First(&record).Error; err != nil {
		return fmt.Errorf("fee record not initialized for student: %w", err)
	}

	now := time.Now()
	record.PaidAmount += amount
	record.LastPaymentDate = &now
	if err := s.db.Save(&record).Error; err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info().
		Str("student_id", studentID).
		Float64("amount", amount).
		Float64("balance", record.Balance()).
		Msg("Payment recorded")
	return nil
}

// Ledger returns every fee record with derived balance and status
func (s *Service) Ledger() ([]LedgerEntry, error) {
	var records []models.FeeRecord
	if err := s.db.Preload("Student").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load fee records: %w", err)
	}

	entries := make([]LedgerEntry, 0, len(records))
	for _, record := range records {
		entry := LedgerEntry{
			StudentID: record.StudentID,
			Total:     record.TotalFee,
			Paid:      record.PaidAmount,
			Balance:   record.Balance(),
			Status:    record.Status(),
			LastPaid:  record.LastPaymentDate,
		}
		if record.Student != nil {
			entry.Name = record.Student.FullName()
			entry.PRN = record.Student.PRN
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// PendingCount counts records with an outstanding balance
func (s *Service) PendingCount() (int64, error) {
	var count int64
	err := s.db.Model(&models.FeeRecord{}).
		Where("paid_amount < total_fee").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending fees: %w", err)
	}
	return count, nil
}
