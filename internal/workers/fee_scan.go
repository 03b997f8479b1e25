package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/fees"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// HandleFeeScan walks the fee ledger, records the scan timestamp on the
// config singleton and posts an admin-authored notice when balances are
// outstanding so students see the reminder on their board.
func HandleFeeScan(ctx context.Context, t *asynq.Task, db *gorm.DB, feeService *fees.Service, logger zerolog.Logger) error {
	pending, err := feeService.PendingCount()
	if err != nil {
		return err
	}

	var config models.Config
	if err := db.First(&config).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Debug().Msg("No config found - skipping fee scan")
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	now := time.Now()
	if err := db.Model(&config).Update("last_fee_scan_at", &now).Error; err != nil {
		return fmt.Errorf("failed to record fee scan: %w", err)
	}

	if pending == 0 {
		logger.Info().Msg("Fee scan complete - no outstanding balances")
		return nil
	}

	// One reminder per scan day keeps the board readable
	var existing int64
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = db.Model(&models.Notice{}).
		Where("title = ? AND created_at >= ?", feeReminderTitle, dayStart).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("failed to check existing reminders: %w", err)
	}
	if existing > 0 {
		logger.Debug().Int64("pending", pending).Msg("Fee reminder already posted today")
		return nil
	}

	var admin models.User
	if err := db.Where("role = ?", models.RoleAdmin).Order("created_at").First(&admin).Error; err != nil {
		logger.Warn().Err(err).Msg("No admin account - skipping fee reminder notice")
		return nil
	}

	notice := models.Notice{
		Title: feeReminderTitle,
		Content: fmt.Sprintf(
			"Fee payments are pending for %d student(s). Please clear your outstanding balance at the accounts office.",
			pending),
		TargetRole: models.NoticeTargetStudent,
		PostedByID: admin.ID,
	}
	if err := db.Create(&notice).Error; err != nil {
		return fmt.Errorf("failed to post fee reminder: %w", err)
	}

	logger.Info().Int64("pending", pending).Msg("Fee scan complete - reminder posted")
	return nil
}

const feeReminderTitle = "Fee payment reminder"
