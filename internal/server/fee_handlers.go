package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// FeePaymentRequest records one payment against a student's ledger
type FeePaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// FeeTotalRequest resets a student's total fee
type FeeTotalRequest struct {
	TotalFee float64 `json:"total_fee" binding:"required,gt=0"`
}

// @Summary Fee ledger
// @Description Every student's fee status, pending first
// @Tags fees
// @Produce json
// @Security BearerAuth
// @Success 200 {array} fees.LedgerEntry
// @Router /api/admin/fees [get]
func (s *Server) listFees(c *gin.Context) {
	ledger, err := s.feesService.Ledger()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load fee ledger")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, ledger)
}

// @Summary Set fee total
// @Description Sets (or resets) a student's total fee. Payments already made are preserved.
// @Tags fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID"
// @Param request body FeeTotalRequest true "New total"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/fees/{studentId} [put]
func (s *Server) setFeeTotal(c *gin.Context) {
	var req FeeTotalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentID := c.Param("studentId")
	if err := s.feesService.Initialize(studentID, req.TotalFee); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return
		}
		s.logger.Error().Err(err).Str("student_id", studentID).Msg("Failed to set fee total")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set fee total"})
		return
	}

	var record models.FeeRecord
	if err := s.db.Where("student_id = ?", studentID).First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fee record not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_fee":   record.TotalFee,
		"paid_amount": record.PaidAmount,
		"balance":     record.Balance(),
		"status":      record.Status(),
	})
}

// @Summary Record fee payment
// @Tags fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID"
// @Param request body FeePaymentRequest true "Payment"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/fees/{studentId}/payment [post]
func (s *Server) recordFeePayment(c *gin.Context) {
	var req FeePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	studentID := c.Param("studentId")
	if err := s.feesService.RecordPayment(studentID, req.Amount); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Fee record not found"})
			return
		}
		s.logger.Error().Err(err).Str("student_id", studentID).Msg("Failed to record payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}

	var record models.FeeRecord
	if err := s.db.Where("student_id = ?", studentID).First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fee record not found"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("student_id", studentID).
		Float64("amount", req.Amount).
		Str("recorded_by", sessionData.UserID).
		Msg("Fee payment recorded")

	c.JSON(http.StatusOK, gin.H{
		"total_fee":   record.TotalFee,
		"paid_amount": record.PaidAmount,
		"balance":     record.Balance(),
		"status":      record.Status(),
	})
}
