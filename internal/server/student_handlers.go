package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/attendance"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/grading"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// StudentDashboard bundles the profile with its headline numbers
type StudentDashboard struct {
	Profile              *models.StudentProfile `json:"profile"`
	OverallAttendancePct float64                `json:"overall_attendance_pct"`
	CGPA                 float64                `json:"cgpa"`
}

// ReportCard is the aggregated mark sheet plus exam history
type ReportCard struct {
	StudentName string                  `json:"student_name"`
	PRN         string                  `json:"prn"`
	Subjects    []grading.SubjectResult `json:"subjects"`
	CGPA        float64                 `json:"cgpa"`
	ExamResults []models.ExamResult     `json:"exam_results"`
}

// studentProfileFor resolves the profile of the logged-in student
func (s *Server) studentProfileFor(c *gin.Context) (*models.StudentProfile, bool) {
	sessionData, _ := GetSessionData(c)

	var profile models.StudentProfile
	if err := s.db.Where("user_id = ?", sessionData.UserID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student profile not found"})
		return nil, false
	}
	return &profile, true
}

// @Summary Student dashboard
// @Description Profile with overall attendance percentage and CGPA
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StudentDashboard
// @Router /api/student/profile [get]
func (s *Server) studentProfile(c *gin.Context) {
	profile, ok := s.studentProfileFor(c)
	if !ok {
		return
	}

	summaries, err := s.attendanceService.StudentSummary(profile.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("student_id", profile.ID).Msg("Failed to summarize attendance")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	cgpa, err := s.gradingService.CGPA(profile.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("student_id", profile.ID).Msg("Failed to compute CGPA")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, StudentDashboard{
		Profile:              profile,
		OverallAttendancePct: attendance.OverallPercentage(summaries),
		CGPA:                 cgpa,
	})
}

// @Summary My attendance
// @Description Per-subject attendance totals for the logged-in student
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {array} attendance.SubjectSummary
// @Router /api/student/my-attendance [get]
func (s *Server) myAttendance(c *gin.Context) {
	profile, ok := s.studentProfileFor(c)
	if !ok {
		return
	}

	summaries, err := s.attendanceService.StudentSummary(profile.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("student_id", profile.ID).Msg("Failed to summarize attendance")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// @Summary My marks
// @Description Raw per-assessment marks for the logged-in student
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.StudentMark
// @Router /api/student/my-marks [get]
func (s *Server) myMarks(c *gin.Context) {
	profile, ok := s.studentProfileFor(c)
	if !ok {
		return
	}

	var marks []models.StudentMark
	if err := s.db.Preload("Assessment").Preload("Assessment.Allocation.Subject").
		Where("student_id = ?", profile.ID).
		Find(&marks).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list marks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, marks)
}

// @Summary My exam results
// @Description University results (SGPA per session) for the logged-in student
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ExamResult
// @Router /api/student/my-results [get]
func (s *Server) myResults(c *gin.Context) {
	profile, ok := s.studentProfileFor(c)
	if !ok {
		return
	}

	var results []models.ExamResult
	if err := s.db.Where("student_id = ?", profile.ID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list exam results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, results)
}

// @Summary My report card
// @Description Per-subject internal/external aggregation plus exam history
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ReportCard
// @Router /api/student/report-card [get]
func (s *Server) myReportCard(c *gin.Context) {
	profile, ok := s.studentProfileFor(c)
	if !ok {
		return
	}

	subjects, err := s.gradingService.ReportCard(profile.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("student_id", profile.ID).Msg("Failed to build report card")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	cgpa, err := s.gradingService.CGPA(profile.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("student_id", profile.ID).Msg("Failed to compute CGPA")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var examResults []models.ExamResult
	if err := s.db.Where("student_id = ?", profile.ID).
		Order("created_at ASC").
		Find(&examResults).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list exam results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, ReportCard{
		StudentName: profile.FullName(),
		PRN:         profile.PRN,
		Subjects:    subjects,
		CGPA:        cgpa,
		ExamResults: examResults,
	})
}

// @Summary My fees
// @Description The fee ledger entry of the logged-in student
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/student/my-fees [get]
func (s *Server) myFees(c *gin.Context) {
	profile, ok := s.studentProfileFor(c)
	if !ok {
		return
	}

	var record models.FeeRecord
	if err := s.db.Where("student_id = ?", profile.ID).First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fee record not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_fee":         record.TotalFee,
		"paid_amount":       record.PaidAmount,
		"balance":           record.Balance(),
		"status":            record.Status(),
		"last_payment_date": record.LastPaymentDate,
	})
}

// @Summary My resources
// @Description Study material for the subjects of the student's current year
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AcademicResource
// @Router /api/student/resources [get]
func (s *Server) listMyResources(c *gin.Context) {
	profile, ok := s.studentProfileFor(c)
	if !ok {
		return
	}

	// Resources are visible when the allocation's subject targets the
	// student's current year
	var resources []models.AcademicResource
	if err := s.db.Preload("Allocation.Subject").
		Joins("JOIN subject_allocations ON subject_allocations.id = academic_resources.allocation_id").
		Joins("JOIN subjects ON subjects.id = subject_allocations.subject_id").
		Where("subjects.year = ?", profile.CurrentYear).
		Order("academic_resources.created_at DESC").
		Find(&resources).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list resources")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resources)
}
