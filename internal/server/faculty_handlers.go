package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/attendance"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/grading"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/tasks"
)

// MarkAttendanceRequest records one session for an allocation
type MarkAttendanceRequest struct {
	AllocationID string             `json:"allocation_id" binding:"required"`
	Date         string             `json:"date" binding:"required"` // YYYY-MM-DD
	Entries      []attendance.Entry `json:"entries" binding:"required,min=1"`
}

// CreateAssessmentRequest records an assessment and its marks in one shot
type CreateAssessmentRequest struct {
	AllocationID string              `json:"allocation_id" binding:"required"`
	Title        string              `json:"title" binding:"required"`
	Type         models.ExamType     `json:"type" binding:"required,oneof=UNIT_TEST_1 UNIT_TEST_2 UNIT_TEST_3 ASSIGNMENT THEORY_ESE"`
	MaxMarks     float64             `json:"max_marks" binding:"required,gt=0"`
	Marks        []grading.MarkEntry `json:"marks" binding:"required,min=1"`
}

// ExportRequestedResponse acknowledges a queued report export
type ExportRequestedResponse struct {
	FileName string `json:"file_name"`
	Status   string `json:"status"`
}

// facultyProfileFor resolves the faculty profile of the logged-in user.
// Admins have no profile, so allocation ownership checks are skipped for them.
func (s *Server) facultyProfileFor(c *gin.Context) (*models.FacultyProfile, bool) {
	sessionData, _ := GetSessionData(c)
	if sessionData.Role == models.RoleAdmin {
		return nil, true
	}

	var profile models.FacultyProfile
	if err := s.db.Where("user_id = ?", sessionData.UserID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Faculty profile not found"})
		return nil, false
	}
	return &profile, true
}

// ownsAllocation verifies the allocation exists and belongs to the caller.
// A nil profile means an admin, who may touch any allocation.
func (s *Server) ownsAllocation(c *gin.Context, allocationID string, profile *models.FacultyProfile) bool {
	var allocation models.SubjectAllocation
	if err := models.FindByID(s.db, allocationID, &allocation); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Allocation not found"})
		return false
	}
	if profile != nil && allocation.FacultyID != profile.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Allocation belongs to another faculty member"})
		return false
	}
	return true
}

// @Summary List my subjects
// @Description Lists the subject allocations of the logged-in faculty member
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.SubjectAllocation
// @Router /api/faculty/my-subjects [get]
func (s *Server) listMySubjects(c *gin.Context) {
	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}

	query := s.db.Preload("Subject")
	if profile != nil {
		query = query.Where("faculty_id = ?", profile.ID)
	}

	var allocations []models.SubjectAllocation
	if err := query.Find(&allocations).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list allocations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, allocations)
}

// @Summary List allocation students
// @Description Lists the students in the year an allocation's subject targets
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Success 200 {array} models.StudentProfile
// @Router /api/faculty/allocations/{id}/students [get]
func (s *Server) listAllocationStudents(c *gin.Context) {
	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}

	allocationID := c.Param("id")
	if !s.ownsAllocation(c, allocationID, profile) {
		return
	}

	students, err := s.attendanceService.StudentsForAllocation(allocationID)
	if err != nil {
		s.logger.Error().Err(err).Str("allocation_id", allocationID).Msg("Failed to list students")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, students)
}

// @Summary Mark attendance
// @Description Records one attendance session for an allocation
// @Tags faculty
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MarkAttendanceRequest true "Attendance session"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/faculty/attendance [post]
func (s *Server) markAttendance(c *gin.Context) {
	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}
	if !s.ownsAllocation(c, req.AllocationID, profile) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	for _, entry := range req.Entries {
		if entry.Status != models.AttendancePresent && entry.Status != models.AttendanceAbsent {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be PRESENT or ABSENT"})
			return
		}
	}

	if err := s.attendanceService.Mark(req.AllocationID, date, req.Entries); err != nil {
		s.logger.Error().Err(err).Str("allocation_id", req.AllocationID).Msg("Failed to mark attendance")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark attendance"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"allocation_id": req.AllocationID,
		"date":          req.Date,
		"marked":        len(req.Entries),
	})
}

func parseReportRange(c *gin.Context) (start, end *time.Time, err error) {
	if v := c.Query("start"); v != "" {
		t, perr := time.Parse("2006-01-02", v)
		if perr != nil {
			return nil, nil, perr
		}
		start = &t
	}
	if v := c.Query("end"); v != "" {
		t, perr := time.Parse("2006-01-02", v)
		if perr != nil {
			return nil, nil, perr
		}
		end = &t
	}
	return start, end, nil
}

// @Summary Attendance report
// @Description Per-student attendance percentages for an allocation
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} attendance.Report
// @Router /api/faculty/allocations/{id}/attendance-report [get]
func (s *Server) attendanceReport(c *gin.Context) {
	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}

	allocationID := c.Param("id")
	if !s.ownsAllocation(c, allocationID, profile) {
		return
	}

	start, end, err := parseReportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range, expected YYYY-MM-DD"})
		return
	}

	report, err := s.attendanceService.Report(allocationID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Str("allocation_id", allocationID).Msg("Failed to build report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// @Summary Attendance report CSV
// @Description Streams the attendance report as a CSV download
// @Tags faculty
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Router /api/faculty/allocations/{id}/attendance-report/csv [get]
func (s *Server) attendanceReportCSV(c *gin.Context) {
	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}

	allocationID := c.Param("id")
	if !s.ownsAllocation(c, allocationID, profile) {
		return
	}

	start, end, err := parseReportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range, expected YYYY-MM-DD"})
		return
	}

	report, err := s.attendanceService.Report(allocationID, start, end)
	if err != nil {
		s.logger.Error().Err(err).Str("allocation_id", allocationID).Msg("Failed to build report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	fileName := fmt.Sprintf("attendance-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Header("Content-Type", "text/csv")

	if err := attendance.WriteCSV(c.Writer, report); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write CSV")
	}
}

// @Summary Export attendance report
// @Description Queues a background CSV export of the attendance report
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end (YYYY-MM-DD)"
// @Success 202 {object} ExportRequestedResponse
// @Router /api/faculty/allocations/{id}/attendance-report/export [post]
func (s *Server) exportAttendanceReport(c *gin.Context) {
	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}

	allocationID := c.Param("id")
	if !s.ownsAllocation(c, allocationID, profile) {
		return
	}

	if _, _, err := parseReportRange(c); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range, expected YYYY-MM-DD"})
		return
	}

	fileName := fmt.Sprintf("%s_attendance-export.csv", uuid.New().String())
	task, err := tasks.NewAttendanceExportTask(allocationID, c.Query("start"), c.Query("end"), fileName)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create export task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue export"})
		return
	}

	if _, err := s.asynqClient.Enqueue(task); err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue export task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue export"})
		return
	}

	s.logger.Info().
		Str("allocation_id", allocationID).
		Str("file_name", fileName).
		Msg("Attendance export queued")

	c.JSON(http.StatusAccepted, ExportRequestedResponse{
		FileName: fileName,
		Status:   "queued",
	})
}

// @Summary Create assessment
// @Description Records an assessment with its per-student marks
// @Tags faculty
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAssessmentRequest true "Assessment"
// @Success 201 {object} models.Assessment
// @Failure 400 {object} map[string]interface{}
// @Router /api/faculty/assessments [post]
func (s *Server) createAssessment(c *gin.Context) {
	var req CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}
	if !s.ownsAllocation(c, req.AllocationID, profile) {
		return
	}

	for _, mark := range req.Marks {
		if mark.Marks < 0 || mark.Marks > req.MaxMarks {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Marks must be between 0 and max marks"})
			return
		}
	}

	assessment, err := s.gradingService.CreateAssessment(req.AllocationID, req.Title, req.Type, req.MaxMarks, req.Marks)
	if err != nil {
		s.logger.Error().Err(err).Str("allocation_id", req.AllocationID).Msg("Failed to create assessment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create assessment"})
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// @Summary List allocation assessments
// @Tags faculty
// @Produce json
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Success 200 {array} models.Assessment
// @Router /api/faculty/allocations/{id}/assessments [get]
func (s *Server) listAllocationAssessments(c *gin.Context) {
	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}

	allocationID := c.Param("id")
	if !s.ownsAllocation(c, allocationID, profile) {
		return
	}

	var assessments []models.Assessment
	if err := s.db.Preload("Marks").
		Where("allocation_id = ?", allocationID).
		Order("date DESC, created_at DESC").
		Find(&assessments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list assessments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, assessments)
}
