package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/auth"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
)

// EnrollStudentRequest creates a student account with its profile
type EnrollStudentRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	PRN         string  `json:"prn" binding:"required"`
	FirstName   string  `json:"first_name" binding:"required"`
	MiddleName  string  `json:"middle_name"`
	LastName    string  `json:"last_name"`
	DOB         string  `json:"dob"` // YYYY-MM-DD
	PhoneNumber string  `json:"phone_number"`
	Address     string  `json:"address"`
	Department  string  `json:"department"`
	CurrentYear int     `json:"current_year" binding:"required,min=1,max=5"`
	TotalFee    float64 `json:"total_fee"` // 0 means the configured default
}

// EnrollFacultyRequest creates a faculty account with its profile
type EnrollFacultyRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name"`
	Designation   string `json:"designation"`
	Department    string `json:"department"`
	Qualification string `json:"qualification"`
	PhoneNumber   string `json:"phone_number"`
	JoiningDate   string `json:"joining_date"` // YYYY-MM-DD
}

// UpdateStudentRequest updates mutable profile fields
type UpdateStudentRequest struct {
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Department  *string `json:"department"`
	CurrentYear *int    `json:"current_year"`
	IsActive    *bool   `json:"is_active"`
}

// SubjectRequest creates or updates a subject
type SubjectRequest struct {
	Name       string `json:"name" binding:"required"`
	Code       string `json:"code" binding:"required"`
	Department string `json:"department"`
	Year       int    `json:"year" binding:"required,min=1,max=5"`
	Semester   int    `json:"semester" binding:"required,min=1,max=10"`
}

// AllocationRequest assigns a subject to a faculty member
type AllocationRequest struct {
	FacultyID string `json:"faculty_id" binding:"required"`
	SubjectID string `json:"subject_id" binding:"required"`
}

// ExamResultRequest publishes a university result for a student
type ExamResultRequest struct {
	StudentID   string  `json:"student_id" binding:"required"`
	SGPA        float64 `json:"sgpa" binding:"required,min=0,max=10"`
	Status      string  `json:"status" binding:"required,oneof=PASS FAIL ATKT"`
	ExamSession string  `json:"exam_session" binding:"required"`
	ResultDate  string  `json:"result_date"` // YYYY-MM-DD
}

func parseDateField(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// @Summary Enroll student
// @Description Creates a student account, profile and fee record
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EnrollStudentRequest true "Enrollment request"
// @Success 201 {object} models.StudentProfile
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/students [post]
func (s *Server) enrollStudent(c *gin.Context) {
	var req EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.validator.Var(req.PRN, "prn"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PRN must be uppercase alphanumeric"})
		return
	}

	dob, err := parseDateField(req.DOB)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date of birth, expected YYYY-MM-DD"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll student"})
		return
	}

	totalFee := req.TotalFee
	if totalFee <= 0 {
		var portalConfig models.Config
		if err := s.db.First(&portalConfig).Error; err == nil {
			totalFee = portalConfig.DefaultTotalFee
		} else {
			totalFee = models.DefaultTotalFee
		}
	}

	var profile *models.StudentProfile
	err = s.db.Transaction(func(tx *gorm.DB) error {
		user := &models.User{
			Email:        req.Email,
			PasswordHash: passwordHash,
			Role:         models.RoleStudent,
			IsActive:     true,
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		profile = &models.StudentProfile{
			UserID:      user.ID,
			PRN:         req.PRN,
			FirstName:   req.FirstName,
			MiddleName:  req.MiddleName,
			LastName:    req.LastName,
			DOB:         dob,
			PhoneNumber: req.PhoneNumber,
			Address:     req.Address,
			Department:  req.Department,
			CurrentYear: req.CurrentYear,
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		fee := &models.FeeRecord{
			StudentID: profile.ID,
			TotalFee:  totalFee,
		}
		return tx.Create(fee).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("prn", req.PRN).Msg("Failed to enroll student")
		c.JSON(http.StatusConflict, gin.H{"error": "Email or PRN already in use"})
		return
	}

	s.logger.Info().Str("student_id", profile.ID).Str("prn", profile.PRN).Msg("Student enrolled")

	c.JSON(http.StatusCreated, profile)
}

// @Summary List students
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.StudentProfile
// @Router /api/admin/students [get]
func (s *Server) listStudents(c *gin.Context) {
	query := s.db.Preload("User").Order("prn ASC")
	if year := c.Query("year"); year != "" {
		query = query.Where("current_year = ?", year)
	}
	if dept := c.Query("department"); dept != "" {
		query = query.Where("department = ?", dept)
	}

	var students []models.StudentProfile
	if err := query.Find(&students).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list students")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, students)
}

// @Summary Update student
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student profile ID"
// @Param request body UpdateStudentRequest true "Update request"
// @Success 200 {object} models.StudentProfile
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/students/{id} [put]
func (s *Server) updateStudent(c *gin.Context) {
	var req UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var profile models.StudentProfile
	if err := models.FindByID(s.db, c.Param("id"), &profile); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	if req.PhoneNumber != nil {
		profile.PhoneNumber = *req.PhoneNumber
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}
	if req.Department != nil {
		profile.Department = *req.Department
	}
	if req.CurrentYear != nil {
		if *req.CurrentYear < 1 || *req.CurrentYear > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Year must be between 1 and 5"})
			return
		}
		profile.CurrentYear = *req.CurrentYear
	}

	if err := s.db.Save(&profile).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update student")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student"})
		return
	}

	if req.IsActive != nil {
		if err := s.db.Model(&models.User{}).
			Where("id = ?", profile.UserID).
			Update("is_active", *req.IsActive).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to update account status")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student"})
			return
		}
	}

	c.JSON(http.StatusOK, profile)
}

// @Summary Delete student
// @Description Removes the student account and every dependent record
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Student profile ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/students/{id} [delete]
func (s *Server) deleteStudent(c *gin.Context) {
	var profile models.StudentProfile
	if err := models.FindByID(s.db, c.Param("id"), &profile); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	// Deleting the user cascades to the profile and its dependents
	if err := s.db.Where("id = ?", profile.UserID).Delete(&models.User{}).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete student")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete student"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("student_id", profile.ID).
		Str("deleted_by", sessionData.UserID).
		Msg("Student deleted")

	c.Status(http.StatusNoContent)
}

// @Summary Enroll faculty
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EnrollFacultyRequest true "Enrollment request"
// @Success 201 {object} models.FacultyProfile
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/faculty [post]
func (s *Server) enrollFaculty(c *gin.Context) {
	var req EnrollFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	joiningDate, err := parseDateField(req.JoiningDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid joining date, expected YYYY-MM-DD"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll faculty"})
		return
	}

	var profile *models.FacultyProfile
	err = s.db.Transaction(func(tx *gorm.DB) error {
		user := &models.User{
			Email:        req.Email,
			PasswordHash: passwordHash,
			Role:         models.RoleFaculty,
			IsActive:     true,
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		profile = &models.FacultyProfile{
			UserID:        user.ID,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Designation:   req.Designation,
			Department:    req.Department,
			Qualification: req.Qualification,
			PhoneNumber:   req.PhoneNumber,
			JoiningDate:   joiningDate,
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to enroll faculty")
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
		return
	}

	s.logger.Info().Str("faculty_id", profile.ID).Msg("Faculty member enrolled")

	c.JSON(http.StatusCreated, profile)
}

// @Summary List faculty
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FacultyProfile
// @Router /api/admin/faculty [get]
func (s *Server) listFaculty(c *gin.Context) {
	var faculty []models.FacultyProfile
	if err := s.db.Preload("User").Order("first_name ASC").Find(&faculty).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list faculty")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, faculty)
}

// @Summary Delete faculty
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Faculty profile ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/faculty/{id} [delete]
func (s *Server) deleteFaculty(c *gin.Context) {
	var profile models.FacultyProfile
	if err := models.FindByID(s.db, c.Param("id"), &profile); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Faculty member not found"})
		return
	}

	if err := s.db.Where("id = ?", profile.UserID).Delete(&models.User{}).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete faculty")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete faculty"})
		return
	}

	s.logger.Info().Str("faculty_id", profile.ID).Msg("Faculty member deleted")

	c.Status(http.StatusNoContent)
}

// @Summary Create subject
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubjectRequest true "Subject"
// @Success 201 {object} models.Subject
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/subjects [post]
func (s *Server) createSubject(c *gin.Context) {
	var req SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subject := &models.Subject{
		Name:       req.Name,
		Code:       req.Code,
		Department: req.Department,
		Year:       req.Year,
		Semester:   req.Semester,
	}
	if err := s.db.Create(subject).Error; err != nil {
		s.logger.Error().Err(err).Str("code", req.Code).Msg("Failed to create subject")
		c.JSON(http.StatusConflict, gin.H{"error": "Subject code already exists"})
		return
	}

	c.JSON(http.StatusCreated, subject)
}

// @Summary List subjects
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Subject
// @Router /api/admin/subjects [get]
func (s *Server) listSubjects(c *gin.Context) {
	query := s.db.Order("year ASC, semester ASC, code ASC")
	if year := c.Query("year"); year != "" {
		query = query.Where("year = ?", year)
	}

	var subjects []models.Subject
	if err := query.Find(&subjects).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list subjects")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, subjects)
}

// @Summary Update subject
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Param request body SubjectRequest true "Subject"
// @Success 200 {object} models.Subject
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/subjects/{id} [put]
func (s *Server) updateSubject(c *gin.Context) {
	var req SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var subject models.Subject
	if err := models.FindByID(s.db, c.Param("id"), &subject); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	subject.Name = req.Name
	subject.Code = req.Code
	subject.Department = req.Department
	subject.Year = req.Year
	subject.Semester = req.Semester

	if err := s.db.Save(&subject).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update subject")
		c.JSON(http.StatusConflict, gin.H{"error": "Subject code already exists"})
		return
	}

	c.JSON(http.StatusOK, subject)
}

// @Summary Delete subject
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/subjects/{id} [delete]
func (s *Server) deleteSubject(c *gin.Context) {
	var subject models.Subject
	if err := models.FindByID(s.db, c.Param("id"), &subject); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	if err := s.db.Delete(&subject).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete subject")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete subject"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Allocate subject to faculty
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AllocationRequest true "Allocation"
// @Success 201 {object} models.SubjectAllocation
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/allocations [post]
func (s *Server) createAllocation(c *gin.Context) {
	var req AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var faculty models.FacultyProfile
	if err := models.FindByID(s.db, req.FacultyID, &faculty); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Faculty member not found"})
		return
	}
	var subject models.Subject
	if err := models.FindByID(s.db, req.SubjectID, &subject); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	allocation := &models.SubjectAllocation{
		FacultyID: req.FacultyID,
		SubjectID: req.SubjectID,
	}
	if err := s.db.Create(allocation).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Subject already allocated to this faculty member"})
		return
	}

	s.logger.Info().
		Str("allocation_id", allocation.ID).
		Str("faculty_id", req.FacultyID).
		Str("subject_id", req.SubjectID).
		Msg("Subject allocated")

	c.JSON(http.StatusCreated, allocation)
}

// @Summary List allocations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.SubjectAllocation
// @Router /api/admin/allocations [get]
func (s *Server) listAllocations(c *gin.Context) {
	var allocations []models.SubjectAllocation
	if err := s.db.Preload("Faculty").Preload("Subject").
		Order("created_at DESC").Find(&allocations).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list allocations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, allocations)
}

// @Summary Delete allocation
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/admin/allocations/{id} [delete]
func (s *Server) deleteAllocation(c *gin.Context) {
	var allocation models.SubjectAllocation
	if err := models.FindByID(s.db, c.Param("id"), &allocation); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Allocation not found"})
		return
	}

	if err := s.db.Delete(&allocation).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete allocation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete allocation"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Publish exam result
// @Description Records a university SGPA result for a student
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExamResultRequest true "Exam result"
// @Success 201 {object} models.ExamResult
// @Failure 400 {object} map[string]interface{}
// @Router /api/admin/exam-results [post]
func (s *Server) publishExamResult(c *gin.Context) {
	var req ExamResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var student models.StudentProfile
	if err := models.FindByID(s.db, req.StudentID, &student); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}

	resultDate, err := parseDateField(req.ResultDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid result date, expected YYYY-MM-DD"})
		return
	}

	result := &models.ExamResult{
		StudentID:   req.StudentID,
		SGPA:        req.SGPA,
		Status:      req.Status,
		ExamSession: req.ExamSession,
		ResultDate:  resultDate,
	}
	if err := s.db.Create(result).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish exam result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish exam result"})
		return
	}

	c.JSON(http.StatusCreated, result)
}
