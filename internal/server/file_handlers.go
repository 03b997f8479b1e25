package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/storage"
)

func parseYearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 || year > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year must be between 1 and 5"})
		return 0, false
	}
	return year, true
}

// saveUploadedFile stores the multipart "file" field and returns the stored name
func (s *Server) saveUploadedFile(c *gin.Context) (string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return "", false
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return "", false
	}
	defer src.Close()

	storedName, err := s.storageService.Save(src, fileHeader.Filename)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to store file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return "", false
	}
	return storedName, true
}

// upsertYearMetadata stores per-year shared documents, replacing any
// previous file for the same slot
func (s *Server) upsertYearMetadata(c *gin.Context, year int, update func(*models.YearMetadata, string) string) {
	storedName, ok := s.saveUploadedFile(c)
	if !ok {
		return
	}

	var meta models.YearMetadata
	err := s.db.Where("year = ?", year).First(&meta).Error
	if err != nil {
		meta = models.YearMetadata{Year: year}
	}

	previous := update(&meta, storedName)

	if err := s.db.Save(&meta).Error; err != nil {
		s.logger.Error().Err(err).Int("year", year).Msg("Failed to save year metadata")
		s.storageService.Remove(storedName)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	if previous != "" && previous != storedName {
		if err := s.storageService.Remove(previous); err != nil {
			s.logger.Warn().Err(err).Str("file", previous).Msg("Failed to remove replaced file")
		}
	}

	c.JSON(http.StatusOK, meta)
}

// @Summary Upload timetable
// @Description Stores the class timetable document for an academic year
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param year path int true "Academic year (1-5)"
// @Param file formData file true "Timetable document"
// @Success 200 {object} models.YearMetadata
// @Router /api/admin/timetable/{year} [post]
func (s *Server) uploadTimetable(c *gin.Context) {
	year, ok := parseYearParam(c)
	if !ok {
		return
	}

	s.upsertYearMetadata(c, year, func(meta *models.YearMetadata, stored string) string {
		previous := meta.TimetableFile
		meta.TimetableFile = stored
		return previous
	})
}

// @Summary Upload exam schedule
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param year path int true "Academic year (1-5)"
// @Param file formData file true "Exam schedule document"
// @Success 200 {object} models.YearMetadata
// @Router /api/admin/exams/schedule/{year} [post]
func (s *Server) uploadExamSchedule(c *gin.Context) {
	year, ok := parseYearParam(c)
	if !ok {
		return
	}

	s.upsertYearMetadata(c, year, func(meta *models.YearMetadata, stored string) string {
		previous := meta.ExamScheduleFile
		meta.ExamScheduleFile = stored
		return previous
	})
}

func (s *Server) serveYearFile(c *gin.Context, pick func(*models.YearMetadata) string) {
	year, ok := parseYearParam(c)
	if !ok {
		return
	}

	var meta models.YearMetadata
	if err := s.db.Where("year = ?", year).First(&meta).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nothing uploaded for this year"})
		return
	}

	storedName := pick(&meta)
	if storedName == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Nothing uploaded for this year"})
		return
	}

	path, err := s.storageService.Path(storedName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File missing from storage"})
		return
	}

	c.FileAttachment(path, storage.DisplayName(storedName))
}

// @Summary Download timetable
// @Tags files
// @Security BearerAuth
// @Param year path int true "Academic year (1-5)"
// @Router /api/timetable/{year} [get]
func (s *Server) getTimetable(c *gin.Context) {
	s.serveYearFile(c, func(meta *models.YearMetadata) string { return meta.TimetableFile })
}

// @Summary Download exam schedule
// @Tags files
// @Security BearerAuth
// @Param year path int true "Academic year (1-5)"
// @Router /api/exams/schedule/{year} [get]
func (s *Server) getExamSchedule(c *gin.Context) {
	s.serveYearFile(c, func(meta *models.YearMetadata) string { return meta.ExamScheduleFile })
}

// @Summary Upload academic resource
// @Description Attaches study material to an allocation
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Allocation ID"
// @Param title formData string true "Resource title"
// @Param file formData file true "Document"
// @Success 201 {object} models.AcademicResource
// @Router /api/faculty/allocations/{id}/resources [post]
func (s *Server) uploadResource(c *gin.Context) {
	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}

	allocationID := c.Param("id")
	if !s.ownsAllocation(c, allocationID, profile) {
		return
	}

	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	defer src.Close()

	storedName, err := s.storageService.Save(src, fileHeader.Filename)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to store resource")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store resource"})
		return
	}

	resource := &models.AcademicResource{
		AllocationID: allocationID,
		Title:        title,
		FileName:     storedName,
		ContentType:  fileHeader.Header.Get("Content-Type"),
	}
	if err := s.db.Create(resource).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create resource")
		s.storageService.Remove(storedName)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create resource"})
		return
	}

	s.logger.Info().
		Str("resource_id", resource.ID).
		Str("allocation_id", allocationID).
		Msg("Resource uploaded")

	c.JSON(http.StatusCreated, resource)
}

// @Summary Delete academic resource
// @Tags files
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/faculty/resources/{id} [delete]
func (s *Server) deleteResource(c *gin.Context) {
	profile, ok := s.facultyProfileFor(c)
	if !ok {
		return
	}

	var resource models.AcademicResource
	if err := models.FindByID(s.db, c.Param("id"), &resource); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}

	if !s.ownsAllocation(c, resource.AllocationID, profile) {
		return
	}

	if err := s.db.Delete(&resource).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete resource")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete resource"})
		return
	}

	if err := s.storageService.Remove(resource.FileName); err != nil {
		s.logger.Warn().Err(err).Str("file", resource.FileName).Msg("Failed to remove resource file")
	}

	c.Status(http.StatusNoContent)
}

// @Summary Download academic resource
// @Description Students may only fetch resources aimed at their current year
// @Tags files
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Router /api/resources/{id}/download [get]
func (s *Server) downloadResource(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var resource models.AcademicResource
	if err := models.FindByIDWithPreload(s.db, c.Param("id"), &resource, "Allocation.Subject"); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return
	}

	if sessionData.Role == models.RoleStudent {
		var profile models.StudentProfile
		if err := s.db.Where("user_id = ?", sessionData.UserID).First(&profile).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student profile not found"})
			return
		}
		if resource.Allocation == nil || resource.Allocation.Subject == nil ||
			resource.Allocation.Subject.Year != profile.CurrentYear {
			c.JSON(http.StatusForbidden, gin.H{"error": "Resource not available for your year"})
			return
		}
	}

	path, err := s.storageService.Path(resource.FileName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File missing from storage"})
		return
	}

	c.FileAttachment(path, storage.DisplayName(resource.FileName))
}
