package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rush4n/SSSMS-Academic-Portal/internal/models"
	"github.com/rush4n/SSSMS-Academic-Portal/internal/storage"
)

// noticeTargetsFor maps a viewer role to the notice targets they can see.
func noticeTargetsFor(role models.Role) []models.NoticeTarget {
	switch role {
	case models.RoleFaculty:
		return []models.NoticeTarget{models.NoticeTargetAll, models.NoticeTargetFaculty}
	case models.RoleStudent:
		return []models.NoticeTarget{models.NoticeTargetAll, models.NoticeTargetStudent}
	default:
		// Admins see the whole board
		return nil
	}
}

// @Summary List notices
// @Description Notices targeted at the caller's role, newest first
// @Tags notices
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Notice
// @Router /api/notices [get]
func (s *Server) listNotices(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	query := s.db.Preload("PostedBy").Order("created_at DESC")
	if targets := noticeTargetsFor(sessionData.Role); targets != nil {
		query = query.Where("target_role IN ?", targets)
	}

	var notices []models.Notice
	if err := query.Find(&notices).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list notices")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, notices)
}

// @Summary Create notice
// @Description Posts a notice, optionally with a file attachment (multipart form)
// @Tags notices
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param content formData string false "Body text"
// @Param target_role formData string false "ALL, FACULTY or STUDENT (default ALL)"
// @Param attachment formData file false "Attachment"
// @Success 201 {object} models.Notice
// @Failure 400 {object} map[string]interface{}
// @Router /api/notices [post]
func (s *Server) createNotice(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	title := c.PostForm("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	target := models.NoticeTarget(c.DefaultPostForm("target_role", string(models.NoticeTargetAll)))
	switch target {
	case models.NoticeTargetAll, models.NoticeTargetFaculty, models.NoticeTargetStudent:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target must be ALL, FACULTY or STUDENT"})
		return
	}

	// Faculty may only address students or everyone
	if sessionData.Role == models.RoleFaculty && target == models.NoticeTargetFaculty {
		c.JSON(http.StatusForbidden, gin.H{"error": "Faculty cannot post faculty-only notices"})
		return
	}

	var storedName string
	if fileHeader, err := c.FormFile("attachment"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable attachment"})
			return
		}
		defer src.Close()

		storedName, err = s.storageService.Save(src, fileHeader.Filename)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to store attachment")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
			return
		}
	}

	notice := &models.Notice{
		Title:      title,
		Content:    c.PostForm("content"),
		Attachment: storedName,
		TargetRole: target,
		PostedByID: sessionData.UserID,
	}
	if err := s.db.Create(notice).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create notice")
		if storedName != "" {
			s.storageService.Remove(storedName)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notice"})
		return
	}

	s.logger.Info().
		Str("notice_id", notice.ID).
		Str("posted_by", sessionData.UserID).
		Str("target", string(target)).
		Msg("Notice posted")

	c.JSON(http.StatusCreated, notice)
}

// @Summary Delete notice
// @Description Admins delete any notice, faculty only their own
// @Tags notices
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/notices/{id} [delete]
func (s *Server) deleteNotice(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var notice models.Notice
	if err := models.FindByID(s.db, c.Param("id"), &notice); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notice not found"})
		return
	}

	if sessionData.Role != models.RoleAdmin && notice.PostedByID != sessionData.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Notice posted by someone else"})
		return
	}

	if err := s.db.Delete(&notice).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete notice")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notice"})
		return
	}

	if notice.Attachment != "" {
		if err := s.storageService.Remove(notice.Attachment); err != nil {
			s.logger.Warn().Err(err).Str("file", notice.Attachment).Msg("Failed to remove attachment")
		}
	}

	c.Status(http.StatusNoContent)
}

// @Summary Download notice attachment
// @Tags notices
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Router /api/notices/{id}/attachment [get]
func (s *Server) downloadNoticeAttachment(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var notice models.Notice
	if err := models.FindByID(s.db, c.Param("id"), &notice); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notice not found"})
		return
	}

	// The attachment is only visible where the notice itself is
	if targets := noticeTargetsFor(sessionData.Role); targets != nil {
		visible := false
		for _, t := range targets {
			if notice.TargetRole == t {
				visible = true
				break
			}
		}
		if !visible {
			c.JSON(http.StatusForbidden, gin.H{"error": "Notice not visible to your role"})
			return
		}
	}

	if notice.Attachment == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notice has no attachment"})
		return
	}

	path, err := s.storageService.Path(notice.Attachment)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attachment missing from storage"})
		return
	}

	c.FileAttachment(path, storage.DisplayName(notice.Attachment))
}
