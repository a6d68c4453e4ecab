package handlers

import (
	"net/http"
	"time"

	"finlit-api/middleware"
	"finlit-api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WebinarInput struct {
	InstructorID    uuid.UUID `json:"instructor_id" binding:"required"`
	Topic           string    `json:"topic" binding:"required"`
	Description     string    `json:"description"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
	RecordingURL    string    `json:"recording_url"`
}

// ListWebinars returns all webinars, newest scheduled first.
func (h *Handler) ListWebinars(c *gin.Context) {
	var webinars []models.Webinar
	if err := h.DB.Order("scheduled_at desc").Find(&webinars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch webinars"})
		return
	}
	c.JSON(http.StatusOK, webinars)
}

// CreateWebinar schedules a webinar. Instructors can only schedule for
// themselves; the role gate upstream already excludes students.
func (h *Handler) CreateWebinar(c *gin.Context) {
	var input WebinarInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if input.InstructorID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot create webinar for another instructor"})
		return
	}

	if input.DurationMinutes <= 0 {
		input.DurationMinutes = 60
	}

	webinar := models.Webinar{
		InstructorID:    input.InstructorID,
		Topic:           input.Topic,
		Description:     input.Description,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: input.DurationMinutes,
		RecordingURL:    input.RecordingURL,
	}
	if err := h.DB.Create(&webinar).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webinar creation failed"})
		return
	}
	c.JSON(http.StatusCreated, webinar)
}
