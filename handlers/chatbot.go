package handlers

import (
	"net/http"

	"finlit-api/chatbot"
	"finlit-api/middleware"
	"finlit-api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	chatHistoryLimit = 50
	// How many prior interactions are replayed to the model as context.
	chatContextDepth = 5
)

type AskInput struct {
	Query string `json:"query" binding:"required"`
}

type FeedbackInput struct {
	Feedback int `json:"feedback" binding:"required,min=1,max=5"`
}

// AskChatbot relays the caller's query to the completion service and
// persists the interaction. The relay never fails, so the only error
// path here is the store.
func (h *Handler) AskChatbot(c *gin.Context) {
	var input AskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	// Replay the last few interactions, oldest first, so the model
	// keeps conversational context.
	var recent []models.ChatInteraction
	h.DB.Where("user_id = ?", userID).
		Order("interaction_at desc").
		Limit(chatContextDepth).
		Find(&recent)

	history := make([]chatbot.Message, 0, len(recent)*2)
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history,
			chatbot.Message{Role: "user", Content: recent[i].Query},
			chatbot.Message{Role: "assistant", Content: recent[i].Response},
		)
	}

	answer := h.Relay.Ask(c.Request.Context(), input.Query, history)

	interaction := models.ChatInteraction{
		UserID:   userID,
		Query:    input.Query,
		Response: answer,
	}
	if err := h.DB.Create(&interaction).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chatbot interaction failed"})
		return
	}

	c.JSON(http.StatusCreated, interaction)
}

// ChatbotFeedback records a 1-5 score against one of the caller's own
// interactions. A score can only be set once.
func (h *Handler) ChatbotFeedback(c *gin.Context) {
	interactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid interaction id"})
		return
	}

	var input FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var interaction models.ChatInteraction
	if err := h.DB.First(&interaction, "id = ?", interactionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interaction not found"})
		return
	}
	if interaction.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to rate this interaction"})
		return
	}
	if interaction.Feedback != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Feedback already recorded"})
		return
	}

	if err := h.DB.Model(&interaction).Update("feedback", input.Feedback).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
		return
	}
	c.JSON(http.StatusOK, interaction)
}

// ChatbotHistory lists the caller's 50 most recent interactions,
// newest first.
func (h *Handler) ChatbotHistory(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var interactions []models.ChatInteraction
	if err := h.DB.
		Where("user_id = ?", userID).
		Order("interaction_at desc").
		Limit(chatHistoryLimit).
		Find(&interactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, interactions)
}
