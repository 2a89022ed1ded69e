package handler

import (
	"context"
	"net/http"
	"time"

	"estatebot/internal/model"
	"estatebot/internal/service"

	"github.com/gin-gonic/gin"
)

// Asker answers a chat message
type Asker interface {
	Ask(ctx context.Context, msg string, category model.Category) service.Answer
}

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	asker Asker
}

// NewChatHandler creates a new chat handler
func NewChatHandler(asker Asker) *ChatHandler {
	return &ChatHandler{
		asker: asker,
	}
}

// Get handles POST /get with a "msg" form field and answers in plain text
func (h *ChatHandler) Get(c *gin.Context) {
	msg, ok := c.GetPostForm("msg")
	if !ok {
		c.String(http.StatusBadRequest, "Bad Request: missing form field 'msg'")
		return
	}

	answer := h.asker.Ask(c.Request.Context(), msg, model.CategoryNone)
	c.String(http.StatusOK, answer.Text())
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	startTime := time.Now()

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	category, err := model.ParseCategoryName(req.Category)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer := h.asker.Ask(c.Request.Context(), req.Message, category)

	response := model.ChatResponse{
		Listings:     answer.Listings,
		Buildings:    answer.Buildings,
		Amenities:    answer.Amenities,
		RelevantData: answer.RelevantData,
		Category:     answer.Query.Category.String(),
		UsedFallback: answer.UsedFallback,
		Reply:        answer.Reply,
		Took:         time.Since(startTime).Milliseconds(),
	}
	if answer.FallbackResult != nil {
		response.FallbackStatus = answer.FallbackResult.Status.String()
	}

	c.JSON(http.StatusOK, response)
}
