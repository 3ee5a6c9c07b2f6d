package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/service"
)

// Handler handles answer composition requests
type Handler struct {
	answerService *service.AnswerService
}

// NewHandler creates a new answer handler
func NewHandler(answerService *service.AnswerService) *Handler {
	return &Handler{answerService: answerService}
}

// RegisterRoutes registers answer routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/answers", h.Compose)
	r.POST("/answers/stream", h.ComposeStream)
	r.GET("/sessions/:id/messages", h.History)
}

// Compose composes an upstream answer
func (h *Handler) Compose(c *gin.Context) {
	var req domain.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.answerService.Compose(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ComposeStream composes an upstream answer and streams it (SSE)
func (h *Handler) ComposeStream(c *gin.Context) {
	var req domain.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	stream, err := h.answerService.ComposeStream(c.Request.Context(), &req)
	if err != nil {
		chunk := domain.StreamChunk{Type: domain.ChunkTypeError, Content: err.Error()}
		var failure *domain.UpstreamFailureError
		if errors.As(err, &failure) {
			chunk.Reasons = failure.Reasons
		}
		writeSSE(c.Writer, chunk)
		c.Writer.Flush()
		return
	}

	// c.Stream stops when the client goes away; the emitter sees the same
	// request context and closes the channel
	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-stream
		if !ok {
			return false
		}
		writeSSE(w, chunk)
		return chunk.Type != domain.ChunkTypeDone
	})
}

// History returns the messages of a session
func (h *Handler) History(c *gin.Context) {
	messages, err := h.answerService.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func writeError(c *gin.Context, err error) {
	var failure *domain.UpstreamFailureError
	switch {
	case errors.As(err, &failure):
		reasons := failure.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "reasons": reasons})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// writeSSE writes one frame; JSON encoding escapes quotes and newlines
// in the payload
func writeSSE(w io.Writer, chunk domain.StreamChunk) {
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", chunk.Type, data)
}
