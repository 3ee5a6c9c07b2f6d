package document

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/liliang-cn/askcite/internal/service"
)

// Handler serves document page links to the citation resolver
type Handler struct {
	documentService *service.DocumentService
}

// NewHandler creates a new document handler
func NewHandler(documentService *service.DocumentService) *Handler {
	return &Handler{documentService: documentService}
}

// RegisterRoutes registers public document routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/documents/:id/link", h.GetLink)
}

// GetLink returns the deep link of a document page
func (h *Handler) GetLink(c *gin.Context) {
	page := 0
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		page = n
	}

	link, err := h.documentService.PageLink(c.Request.Context(), c.Param("id"), page)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, link)
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
