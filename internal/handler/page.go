package handler

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed web/*.html
var templatesFS embed.FS

// LoadTemplates registers the embedded page templates on router
func LoadTemplates(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "web/*.html")))
}

// PageHandler serves the chat page
type PageHandler struct {
	title string
}

// NewPageHandler creates a new page handler
func NewPageHandler(title string) *PageHandler {
	return &PageHandler{title: title}
}

// Index handles GET /
func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": h.title})
}

// NotFound answers unknown API paths with JSON and everything else with the chat page
func (h *PageHandler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api") {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
		return
	}
	h.Index(c)
}
