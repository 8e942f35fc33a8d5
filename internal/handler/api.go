package handler

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"qr-dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Handler handles HTTP requests
type Handler struct {
	dashboard *service.Dashboard
	logger    *zap.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(dashboard *service.Dashboard, logger *zap.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		logger:    logger,
	}
}

// RegisterRoutes installs the page template and the dashboard routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(dashboardTemplate)

	r.GET("/", h.Index)
	r.POST("/", h.Submit)

	r.NoRoute(h.NotFound)
}

type submitRequest struct {
	QR string `form:"qr" json:"qr"`
}

// Index renders the current state
func (h *Handler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, NewView(h.dashboard.Snapshot()))
}

// Submit classifies the posted QR code and renders the new state
func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.dashboard.Submit(c.Request.Context(), req.QR)
	switch {
	case errors.Is(err, service.ErrBlankQR):
		h.render(c, http.StatusOK, NewView(snapshot).blank())
		return
	case err != nil:
		h.logger.Warn("Submission abandoned while queued", zap.Error(err))
		view := NewView(snapshot).busy()
		view.QR = strings.TrimSpace(req.QR)
		h.render(c, http.StatusServiceUnavailable, view)
		return
	}

	view := NewView(snapshot)
	view.QR = strings.TrimSpace(req.QR)
	h.render(c, http.StatusOK, view)
}

// NotFound answers every route other than the dashboard
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "NOT_FOUND",
			"message": "route not found",
			"details": gin.H{"available_endpoints": []string{"GET /", "POST /"}},
		},
		"path":      c.Request.URL.Path,
		"method":    c.Request.Method,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) render(c *gin.Context, code int, view View) {
	c.Negotiate(code, gin.Negotiate{
		Offered:  []string{gin.MIMEHTML, gin.MIMEJSON},
		HTMLName: "dashboard.tmpl",
		HTMLData: view,
		JSONData: view,
	})
}
