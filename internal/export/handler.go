package export

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/response"
)

// Handler serves export downloads and archive uploads.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an export handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) request(c *gin.Context) (uuid.UUID, Format, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, "", false
	}
	f, err := ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return uuid.Nil, "", false
	}
	return id, f, true
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		h.logger.Error(op+" failed", zap.Error(err))
	}
	response.Error(c, err)
}

// Download handles GET /events/:id/export?format=csv|xlsx (admin only).
func (h *Handler) Download(c *gin.Context) {
	id, f, ok := h.request(c)
	if !ok {
		return
	}
	data, err := h.svc.Render(c.Request.Context(), id, f)
	if err != nil {
		h.fail(c, "export", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename()))
	c.Data(http.StatusOK, f.ContentType(), data)
}

// Archive handles POST /events/:id/export/archive?format=csv|xlsx (admin only).
func (h *Handler) Archive(c *gin.Context) {
	id, f, ok := h.request(c)
	if !ok {
		return
	}
	a, err := h.svc.Archive(c.Request.Context(), id, f)
	if errors.Is(err, ErrArchiveDisabled) {
		response.ServiceUnavailable(c, err.Error())
		return
	}
	if err != nil {
		h.fail(c, "archive export", err)
		return
	}
	response.Created(c, a)
}
