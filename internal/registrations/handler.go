package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/response"
)

// AnswersRequest is the body for POST and PUT /events/:id/registration.
type AnswersRequest struct {
	Answers []models.Answer `json:"answers"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registration handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		h.logger.Error(op+" failed", zap.Error(err))
	}
	response.Error(c, err)
}

func parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

// self resolves the event id and the caller for /events/:id/registration routes.
func self(c *gin.Context) (eventID, userID uuid.UUID, ok bool) {
	if eventID, ok = parseID(c, "id", "event"); !ok {
		return
	}
	if userID, ok = middleware.UserID(c); !ok {
		response.Unauthorized(c, "missing user context")
	}
	return
}

// Get handles GET /events/:id/registration.
func (h *Handler) Get(c *gin.Context) {
	eventID, userID, ok := self(c)
	if !ok {
		return
	}
	reg, err := h.svc.Get(c.Request.Context(), eventID, userID)
	if err != nil {
		h.fail(c, "get registration", err)
		return
	}
	response.OK(c, reg)
}

// Create handles POST /events/:id/registration.
func (h *Handler) Create(c *gin.Context) {
	eventID, userID, ok := self(c)
	if !ok {
		return
	}
	var req AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.svc.Create(c.Request.Context(), eventID, userID, req.Answers)
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	response.Created(c, reg)
}

// Update handles PUT /events/:id/registration.
func (h *Handler) Update(c *gin.Context) {
	eventID, userID, ok := self(c)
	if !ok {
		return
	}
	var req AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.svc.UpdateAnswers(c.Request.Context(), eventID, userID, req.Answers)
	if err != nil {
		h.fail(c, "update registration", err)
		return
	}
	response.OK(c, reg)
}

// Delete handles DELETE /events/:id/registration. Allowed until the signup deadline.
func (h *Handler) Delete(c *gin.Context) {
	eventID, userID, ok := self(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveSelf(c.Request.Context(), eventID, userID); err != nil {
		h.fail(c, "unregister", err)
		return
	}
	response.NoContent(c)
}

// ListByEvent handles GET /events/:id/registrations (admin only).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, ok := parseID(c, "id", "event")
	if !ok {
		return
	}
	list, err := h.svc.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.fail(c, "list registrations", err)
		return
	}
	response.OK(c, list)
}

// AdminDelete handles DELETE /events/:id/registrations/:userId (admin only).
func (h *Handler) AdminDelete(c *gin.Context) {
	eventID, ok := parseID(c, "id", "event")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}
	if err := h.svc.AdminRemove(c.Request.Context(), eventID, userID); err != nil {
		h.fail(c, "remove registration", err)
		return
	}
	response.NoContent(c)
}
