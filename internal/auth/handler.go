package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/response"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Handler handles auth and user-management HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an auth handler.
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

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sess, err := h.svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	response.Created(c, sess)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	response.OK(c, sess)
}

// Me handles GET /users/me.
func (h *Handler) Me(c *gin.Context) {
	claims := ClaimsFrom(c)
	if claims == nil {
		response.Unauthorized(c, "missing user context")
		return
	}
	u, err := h.svc.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, "me", err)
		return
	}
	response.OK(c, u.ToPublic())
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list users", err)
		return
	}
	response.OK(c, list)
}

// Promote handles POST /users/:id/admin (admin only).
func (h *Handler) Promote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	u, err := h.svc.Promote(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "promote", err)
		return
	}
	response.OK(c, u.ToPublic())
}

// Demote handles DELETE /users/:id/admin (admin only).
func (h *Handler) Demote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	u, err := h.svc.Demote(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "demote", err)
		return
	}
	response.OK(c, u.ToPublic())
}
