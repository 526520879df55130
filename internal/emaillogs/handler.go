package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/notify"
	"github.com/eventdesk/backend/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	store  Store
	q      notify.Enqueuer
	logger *zap.Logger
}

// NewHandler creates an email logs handler. q may be nil when no queue is configured.
func NewHandler(store Store, q notify.Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, q: q, logger: logger}
}

// ListByEvent handles GET /events/:id/emails. Returns the notification outbox of the event, newest first.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	logs, err := h.store.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

// Resend handles POST /events/:id/emails/:emailId/resend. Puts a failed notification back in the queue.
func (h *Handler) Resend(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	logID, err := uuid.Parse(c.Param("emailId"))
	if err != nil {
		response.BadRequest(c, "invalid email log id")
		return
	}
	ctx := c.Request.Context()
	if err := h.store.Requeue(ctx, eventID, logID); err != nil {
		response.Error(c, err)
		return
	}
	if h.q != nil {
		if err := h.q.EnqueueEmail(ctx, logID); err != nil {
			// row is pending again; the relay will pick it up
			h.logger.Warn("resend enqueue failed", zap.Error(err), zap.String("email_log_id", logID.String()))
		}
	}
	response.OK(c, gin.H{"message": "resend queued"})
}
