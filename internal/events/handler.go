package events

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/response"
)

// parseTime accepts RFC3339 or a bare YYYY-MM-DD date (UTC midnight).
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func parseOptionalTime(s *string, name string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, apperr.Validation("invalid " + name)
	}
	return &t, nil
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Name           string         `json:"name" binding:"required"`
	Description    string         `json:"description"`
	Date           *string        `json:"date"`
	SignupDeadline *string        `json:"signup_deadline"`
	Location       string         `json:"location"`
	PeopleLimit    *int           `json:"people_limit"`
	Fields         []models.Field `json:"fields"`
}

// UpdateRequest is the body for PUT /events/:id. Omitted members stay unchanged;
// a present "fields" list replaces the form and clears registrations.
type UpdateRequest struct {
	Name           *string        `json:"name"`
	Description    *string        `json:"description"`
	Date           *string        `json:"date"`
	SignupDeadline *string        `json:"signup_deadline"`
	Location       *string        `json:"location"`
	PeopleLimit    *int           `json:"people_limit"`
	Fields         []models.Field `json:"fields"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an event handler.
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

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

// listOptions reads ?from=&to=&activeOnly=&alphabetical=&descending=.
func listOptions(c *gin.Context) (ListOptions, error) {
	opts := ListOptions{
		ActiveOnly:   queryBool(c, "activeOnly"),
		Alphabetical: queryBool(c, "alphabetical"),
		Descending:   queryBool(c, "descending"),
	}
	var err error
	if v, ok := c.GetQuery("from"); ok {
		if opts.From, err = parseOptionalTime(&v, "from"); err != nil {
			return opts, err
		}
	}
	if v, ok := c.GetQuery("to"); ok {
		if opts.To, err = parseOptionalTime(&v, "to"); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	opts, err := listOptions(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.List(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, "list events", err)
		return
	}
	response.OK(c, list)
}

// ListJoined handles GET /events/joined: the caller's registrations.
func (h *Handler) ListJoined(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	opts, err := listOptions(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	list, err := h.svc.ListJoined(c.Request.Context(), userID, opts)
	if err != nil {
		h.fail(c, "list joined events", err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	d, err := h.svc.Details(c.Request.Context(), id, userID)
	if err != nil {
		h.fail(c, "get event", err)
		return
	}
	response.OK(c, d)
}

// Create handles POST /events (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	date, err := parseOptionalTime(req.Date, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	deadline, err := parseOptionalTime(req.SignupDeadline, "signup_deadline")
	if err != nil {
		response.Error(c, err)
		return
	}
	ev, err := h.svc.Create(c.Request.Context(), CreateInput{
		Name:           req.Name,
		Description:    req.Description,
		Date:           date,
		SignupDeadline: deadline,
		Location:       req.Location,
		PeopleLimit:    req.PeopleLimit,
		Fields:         req.Fields,
	})
	if err != nil {
		h.fail(c, "create event", err)
		return
	}
	response.Created(c, ev)
}

// Update handles PUT /events/:id (admin only). ?reset=true clears registrations
// even when the form is unchanged.
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	patch := models.EventPatch{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		PeopleLimit: req.PeopleLimit,
		Fields:      req.Fields,
	}
	var err error
	if patch.Date, err = parseOptionalTime(req.Date, "date"); err != nil {
		response.Error(c, err)
		return
	}
	if patch.SignupDeadline, err = parseOptionalTime(req.SignupDeadline, "signup_deadline"); err != nil {
		response.Error(c, err)
		return
	}

	var ev *models.Event
	if queryBool(c, "reset") {
		ev, err = h.svc.UpdateAndReset(c.Request.Context(), id, patch)
	} else {
		ev, err = h.svc.Update(c.Request.Context(), id, patch)
	}
	if err != nil {
		h.fail(c, "update event", err)
		return
	}
	response.OK(c, ev)
}

// Delete handles DELETE /events/:id (admin only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), id); err != nil {
		h.fail(c, "delete event", err)
		return
	}
	response.NoContent(c)
}
