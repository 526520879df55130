package registrations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/middleware"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/notify"
	"github.com/eventdesk/backend/internal/store/memory"
	"github.com/eventdesk/backend/pkg/clock"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type HandlerSuite struct {
	suite.Suite
	db     *memory.DB
	clock  *clock.Fixed
	jwt    *auth.JWTService
	router *gin.Engine
	event  *models.Event
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = memory.New()
	s.clock = &clock.Fixed{T: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
	catalog, err := notify.LoadCatalog(notify.DefaultLocale, "Team")
	s.Require().NoError(err)
	svc := NewService(s.db.Registrations(), notify.NewComposer(catalog), notify.NewDispatcher(nil, nil, nil), s.clock, nil, nil)
	h := NewHandler(svc, nil)
	s.jwt = auth.NewJWTService("secret", 1)

	s.router = gin.New()
	api := s.router.Group("/", middleware.JWT(s.jwt))
	api.GET("/events/:id/registration", h.Get)
	api.POST("/events/:id/registration", h.Create)
	api.PUT("/events/:id/registration", h.Update)
	api.DELETE("/events/:id/registration", h.Delete)
	admin := api.Group("/", middleware.RequireRole(models.RoleAdmin))
	admin.GET("/events/:id/registrations", h.ListByEvent)
	admin.DELETE("/events/:id/registrations/:userId", h.AdminDelete)

	limit := 1
	s.event = &models.Event{
		ID:             uuid.New(),
		Name:           "Workshop",
		SignupDeadline: s.clock.Now().Add(24 * time.Hour),
		PeopleLimit:    &limit,
		Fields: []models.Field{
			{ID: 1, Kind: models.FieldSingleChoice, Label: "Meal", Options: []string{"Veg", "Meat"}, Required: true},
		},
	}
	s.Require().NoError(s.db.Events().Create(context.Background(), s.event))
}

func (s *HandlerSuite) login(email string, role models.Role) (string, uuid.UUID) {
	u := &models.User{ID: uuid.New(), Email: email, Roles: []models.Role{role}}
	s.Require().NoError(s.db.Users().Create(context.Background(), u))
	token, err := s.jwt.Generate(u)
	s.Require().NoError(err)
	return token, u.ID
}

func (s *HandlerSuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *HandlerSuite) path() string {
	return "/events/" + s.event.ID.String() + "/registration"
}

func meal(choice string) map[string]any {
	return map[string]any{"answers": []map[string]any{{"id": 1, "options": []string{choice}}}}
}

func (s *HandlerSuite) TestSelfLifecycle() {
	token, _ := s.login("ana@example.com", models.RoleUser)

	w, _ := s.do(http.MethodGet, s.path(), token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, env := s.do(http.MethodPost, s.path(), token, meal("Veg"))
	s.Require().Equal(http.StatusCreated, w.Code, env.Error)

	w, env = s.do(http.MethodPost, s.path(), token, meal("Veg"))
	s.Equal(http.StatusConflict, w.Code)
	s.Equal(MsgAlreadyRegistered, env.Error)

	w, env = s.do(http.MethodPut, s.path(), token, meal("Meat"))
	s.Require().Equal(http.StatusOK, w.Code, env.Error)
	var reg models.Registration
	s.Require().NoError(json.Unmarshal(env.Data, &reg))
	s.Require().Len(reg.Answers, 1)
	s.Equal([]string{"Meat"}, reg.Answers[0].Options)
	s.Equal("Meal", reg.Answers[0].Label)

	w, _ = s.do(http.MethodDelete, s.path(), token, nil)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlerSuite) TestCreateRejections() {
	first, _ := s.login("a@example.com", models.RoleUser)
	second, _ := s.login("b@example.com", models.RoleUser)

	w, _ := s.do(http.MethodPost, s.path(), first, meal("Fish"))
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, s.path(), first, meal("Veg"))
	s.Require().Equal(http.StatusCreated, w.Code)

	w, env := s.do(http.MethodPost, s.path(), second, meal("Veg"))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(MsgNoFreeSpots, env.Error)

	w, _ = s.do(http.MethodPost, "/events/"+uuid.NewString()+"/registration", second, meal("Veg"))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestDeleteAfterDeadline() {
	token, _ := s.login("ana@example.com", models.RoleUser)
	w, _ := s.do(http.MethodPost, s.path(), token, meal("Veg"))
	s.Require().Equal(http.StatusCreated, w.Code)

	s.clock.Advance(48 * time.Hour)
	w, env := s.do(http.MethodDelete, s.path(), token, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(MsgDeadlinePassed, env.Error)
}

func (s *HandlerSuite) TestAdminRoutes() {
	user, userID := s.login("ana@example.com", models.RoleUser)
	admin, _ := s.login("admin@example.com", models.RoleAdmin)
	w, _ := s.do(http.MethodPost, s.path(), user, meal("Veg"))
	s.Require().Equal(http.StatusCreated, w.Code)

	list := "/events/" + s.event.ID.String() + "/registrations"
	w, _ = s.do(http.MethodGet, list, user, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodGet, list, admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var regs []models.RegistrationSummary
	s.Require().NoError(json.Unmarshal(env.Data, &regs))
	s.Require().Len(regs, 1)
	s.Equal("ana@example.com", regs[0].Email)

	s.clock.Advance(48 * time.Hour)
	w, _ = s.do(http.MethodDelete, list+"/"+userID.String(), admin, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w, _ = s.do(http.MethodDelete, list+"/"+userID.String(), admin, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodDelete, list+"/bad", admin, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
