package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"mamamind/internal/database"
	"mamamind/internal/dialogue"
	"mamamind/internal/format"
	"mamamind/internal/planner"
	"mamamind/internal/whatsapp"
)

type fakeDB struct{}

func (fakeDB) Health() map[string]string          { return map[string]string{"status": "up"} }
func (fakeDB) EnsureSchema(context.Context) error { return nil }
func (fakeDB) Close()                             {}
func (fakeDB) Queries() *database.Queries         { return nil }

type fakeStore struct {
	profiles map[string]database.Profile
	sessions map[string]database.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]database.Profile),
		sessions: make(map[string]database.Session),
	}
}

func (s *fakeStore) LoadUserState(_ context.Context, phone string) (*database.Profile, *database.Session, error) {
	p, ok := s.profiles[phone]
	if !ok {
		return nil, nil, database.ErrNotFound
	}
	sess := s.sessions[phone]
	return &p, &sess, nil
}

func (s *fakeStore) SaveUserState(_ context.Context, p *database.Profile, sess *database.Session) error {
	s.profiles[p.Phone] = *p
	s.sessions[p.Phone] = *sess
	return nil
}

func (s *fakeStore) NextWeekNumber(context.Context, string) (int, error) { return 1, nil }
func (s *fakeStore) SaveMealPlan(context.Context, *database.MealPlanRecord) error {
	return nil
}
func (s *fakeStore) GetMealPlan(context.Context, string) (*database.MealPlanRecord, error) {
	return nil, database.ErrNotFound
}
func (s *fakeStore) LogConversation(context.Context, string, string, string) error { return nil }

type fakeGenerator struct{}

func (fakeGenerator) GenerateWeeklyPlan(_ context.Context, _ *zerolog.Logger, _ *database.Profile, week int) (*planner.MealPlan, error) {
	return &planner.MealPlan{ID: "p1", WeekNumber: week}, nil
}

func (fakeGenerator) AnswerQuestion(context.Context, *zerolog.Logger, *database.Profile, string) (string, error) {
	return "Plenty of leafy greens.", nil
}

func newTestServer() *Server {
	return &Server{
		db:     fakeDB{},
		engine: dialogue.NewEngine(newFakeStore(), fakeGenerator{}, format.New(0)),
		sender: whatsapp.NewClient("", "", "", ""),
	}
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
	handler := newTestServer().RegisterRoutes()

	form := url.Values{}
	form.Set("From", "whatsapp:+15551230000")
	form.Set("Body", "hi")
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Response>") || !strings.Contains(body, "<Message>") {
		t.Errorf("expected TwiML reply, got %q", body)
	}
	if !strings.Contains(body, "trimester") {
		t.Errorf("first contact should start onboarding, got %q", body)
	}
}

func TestWebhookStatePersistsAcrossRequests(t *testing.T) {
	handler := newTestServer().RegisterRoutes()

	send := func(body string) string {
		form := url.Values{}
		form.Set("From", "whatsapp:+15551230001")
		form.Set("Body", body)
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Body.String()
	}

	send("hi")
	reply := send("Second")
	if !strings.Contains(reply, "dietary") {
		t.Errorf("second message should ask for diet, got %q", reply)
	}
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	handler := newTestServer().RegisterRoutes()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("Body=only"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer().RegisterRoutes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"up"`) {
		t.Errorf("unexpected health body: %q", rec.Body.String())
	}
}
