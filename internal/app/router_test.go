package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"symposium_backend/internal/config"
	"symposium_backend/internal/model"
	"symposium_backend/internal/util"
	"symposium_backend/pkg/database"
	"symposium_backend/pkg/logger"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const testSecret = "router-test-secret-with-enough-length"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app   *App
	db    *gorm.DB
	round model.Round
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.InitNop()

	cfg := &config.Config{
		Server:     config.ServerConfig{Mode: "test"},
		Database:   config.DatabaseConfig{Driver: "sqlite"},
		JWT:        config.JWTConfig{Secret: testSecret},
		Storage:    config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		Proctoring: config.ProctoringConfig{Broker: "local", SweepInterval: time.Minute},
	}
	db := database.OpenTestDB(t)

	event := model.Event{Title: "Symposium", Status: model.EventStatusActive}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	round := model.Round{EventID: event.ID, Title: "Qualifier", Status: model.RoundInProgress, DurationMinutes: 20}
	if err := db.Create(&round).Error; err != nil {
		t.Fatalf("create round: %v", err)
	}
	return &testServer{app: New(cfg, db, nil), db: db, round: round}
}

func (s *testServer) participant(t *testing.T, name string) model.Participant {
	t.Helper()
	p := model.Participant{EventID: s.round.EventID, Name: name, TestEnabled: true}
	if err := s.db.Create(&p).Error; err != nil {
		t.Fatalf("create participant: %v", err)
	}
	return p
}

func token(t *testing.T, claims util.Claims) string {
	t.Helper()
	tok, err := util.GenerateJWT(claims, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.app.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data struct {
		Status string `json:"status"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Status != "ok" {
		t.Fatalf("unexpected health payload %s", env.Data)
	}
}

func TestParticipantRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	path := fmt.Sprintf("/api/rounds/%d/attempts", s.round.ID)

	if w, _ := s.do(t, http.MethodPost, path, "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodPost, path, "not-a-jwt", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", w.Code)
	}
	staff := token(t, util.Claims{UserID: 5, Role: util.RoleParticipant})
	if w, _ := s.do(t, http.MethodPost, path, staff, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a token without participant, got %d", w.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	p := s.participant(t, "alice")
	path := fmt.Sprintf("/api/admin/rounds/%d/attempts", s.round.ID)

	user := token(t, util.Claims{UserID: 1, ParticipantID: p.ID, Role: util.RoleParticipant})
	if w, _ := s.do(t, http.MethodGet, path, user, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for participant, got %d", w.Code)
	}
	admin := token(t, util.Claims{UserID: 99, Role: util.RoleAdmin})
	if w, _ := s.do(t, http.MethodGet, path, admin, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
}

func TestAttemptFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	p := s.participant(t, "alice")
	q := model.Question{RoundID: s.round.ID, Type: model.QuestionTrueFalse, CorrectBool: new(bool), Points: 2}
	if err := s.db.Create(&q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	tok := token(t, util.Claims{UserID: 1, ParticipantID: p.ID, Role: util.RoleParticipant})

	startPath := fmt.Sprintf("/api/rounds/%d/attempts", s.round.ID)
	w, env := s.do(t, http.MethodPost, startPath, tok, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first start, got %d: %s", w.Code, w.Body.String())
	}
	var attempt struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		TotalScore       *int   `json:"totalScore"`
		RemainingSeconds int    `json:"remainingSeconds"`
	}
	json.Unmarshal(env.Data, &attempt)
	if attempt.ID == "" || attempt.Status != string(model.AttemptInProgress) {
		t.Fatalf("unexpected attempt %s", env.Data)
	}
	if attempt.RemainingSeconds <= 0 || attempt.RemainingSeconds > 20*60 {
		t.Fatalf("remaining seconds out of range: %d", attempt.RemainingSeconds)
	}

	if w, _ := s.do(t, http.MethodPost, startPath, tok, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 when resuming, got %d", w.Code)
	}

	answerPath := fmt.Sprintf("/api/attempts/%s/answers/%d", attempt.ID, q.ID)
	if w, _ := s.do(t, http.MethodPut, answerPath, tok, gin.H{"value": "yes"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed answer, got %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodPut, answerPath, tok, gin.H{"value": false}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a valid answer, got %d: %s", w.Code, w.Body.String())
	}

	violationPath := fmt.Sprintf("/api/attempts/%s/violations", attempt.ID)
	if w, _ := s.do(t, http.MethodPost, violationPath, tok, gin.H{"kind": "screenshot"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown violation kind, got %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodPost, violationPath, tok, gin.H{"kind": "tab-switch"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a violation, got %d", w.Code)
	}

	w, env = s.do(t, http.MethodPost, fmt.Sprintf("/api/attempts/%s/submit", attempt.ID), tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on submit, got %d: %s", w.Code, w.Body.String())
	}
	json.Unmarshal(env.Data, &attempt)
	if attempt.Status != string(model.AttemptCompleted) || attempt.TotalScore == nil || *attempt.TotalScore != 2 {
		t.Fatalf("unexpected submitted attempt %s", env.Data)
	}

	w, env = s.do(t, http.MethodPost, startPath, tok, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 after finishing, got %d", w.Code)
	}
	if len(env.Data) == 0 {
		t.Fatal("conflict response should carry the finished attempt")
	}

	other := s.participant(t, "mallory")
	otherTok := token(t, util.Claims{UserID: 2, ParticipantID: other.ID, Role: util.RoleParticipant})
	if w, _ := s.do(t, http.MethodGet, "/api/attempts/"+attempt.ID, otherTok, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 reading someone else's attempt, got %d", w.Code)
	}

	w, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/rounds/%d/leaderboard", s.round.ID), tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for leaderboard, got %d", w.Code)
	}
	var board struct {
		Entries []struct {
			Rank       int `json:"rank"`
			TotalScore int `json:"totalScore"`
		} `json:"entries"`
	}
	json.Unmarshal(env.Data, &board)
	if len(board.Entries) != 1 || board.Entries[0].Rank != 1 || board.Entries[0].TotalScore != 2 {
		t.Fatalf("unexpected leaderboard %s", env.Data)
	}
}

func TestAdminRoundStatusValidation(t *testing.T) {
	s := newTestServer(t)
	admin := token(t, util.Claims{UserID: 99, Role: util.RoleAdmin})
	path := fmt.Sprintf("/api/admin/rounds/%d/status", s.round.ID)

	if w, _ := s.do(t, http.MethodPost, path, admin, gin.H{"status": "paused"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown status, got %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodPost, path, admin, gin.H{"status": "completed"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w, _ := s.do(t, http.MethodPost, "/api/admin/rounds/404/status", admin, gin.H{"status": "completed"}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a missing round, got %d", w.Code)
	}
}
