package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingoquest/lingoquest/internal/engine"
	"github.com/lingoquest/lingoquest/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	router *gin.Engine
	qid    int
}

func newServer(t *testing.T) *server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	qid, err := st.Queries().UpsertQuestion(context.Background(), store.QuestionRecord{
		Code: "mc-1", GameType: "multiple_choice", Difficulty: "EASY",
		Prompt: "I ___ a student.", Choices: []string{"am", "is", "are", "be"}, Answer: "A",
	})
	require.NoError(t, err)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	eng := engine.New(st, engine.DefaultConfig(), engine.Options{Now: func() time.Time { return now }})
	return &server{router: NewRouter(NewHandler(eng, nil), nil), qid: qid}
}

func (s *server) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (s *server) register(t *testing.T) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/v1/users", map[string]any{"externalId": "U-line-1", "displayName": "Ploy"})
	require.Equal(t, http.StatusCreated, rec.Code)
	return strconv.Itoa(int(body["id"].(float64)))
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec, body := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestEnsureUser(t *testing.T) {
	s := newServer(t)
	id := s.register(t)

	rec, body := s.do(t, http.MethodPost, "/v1/users", map[string]any{"externalId": "U-line-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, strconv.Itoa(int(body["id"].(float64))))
	assert.Equal(t, false, body["created"])

	rec, body = s.do(t, http.MethodPost, "/v1/users", map[string]any{"displayName": "nobody"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", errorCode(body))
}

func TestAnswerFlow(t *testing.T) {
	s := newServer(t)
	id := s.register(t)

	rec, body := s.do(t, http.MethodPost, "/v1/users/"+id+"/questions", map[string]any{"gameType": "multiple_choice", "count": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["sessionId"])
	questions := body["questions"].([]any)
	require.Len(t, questions, 1)
	first := questions[0].(map[string]any)
	_, hasAnswer := first["answer"]
	assert.False(t, hasAnswer)

	rec, body = s.do(t, http.MethodPost, "/v1/users/"+id+"/answers", map[string]any{
		"gameType": "multiple_choice", "questionId": s.qid, "answer": "am",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["correct"])
	assert.Equal(t, float64(10), body["pointsAwarded"])
	assert.Equal(t, float64(10), body["newTotal"])
	assert.Equal(t, []any{}, body["newBadges"])

	rec, body = s.do(t, http.MethodGet, "/v1/users/"+id+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["level"])
	assert.Equal(t, float64(10), body["totalPoints"])
	assert.Equal(t, float64(1), body["streak"])

	rec, body = s.do(t, http.MethodGet, "/v1/users/"+id+"/points?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["entries"].([]any), 1)

	rec, body = s.do(t, http.MethodGet, "/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["users"].([]any), 1)
}

func TestErrors(t *testing.T) {
	s := newServer(t)
	id := s.register(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown game", http.MethodPost, "/v1/users/" + id + "/answers", map[string]any{"gameType": "karaoke", "questionId": s.qid, "answer": "A"}, http.StatusBadRequest, "unknown_game_type"},
		{"wrong question", http.MethodPost, "/v1/users/" + id + "/answers", map[string]any{"gameType": "multiple_choice", "questionId": 999, "answer": "A"}, http.StatusBadRequest, "invalid"},
		{"missing user", http.MethodGet, "/v1/users/999/progress", nil, http.StatusNotFound, "not_found"},
		{"bad user id", http.MethodPost, "/v1/users/abc/spin", nil, http.StatusBadRequest, "bad_request"},
		{"bad count", http.MethodPost, "/v1/users/" + id + "/questions", map[string]any{"gameType": "multiple_choice", "count": 500}, http.StatusBadRequest, "invalid"},
		{"engine kind", http.MethodPost, "/v1/users/" + id + "/activities", map[string]any{"kind": "practice_games"}, http.StatusBadRequest, "invalid"},
		{"bad limit", http.MethodGet, "/v1/leaderboard?limit=-1", nil, http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := s.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, errorCode(body))
		})
	}
}

func TestRewards(t *testing.T) {
	s := newServer(t)
	id := s.register(t)

	rec, body := s.do(t, http.MethodPost, "/v1/users/"+id+"/spin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["available"])

	rec, body = s.do(t, http.MethodPost, "/v1/users/"+id+"/spin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["available"])
	assert.Equal(t, float64(24), body["remainingHours"])

	rec, body = s.do(t, http.MethodPost, "/v1/users/"+id+"/gacha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["available"])

	rec, body = s.do(t, http.MethodPost, "/v1/users/"+id+"/activities", map[string]any{"kind": "message_count", "n": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "message_count", body["kind"])

	rec, body = s.do(t, http.MethodGet, "/v1/users/"+id+"/collection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["words"])
}
