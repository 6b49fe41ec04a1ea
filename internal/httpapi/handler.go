// Package httpapi exposes the game engine to the chat layer as JSON over
// HTTP. Handlers only decode requests, call the engine and encode results.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lingoquest/lingoquest/internal/engine"
	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/store"
)

// Handler serves the engine's operations.
type Handler struct {
	eng *engine.Engine
	log *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(eng *engine.Engine, log *logger.Logger) *Handler {
	return &Handler{eng: eng, log: log.With("component", "httpapi")}
}

// User is the public view of a learner.
type User struct {
	ID          int    `json:"id"`
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
	Level       int    `json:"level"`
	TotalPoints int    `json:"totalPoints"`
	Streak      int    `json:"streak"`
	Created     bool   `json:"created"`
}

// PointEntry is one ledger line.
type PointEntry struct {
	ID          int       `json:"id"`
	Points      int       `json:"points"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CollectedWord is one word of a user's gacha collection.
type CollectedWord struct {
	Word            string    `json:"word"`
	Meaning         string    `json:"meaning"`
	Rarity          string    `json:"rarity"`
	Copies          int       `json:"copies"`
	FirstAcquiredAt time.Time `json:"firstAcquiredAt"`
}

type ensureUserRequest struct {
	ExternalID  string `json:"externalId" binding:"required"`
	DisplayName string `json:"displayName"`
}

type batchRequest struct {
	GameType string `json:"gameType" binding:"required"`
	Count    int    `json:"count"`
}

type answerRequest struct {
	GameType    string   `json:"gameType" binding:"required"`
	QuestionID  int      `json:"questionId" binding:"required"`
	Answer      string   `json:"answer"`
	ElapsedSecs *float64 `json:"elapsedSecs"`
}

type roundRequest struct {
	GameType    string   `json:"gameType" binding:"required"`
	QuestionIDs []int    `json:"questionIds" binding:"required"`
	Answers     []string `json:"answers"`
	UsedSecs    float64  `json:"usedSecs"`
}

type activityRequest struct {
	Kind string `json:"kind" binding:"required"`
	N    *int   `json:"n"`
}

var errBadUserID = errors.New("user id must be a positive integer")

func userID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondBadRequest(c, errBadUserID)
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondBadRequest(c, errors.New("limit must be a non-negative integer"))
		return 0, false
	}
	return n, true
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

// EnsureUser handles POST /v1/users.
func (h *Handler) EnsureUser(c *gin.Context) {
	var req ensureUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	u, created, err := h.eng.EnsureUser(c.Request.Context(), req.ExternalID, req.DisplayName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, userView(u, created))
}

func userView(u *store.UserRecord, created bool) User {
	return User{
		ID:          u.ID,
		ExternalID:  u.ExternalID,
		DisplayName: u.DisplayName,
		Level:       u.Level,
		TotalPoints: u.TotalPoints,
		Streak:      u.Streak,
		Created:     created,
	}
}

// Progress handles GET /v1/users/:id/progress.
func (h *Handler) Progress(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	p, err := h.eng.GetProgress(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, p)
}

// Questions handles POST /v1/users/:id/questions.
func (h *Handler) Questions(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if req.Count == 0 {
		req.Count = 5
	}
	b, err := h.eng.GetQuestionBatch(c.Request.Context(), id, req.GameType, req.Count)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, b)
}

// Answer handles POST /v1/users/:id/answers.
func (h *Handler) Answer(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	elapsed := -1.0
	if req.ElapsedSecs != nil {
		elapsed = *req.ElapsedSecs
	}
	res, err := h.eng.SubmitAnswer(c.Request.Context(), engine.AnswerRequest{
		UserID:      id,
		GameType:    req.GameType,
		QuestionID:  req.QuestionID,
		Answer:      req.Answer,
		ElapsedSecs: elapsed,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, res)
}

// Round handles POST /v1/users/:id/rounds.
func (h *Handler) Round(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req roundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	res, err := h.eng.SubmitTimedRound(c.Request.Context(), engine.RoundRequest{
		UserID:      id,
		GameType:    req.GameType,
		QuestionIDs: req.QuestionIDs,
		Answers:     req.Answers,
		UsedSecs:    req.UsedSecs,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, res)
}

// Spin handles POST /v1/users/:id/spin.
func (h *Handler) Spin(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	res, err := h.eng.Spin(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, res)
}

// MysteryBox handles POST /v1/users/:id/mystery-box.
func (h *Handler) MysteryBox(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	res, err := h.eng.OpenMysteryBox(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, res)
}

// Gacha handles POST /v1/users/:id/gacha.
func (h *Handler) Gacha(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	res, err := h.eng.PullGacha(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, res)
}

// Collection handles GET /v1/users/:id/collection.
func (h *Handler) Collection(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	entries, err := h.eng.Collection(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]CollectedWord, len(entries))
	for i, e := range entries {
		out[i] = CollectedWord{
			Word:            e.Vocab.Word,
			Meaning:         e.Vocab.Meaning,
			Rarity:          e.Vocab.Rarity,
			Copies:          e.Copies,
			FirstAcquiredAt: e.FirstAcquiredAt,
		}
	}
	respondOK(c, gin.H{"words": out})
}

// Activity handles POST /v1/users/:id/activities.
func (h *Handler) Activity(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	n := 1
	if req.N != nil {
		n = *req.N
	}
	res, err := h.eng.RecordActivity(c.Request.Context(), id, req.Kind, n)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, res)
}

// Points handles GET /v1/users/:id/points.
func (h *Handler) Points(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c, 50)
	if !ok {
		return
	}
	logs, err := h.eng.History(c.Request.Context(), id, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]PointEntry, len(logs))
	for i, l := range logs {
		out[i] = PointEntry{ID: l.ID, Points: l.Points, Source: l.Source, Description: l.Description, CreatedAt: l.CreatedAt}
	}
	respondOK(c, gin.H{"entries": out})
}

// Leaderboard handles GET /v1/leaderboard.
func (h *Handler) Leaderboard(c *gin.Context) {
	limit, ok := queryLimit(c, 10)
	if !ok {
		return
	}
	top, err := h.eng.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"users": top})
}
