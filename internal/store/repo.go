package store

import (
	"context"
	"errors"
	"time"

	"github.com/lingoquest/lingoquest/ent"
	"github.com/lingoquest/lingoquest/internal/apperr"
)

// ErrInsufficientPoints is returned when a negative point delta would take a
// user's total below zero.
var ErrInsufficientPoints = errors.New("insufficient points")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int       // id > After
	Before  int       // id < Before
	From    time.Time // created_at >= From
	To      time.Time // created_at <= To
	Purpose string    // exact purpose match, empty for all
}

// UserRecord is a learner's progression state.
type UserRecord struct {
	ID            int
	ExternalID    string
	DisplayName   string
	Level         int
	CurrentXP     int
	TotalPoints   int
	Streak        int
	LastActiveAt  *time.Time
	LastActiveDay string // YYYY-MM-DD in the configured zone, empty if never active
	LastSpinAt    *time.Time
	CreatedAt     time.Time
}

// QuestionRecord is a seeded practice question of any game type.
type QuestionRecord struct {
	ID              int
	Code            string
	GameType        string
	Difficulty      string
	Prompt          string
	Choices         []string
	Answer          string
	AcceptedAnswers []string
	Keywords        []string
	Context         string
	TimeLimitSecs   int
}

// HistoryData records one answered question.
type HistoryData struct {
	UserID     int
	QuestionID int
	GameType   string
	Correct    bool
	AnsweredAt time.Time
}

// PointLogRecord is one append-only ledger entry.
type PointLogRecord struct {
	ID          int
	UserID      int
	Points      int
	Source      string
	Description string
	CreatedAt   time.Time
}

// BadgeRecord is a badge definition with its criterion and bonus.
type BadgeRecord struct {
	ID          int
	Code        string
	Name        string
	Description string
	Criterion   string
	Threshold   int
	BonusXP     int
}

// AchievementRecord is an earned badge.
type AchievementRecord struct {
	BadgeCode string
	EarnedAt  time.Time
}

// VocabRecord is a collectible gacha word.
type VocabRecord struct {
	ID      int
	Word    string
	Meaning string
	Rarity  string
}

// CollectionEntry is one word in a user's collection.
type CollectionEntry struct {
	Vocab           VocabRecord
	Copies          int
	FirstAcquiredAt time.Time
	LastAcquiredAt  time.Time
}

// GrantRecord is a non-XP reward held by a user (mystery box, hint token, double XP).
type GrantRecord struct {
	ID         int
	UserID     int
	Kind       string
	Source     string
	CreatedAt  time.Time
	ConsumedAt *time.Time
}

// SessionRecord is the persisted state of one game session.
type SessionRecord struct {
	ID           int
	SessionID    string
	UserID       int
	GameType     string
	Status       string
	QuestionIDs  []int
	Index        int
	Score        int
	CorrectCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID int
	LLMRequestEventData
	Timestamp time.Time
}

// LLMUsageStat aggregates usage for one purpose.
type LLMUsageStat struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStat, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}

// Queries exposes the typed read/write operations of the engine. A Queries
// obtained from InTx runs every call inside that transaction.
type Queries struct {
	client *ent.Client
}

// mapErr translates ent errors into the shared taxonomy.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case ent.IsNotFound(err):
		return apperr.ErrNotFound
	case ent.IsConstraintError(err):
		return apperr.ErrConflict
	}
	return err
}
