// Package badges grants achievement badges when a user's aggregate activity
// meets a badge's criterion. Each grant and its bonus XP commit together, and
// a badge is granted to a user at most once.
package badges

import (
	"fmt"
	"sort"
)

// Kind names the statistic a criterion is measured against.
type Kind string

const (
	KindFeedbackCount       Kind = "feedback_count"
	KindImprovedScoreStreak Kind = "improved_score_streak"
	KindOnTimeSubmissions   Kind = "on_time_submissions"
	KindStreakDays          Kind = "streak_days"
	KindMessageCount        Kind = "message_count"
	KindPracticeGames       Kind = "practice_games"
	KindWeeklySubmissions   Kind = "weekly_submissions"
	KindVocabCollection     Kind = "vocab_collection"
	KindLevelReached        Kind = "level_reached"
	KindPerfectScores       Kind = "perfect_scores"
)

var kinds = map[Kind]bool{
	KindFeedbackCount:       true,
	KindImprovedScoreStreak: true,
	KindOnTimeSubmissions:   true,
	KindStreakDays:          true,
	KindMessageCount:        true,
	KindPracticeGames:       true,
	KindWeeklySubmissions:   true,
	KindVocabCollection:     true,
	KindLevelReached:        true,
	KindPerfectScores:       true,
}

// ParseKind validates a criterion kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !kinds[k] {
		return "", fmt.Errorf("unknown badge criterion %q", s)
	}
	return k, nil
}

// Kinds returns every criterion kind, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reported reports whether the chat layer supplies k through activity
// counters rather than the engine deriving it.
func (k Kind) Reported() bool {
	switch k {
	case KindFeedbackCount, KindImprovedScoreStreak, KindOnTimeSubmissions,
		KindMessageCount, KindWeeklySubmissions:
		return true
	}
	return false
}

// Gauge reports whether k is overwritten rather than accumulated.
func (k Kind) Gauge() bool {
	return k == KindImprovedScoreStreak
}

// Stats is a user's aggregate activity.
type Stats struct {
	FeedbackCount       int `json:"feedbackCount"`
	ImprovedScoreStreak int `json:"improvedScoreStreak"`
	OnTimeSubmissions   int `json:"onTimeSubmissions"`
	StreakDays          int `json:"streakDays"`
	MessageCount        int `json:"messageCount"`
	PracticeGames       int `json:"practiceGames"`
	WeeklySubmissions   int `json:"weeklySubmissions"`
	VocabCollection     int `json:"vocabCollection"`
	Level               int `json:"level"`
	PerfectScores       int `json:"perfectScores"`
}

// Value returns the statistic k measures.
func (s Stats) Value(k Kind) int {
	switch k {
	case KindFeedbackCount:
		return s.FeedbackCount
	case KindImprovedScoreStreak:
		return s.ImprovedScoreStreak
	case KindOnTimeSubmissions:
		return s.OnTimeSubmissions
	case KindStreakDays:
		return s.StreakDays
	case KindMessageCount:
		return s.MessageCount
	case KindPracticeGames:
		return s.PracticeGames
	case KindWeeklySubmissions:
		return s.WeeklySubmissions
	case KindVocabCollection:
		return s.VocabCollection
	case KindLevelReached:
		return s.Level
	case KindPerfectScores:
		return s.PerfectScores
	}
	return 0
}

// Criterion is a threshold over one statistic.
type Criterion struct {
	Kind      Kind
	Threshold int
}

// Met reports whether s satisfies c.
func (c Criterion) Met(s Stats) bool {
	return s.Value(c.Kind) >= c.Threshold
}

func (c Criterion) String() string {
	return fmt.Sprintf("%s>=%d", c.Kind, c.Threshold)
}
