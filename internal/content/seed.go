// Package content loads the question bank, badge catalogue and gacha word
// pool from a YAML seed file, and imports gacha words from spreadsheets.
package content

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lingoquest/lingoquest/internal/badges"
	"github.com/lingoquest/lingoquest/internal/games"
	"github.com/lingoquest/lingoquest/internal/history"
	"github.com/lingoquest/lingoquest/internal/rewards"
	"github.com/lingoquest/lingoquest/internal/store"
)

//go:embed default.yaml
var defaultSeed []byte

// Question is a question entry in a seed file.
type Question struct {
	Code            string   `yaml:"code"`
	GameType        string   `yaml:"gameType"`
	Difficulty      string   `yaml:"difficulty"`
	Prompt          string   `yaml:"prompt"`
	Choices         []string `yaml:"choices,omitempty"`
	Answer          string   `yaml:"answer"`
	AcceptedAnswers []string `yaml:"acceptedAnswers,omitempty"`
	Keywords        []string `yaml:"keywords,omitempty"`
	Context         string   `yaml:"context,omitempty"`
	TimeLimitSecs   int      `yaml:"timeLimitSecs,omitempty"`
}

// Badge is a badge entry in a seed file.
type Badge struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Criterion   string `yaml:"criterion"`
	Threshold   int    `yaml:"threshold"`
	BonusXP     int    `yaml:"bonusXp"`
}

// Word is a gacha vocabulary entry.
type Word struct {
	Word    string `yaml:"word"`
	Meaning string `yaml:"meaning"`
	Rarity  string `yaml:"rarity"`
}

// Seed is the content of a seed file.
type Seed struct {
	Questions []Question `yaml:"questions"`
	Badges    []Badge    `yaml:"badges"`
	Gacha     []Word     `yaml:"gacha"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Questions int
	Badges    int
	Words     int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d questions, %d badges, %d words", s.Questions, s.Badges, s.Words)
}

// Parse decodes and validates a seed. Unknown fields are rejected so typos in
// hand-written files surface instead of being dropped.
func Parse(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Seed
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile parses the seed file at path.
func LoadFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Default returns the built-in starter content.
func Default() (*Seed, error) {
	return Parse(bytes.NewReader(defaultSeed))
}

// Validate checks every entry against the game registry, badge criteria and
// rarity tiers, and rejects duplicate keys.
func (s *Seed) Validate() error {
	var errs []error
	codes := make(map[string]bool)
	for i, q := range s.Questions {
		at := fmt.Sprintf("questions[%d]", i)
		if q.Code == "" {
			errs = append(errs, fmt.Errorf("%s: code is required", at))
		} else if codes[q.Code] {
			errs = append(errs, fmt.Errorf("%s: duplicate code %q", at, q.Code))
		}
		codes[q.Code] = true

		spec, err := games.Lookup(q.GameType)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", at, err))
			continue
		}
		if !history.Difficulty(q.Difficulty).Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown difficulty %q", at, q.Difficulty))
		}
		if strings.TrimSpace(q.Prompt) == "" {
			errs = append(errs, fmt.Errorf("%s: prompt is required", at))
		}
		switch spec.Kind {
		case games.KindOpenEnded:
			if len(q.Keywords) == 0 {
				errs = append(errs, fmt.Errorf("%s: %s needs keywords", at, spec.Type))
			}
		default:
			if q.Answer == "" {
				errs = append(errs, fmt.Errorf("%s: answer is required", at))
			} else if len(q.Choices) > 0 {
				if _, ok := games.CanonicalChoice(q.Answer, q.Choices); !ok {
					errs = append(errs, fmt.Errorf("%s: answer %q is not one of the choices", at, q.Answer))
				}
			}
		}
	}

	badgeCodes := make(map[string]bool)
	for i, b := range s.Badges {
		at := fmt.Sprintf("badges[%d]", i)
		if b.Code == "" || badgeCodes[b.Code] {
			errs = append(errs, fmt.Errorf("%s: missing or duplicate code %q", at, b.Code))
		}
		badgeCodes[b.Code] = true
		if _, err := badges.ParseKind(b.Criterion); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", at, err))
		}
		if b.Threshold <= 0 || b.BonusXP < 0 {
			errs = append(errs, fmt.Errorf("%s: threshold must be positive and bonus not negative", at))
		}
	}

	words := make(map[string]bool)
	for i, w := range s.Gacha {
		if err := validateWord(w); err != nil {
			errs = append(errs, fmt.Errorf("gacha[%d]: %w", i, err))
		}
		if words[w.Word] {
			errs = append(errs, fmt.Errorf("gacha[%d]: duplicate word %q", i, w.Word))
		}
		words[w.Word] = true
	}
	return errors.Join(errs...)
}

func validateWord(w Word) error {
	if strings.TrimSpace(w.Word) == "" || strings.TrimSpace(w.Meaning) == "" {
		return errors.New("word and meaning are required")
	}
	if _, err := rewards.ParseRarity(w.Rarity); err != nil {
		return err
	}
	return nil
}

// Apply upserts the seed in one transaction. Entries are keyed by question
// code, badge code and word, so applying a seed twice changes nothing.
func Apply(ctx context.Context, st *store.Store, s *Seed) (Summary, error) {
	var sum Summary
	err := st.InTx(ctx, func(q *store.Queries) error {
		for _, e := range s.Questions {
			_, err := q.UpsertQuestion(ctx, store.QuestionRecord{
				Code:            e.Code,
				GameType:        e.GameType,
				Difficulty:      e.Difficulty,
				Prompt:          e.Prompt,
				Choices:         e.Choices,
				Answer:          e.Answer,
				AcceptedAnswers: e.AcceptedAnswers,
				Keywords:        e.Keywords,
				Context:         e.Context,
				TimeLimitSecs:   e.TimeLimitSecs,
			})
			if err != nil {
				return err
			}
			sum.Questions++
		}
		for _, b := range s.Badges {
			err := q.UpsertBadge(ctx, store.BadgeRecord{
				Code:        b.Code,
				Name:        b.Name,
				Description: b.Description,
				Criterion:   b.Criterion,
				Threshold:   b.Threshold,
				BonusXP:     b.BonusXP,
			})
			if err != nil {
				return err
			}
			sum.Badges++
		}
		for _, w := range s.Gacha {
			if err := q.UpsertVocab(ctx, store.VocabRecord{Word: w.Word, Meaning: w.Meaning, Rarity: w.Rarity}); err != nil {
				return err
			}
			sum.Words++
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("apply seed: %w", err)
	}
	return sum, nil
}
