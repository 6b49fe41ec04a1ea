package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lingoquest/lingoquest/internal/games"
	"github.com/lingoquest/lingoquest/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestDefault_CoversEveryGame(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	covered := map[string]bool{}
	for _, q := range s.Questions {
		covered[q.GameType] = true
	}
	for _, spec := range games.All() {
		assert.True(t, covered[string(spec.Type)], "no starter question for %s", spec.Type)
	}
	assert.NotEmpty(t, s.Badges)
	assert.NotEmpty(t, s.Gacha)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "questions:\n  - code: a\n    gametype: multiple_choice\n", "gametype"},
		{"unknown game", "questions:\n  - {code: a, gameType: karaoke, difficulty: EASY, prompt: p, answer: x}\n", "karaoke"},
		{"bad difficulty", "questions:\n  - {code: a, gameType: vocab_meaning, difficulty: TRIVIAL, prompt: p, answer: x}\n", "TRIVIAL"},
		{"answer not a choice", "questions:\n  - {code: a, gameType: multiple_choice, difficulty: EASY, prompt: p, choices: [x, y], answer: z}\n", "not one of the choices"},
		{"open ended without keywords", "questions:\n  - {code: a, gameType: summarize, difficulty: EASY, prompt: p}\n", "needs keywords"},
		{"duplicate code", "questions:\n  - {code: a, gameType: vocab_meaning, difficulty: EASY, prompt: p, answer: x}\n  - {code: a, gameType: vocab_meaning, difficulty: EASY, prompt: p, answer: x}\n", "duplicate code"},
		{"bad criterion", "badges:\n  - {code: b, name: B, criterion: cookies_eaten, threshold: 1}\n", "cookies_eaten"},
		{"bad rarity", "gacha:\n  - {word: w, meaning: m, rarity: mythic}\n", "mythic"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	s, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s.Questions)
}

func TestApply_Idempotent(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	s, err := Default()
	require.NoError(t, err)

	sum, err := Apply(ctx, st, s)
	require.NoError(t, err)
	assert.Equal(t, len(s.Questions), sum.Questions)

	_, err = Apply(ctx, st, s)
	require.NoError(t, err)

	counts, err := st.Queries().CountQuestions(ctx)
	require.NoError(t, err)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, len(s.Questions), total)

	words, err := st.Queries().CountVocab(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(s.Gacha), words)

	defs, err := st.Queries().Badges(ctx)
	require.NoError(t, err)
	assert.Len(t, defs, len(s.Badges))
}

func TestImportVocab_CSV(t *testing.T) {
	st := openStore(t)
	path := filepath.Join(t.TempDir(), "words.csv")
	data := "Meaning,Word,Rarity\nแมว,cat,\nมังกร,dragon,Legendary\n,,\nผี,ghost,mythic\nno word,,common\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	res, err := ImportVocab(context.Background(), st, path, DefaultImportConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "row 5")

	words, err := st.Queries().VocabByRarity(context.Background(), "legendary")
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "dragon", words[0].Word)

	common, err := st.Queries().VocabByRarity(context.Background(), "common")
	require.NoError(t, err)
	require.Len(t, common, 1)
	assert.Equal(t, "แมว", common[0].Meaning)
}

func TestImportVocab_Workbook(t *testing.T) {
	st := openStore(t)
	path := filepath.Join(t.TempDir(), "words.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]string{
		{"apple", "แอปเปิล", "common"},
		{"courage", "ความกล้าหาญ", "rare"},
	}
	for i, r := range rows {
		for j, v := range r {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, name, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	res, err := ImportVocab(context.Background(), st, path, DefaultImportConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	n, err := st.Queries().CountVocab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestImportVocab_UnsupportedType(t *testing.T) {
	_, err := ImportVocab(context.Background(), openStore(t), "words.txt", DefaultImportConfig(), nil)
	assert.Error(t, err)
}
