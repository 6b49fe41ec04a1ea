package content

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/rewards"
	"github.com/lingoquest/lingoquest/internal/store"
)

// ImportConfig selects the sheet and columns of a vocabulary file. Columns
// are found by header name when the first row has one, else by position.
type ImportConfig struct {
	SheetName     string
	WordHeader    string
	MeaningHeader string
	RarityHeader  string
	// DefaultRarity applies to rows whose rarity cell is blank.
	DefaultRarity rewards.Rarity
}

// DefaultImportConfig reads the first sheet with word, meaning and rarity
// columns.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordHeader:    "word",
		MeaningHeader: "meaning",
		RarityHeader:  "rarity",
		DefaultRarity: rewards.RarityCommon,
	}
}

// ImportResult reports an import. Bad rows are skipped and listed in Errors.
type ImportResult struct {
	Processed int
	Imported  int
	Skipped   int
	Errors    []string
}

// ImportVocab reads gacha words from an .xlsx or .csv file and upserts them.
func ImportVocab(ctx context.Context, st *store.Store, path string, cfg ImportConfig, log *logger.Logger) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readSheet(path, cfg.SheetName)
	default:
		return nil, fmt.Errorf("import vocab: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return importRows(ctx, st, rows, cfg, log)
}

func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
}

// columns maps header names to indexes. ok is false when the first row is
// data rather than a header.
func columns(header []string, cfg ImportConfig) (word, meaning, rarity int, ok bool) {
	word, meaning, rarity = -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case cfg.WordHeader:
			word = i
		case cfg.MeaningHeader:
			meaning = i
		case cfg.RarityHeader:
			rarity = i
		}
	}
	if word < 0 || meaning < 0 {
		return 0, 1, 2, false
	}
	return word, meaning, rarity, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func importRows(ctx context.Context, st *store.Store, rows [][]string, cfg ImportConfig, log *logger.Logger) (*ImportResult, error) {
	res := &ImportResult{Errors: []string{}}
	if len(rows) == 0 {
		return res, nil
	}
	if cfg.DefaultRarity == "" {
		cfg.DefaultRarity = rewards.RarityCommon
	}

	wi, mi, ri, header := columns(rows[0], cfg)
	start := 0
	if header {
		start = 1
	}

	err := st.InTx(ctx, func(q *store.Queries) error {
		for n, row := range rows[start:] {
			line := start + n + 1
			w := Word{Word: cell(row, wi), Meaning: cell(row, mi), Rarity: strings.ToLower(cell(row, ri))}
			if w.Word == "" && w.Meaning == "" {
				continue
			}
			res.Processed++
			if w.Rarity == "" {
				w.Rarity = string(cfg.DefaultRarity)
			}
			if err := validateWord(w); err != nil {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
				continue
			}
			if err := q.UpsertVocab(ctx, store.VocabRecord{Word: w.Word, Meaning: w.Meaning, Rarity: w.Rarity}); err != nil {
				return err
			}
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import vocab: %w", err)
	}
	log.Info("vocabulary imported", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}
