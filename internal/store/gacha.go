package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest/ent"
	"github.com/lingoquest/lingoquest/ent/gachavocab"
	"github.com/lingoquest/lingoquest/ent/vocabcollection"
)

// UpsertVocab inserts or replaces the gacha word rec.Word.
func (q *Queries) UpsertVocab(ctx context.Context, rec VocabRecord) error {
	err := q.client.GachaVocab.Create().
		SetWord(rec.Word).
		SetMeaning(rec.Meaning).
		SetRarity(rec.Rarity).
		OnConflictColumns(gachavocab.FieldWord).
		UpdateNewValues().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert vocab %q: %w", rec.Word, err)
	}
	return nil
}

// VocabByRarity returns the words of one rarity tier, or every word when
// rarity is empty.
func (q *Queries) VocabByRarity(ctx context.Context, rarity string) ([]VocabRecord, error) {
	query := q.client.GachaVocab.Query().Order(ent.Asc(gachavocab.FieldID))
	if rarity != "" {
		query = query.Where(gachavocab.Rarity(rarity))
	}
	rows, err := query.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query vocab: %w", err)
	}
	records := make([]VocabRecord, len(rows))
	for i, r := range rows {
		records[i] = vocabToRecord(r)
	}
	return records, nil
}

// CountVocab returns the number of collectible words.
func (q *Queries) CountVocab(ctx context.Context) (int, error) {
	n, err := q.client.GachaVocab.Query().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count vocab: %w", err)
	}
	return n, nil
}

// AddToCollection adds one copy of vocabID to the user's collection. isNew
// reports a first acquisition. Two concurrent first acquisitions of the same
// word race on the unique (user, word) index and the loser gets
// apperr.ErrConflict.
func (q *Queries) AddToCollection(ctx context.Context, userID, vocabID int, now time.Time) (isNew bool, err error) {
	now = now.UTC()
	n, err := q.client.VocabCollection.Update().
		Where(
			vocabcollection.UserID(userID),
			vocabcollection.VocabID(vocabID),
		).
		AddCopies(1).
		SetLastAcquiredAt(now).
		Save(ctx)
	if err != nil {
		return false, fmt.Errorf("update collection: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	err = q.client.VocabCollection.Create().
		SetUserID(userID).
		SetVocabID(vocabID).
		SetCopies(1).
		SetFirstAcquiredAt(now).
		SetLastAcquiredAt(now).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert collection entry: %w", mapErr(err))
	}
	return true, nil
}

// CollectionSize returns the number of distinct words a user owns.
func (q *Queries) CollectionSize(ctx context.Context, userID int) (int, error) {
	n, err := q.client.VocabCollection.Query().
		Where(vocabcollection.UserID(userID)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count collection: %w", err)
	}
	return n, nil
}

// Collection returns the user's words with their copy counts.
func (q *Queries) Collection(ctx context.Context, userID int) ([]CollectionEntry, error) {
	rows, err := q.client.VocabCollection.Query().
		Where(vocabcollection.UserID(userID)).
		Order(ent.Asc(vocabcollection.FieldFirstAcquiredAt), ent.Asc(vocabcollection.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r.VocabID
	}
	words, err := q.client.GachaVocab.Query().Where(gachavocab.IDIn(ids...)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query collection words: %w", err)
	}
	byID := make(map[int]*ent.GachaVocab, len(words))
	for _, w := range words {
		byID[w.ID] = w
	}

	entries := make([]CollectionEntry, 0, len(rows))
	for _, r := range rows {
		w, ok := byID[r.VocabID]
		if !ok {
			continue
		}
		entries = append(entries, CollectionEntry{
			Vocab:           vocabToRecord(w),
			Copies:          r.Copies,
			FirstAcquiredAt: r.FirstAcquiredAt,
			LastAcquiredAt:  r.LastAcquiredAt,
		})
	}
	return entries, nil
}

func vocabToRecord(r *ent.GachaVocab) VocabRecord {
	return VocabRecord{ID: r.ID, Word: r.Word, Meaning: r.Meaning, Rarity: r.Rarity}
}
