// Package rewards arbitrates the random rewards: the daily spin wheel, the
// mystery box and the vocabulary gacha. Draws walk a discrete probability
// table with a uniform sample; cooldowns and daily limits are enforced by
// conditional writes in the store and reported as typed results.
package rewards

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// Source supplies randomness. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// DefaultSource draws from the math/rand/v2 global generator.
var DefaultSource Source = globalSource{}

// Entry is one outcome of a Table with its probability.
type Entry[T any] struct {
	Value  T
	Weight float64
}

// Table is a discrete probability distribution.
type Table[T any] struct {
	entries []Entry[T]
}

// weightTolerance absorbs float rounding in hand-written tables.
const weightTolerance = 1e-9

// NewTable validates that every weight is positive and that they sum to 1.
func NewTable[T any](entries ...Entry[T]) (Table[T], error) {
	if len(entries) == 0 {
		return Table[T]{}, errors.New("empty reward table")
	}
	sum := 0.0
	for i, e := range entries {
		if e.Weight <= 0 {
			return Table[T]{}, fmt.Errorf("entry %d: weight %v must be positive", i, e.Weight)
		}
		sum += e.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return Table[T]{}, fmt.Errorf("weights sum to %v, want 1", sum)
	}
	return Table[T]{entries: append([]Entry[T](nil), entries...)}, nil
}

// MustTable is NewTable for package-level tables.
func MustTable[T any](entries ...Entry[T]) Table[T] {
	t, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Pick returns the outcome whose cumulative weight band contains u, a
// sample from [0, 1). Values outside the range are clamped.
func (t Table[T]) Pick(u float64) T {
	acc := 0.0
	for _, e := range t.entries {
		acc += e.Weight
		if u < acc {
			return e.Value
		}
	}
	return t.entries[len(t.entries)-1].Value
}

// Draw samples the table with src.
func (t Table[T]) Draw(src Source) T {
	return t.Pick(src.Float64())
}

// Entries returns a copy of the table's outcomes.
func (t Table[T]) Entries() []Entry[T] {
	return append([]Entry[T](nil), t.entries...)
}
