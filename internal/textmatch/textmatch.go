// Package textmatch compares free-text answers against reference answers.
//
// Both strings are normalized before comparison: Unicode NFC composition,
// full-width folding, lower-casing, zero-width character removal, trimming
// and whitespace collapsing. Exact matching additionally ignores whitespace
// entirely, because Thai and other scripts written without word spacing
// accept the same sentence with or without separators.
package textmatch

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Mode selects the comparison rule.
type Mode int

const (
	// Exact requires equality after normalization.
	Exact Mode = iota
	// Strict requires similarity >= 0.95. Used for rearranged sentences.
	Strict
	// High requires similarity >= 0.90. Used for corrected sentences.
	High
	// Loose requires similarity >= 0.80, or that either string contains the
	// other. Used for short typed meanings.
	Loose
)

func (m Mode) String() string {
	switch m {
	case Exact:
		return "exact"
	case Strict:
		return "strict"
	case High:
		return "high"
	case Loose:
		return "loose"
	}
	return "unknown"
}

// Threshold returns the minimum similarity a mode accepts. Exact returns 1.
func (m Mode) Threshold() float64 {
	switch m {
	case Strict:
		return 0.95
	case High:
		return 0.90
	case Loose:
		return 0.80
	}
	return 1
}

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return Exact, true
	case "strict":
		return Strict, true
	case "high":
		return High, true
	case "loose":
		return Loose, true
	}
	return Exact, false
}

// zeroWidth lists the invisible code points chat clients commonly insert.
var zeroWidth = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\u2060': true, // word joiner
	'\ufeff': true, // byte order mark
	'\u00ad': true, // soft hyphen
}

// Normalize returns the canonical comparison form of s.
func Normalize(s string) string {
	s = norm.NFC.String(width.Fold.String(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if zeroWidth[r] {
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// compact drops the single spaces left by Normalize.
func compact(normalized string) string {
	return strings.ReplaceAll(normalized, " ", "")
}

// Distance returns the Levenshtein distance between a and b counted in
// code points, with unit cost for insertion, deletion and substitution.
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// Similarity returns (maxLen - distance) / maxLen over code points of the
// raw strings. Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1
	}
	return float64(maxLen-Distance(a, b)) / float64(maxLen)
}

// IsMatch reports whether candidate matches reference under mode. An empty
// candidate never matches.
func IsMatch(candidate, reference string, mode Mode) bool {
	c, r := Normalize(candidate), Normalize(reference)
	if c == "" {
		return false
	}
	if c == r || compact(c) == compact(r) {
		return true
	}
	if mode == Exact {
		return false
	}
	if Similarity(c, r) >= mode.Threshold() {
		return true
	}
	if mode == Loose && r != "" {
		return strings.Contains(c, r) || strings.Contains(r, c)
	}
	return false
}

// MatchAny reports whether candidate matches any of references under mode.
func MatchAny(candidate string, references []string, mode Mode) bool {
	for _, ref := range references {
		if IsMatch(candidate, ref, mode) {
			return true
		}
	}
	return false
}

// Contains reports whether the normalized text contains the normalized term.
// Used for keyword coverage where whole-word boundaries do not exist in every
// script.
func Contains(text, term string) bool {
	t := Normalize(term)
	if t == "" {
		return false
	}
	return strings.Contains(compact(Normalize(text)), compact(t))
}
