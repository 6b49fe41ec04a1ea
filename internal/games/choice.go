package games

import (
	"strings"

	"github.com/lingoquest/lingoquest/internal/textmatch"
)

var choiceLetters = []string{"A", "B", "C", "D", "E", "F"}

// Thai answer sheets label choices ก ข ค ง and number them with Thai digits.
var choiceRunes = map[rune]int{
	'a': 0, 'b': 1, 'c': 2, 'd': 3, 'e': 4, 'f': 5,
	'1': 0, '2': 1, '3': 2, '4': 3, '5': 4, '6': 5,
	'ก': 0, 'ข': 1, 'ค': 2, 'ง': 3, 'จ': 4, 'ฉ': 5,
	'๑': 0, '๒': 1, '๓': 2, '๔': 3, '๕': 4, '๖': 5,
}

// CanonicalChoice maps a raw answer to a choice letter A, B, C, ... The
// answer may be a Latin or Thai letter, an ASCII or Thai digit, full-width
// forms of these, optionally wrapped as "(b)" or "b." or prefixed with
// "ข้อ", or the text of one of choices.
func CanonicalChoice(raw string, choices []string) (string, bool) {
	s := textmatch.Normalize(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "ข้อ"))
	s = strings.Trim(s, "()[].:) ")
	if s == "" {
		return "", false
	}

	limit := len(choices)
	if limit < 4 {
		limit = 4
	}
	if limit > len(choiceLetters) {
		limit = len(choiceLetters)
	}

	if r := []rune(s); len(r) == 1 {
		if idx, ok := choiceRunes[r[0]]; ok && idx < limit {
			return choiceLetters[idx], true
		}
	}

	for i, c := range choices {
		if i >= len(choiceLetters) {
			break
		}
		if textmatch.IsMatch(s, c, textmatch.Exact) {
			return choiceLetters[i], true
		}
	}
	return "", false
}
