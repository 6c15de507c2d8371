// Package words defines the word-validation collaborator consumed by the
// match engine. Dictionary lookup itself lives outside this server; the
// engine only needs "given a tile path, a validated word and score, or
// nothing".
package words

import (
	"strings"

	"github.com/wordbound/wordbound-server/internal"
)

// Result is a validated word with its base score, before any gem bonus.
type Result struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}

// Validator scores a proposed tile path. ok is false when the path does not
// form an accepted word; in that case the turn is still consumed by the
// engine.
type Validator interface {
	Validate(path []internal.Tile) (res Result, ok bool)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(path []internal.Tile) (Result, bool)

func (f ValidatorFunc) Validate(path []internal.Tile) (Result, bool) { return f(path) }

// letterValues mirrors classic tile values so the stand-in scorer produces
// plausible numbers when no dictionary service is wired.
var letterValues = map[rune]int{
	'A': 1, 'B': 3, 'C': 3, 'D': 2, 'E': 1, 'F': 4, 'G': 2, 'H': 4,
	'I': 1, 'J': 8, 'K': 5, 'L': 1, 'M': 3, 'N': 1, 'O': 1, 'P': 3,
	'Q': 10, 'R': 1, 'S': 1, 'T': 1, 'U': 1, 'V': 4, 'W': 4, 'X': 8,
	'Y': 4, 'Z': 10,
}

// LengthScorer accepts any path of three or more tiles and scores it by
// letter values times the word length. It stands in for the real dictionary
// collaborator during local runs.
type LengthScorer struct{}

func (LengthScorer) Validate(path []internal.Tile) (Result, bool) {
	if len(path) < 3 {
		return Result{}, false
	}
	var b strings.Builder
	score := 0
	for _, t := range path {
		letter := strings.ToUpper(t.Letter)
		b.WriteString(letter)
		for _, r := range letter {
			score += letterValues[r]
		}
	}
	return Result{Word: b.String(), Score: score * len(path)}, true
}
