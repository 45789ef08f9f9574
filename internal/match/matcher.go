package match

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Classification values for a checked guess.
const (
	ClassExact      = "exact"
	ClassNormalized = "normalized"
	ClassFuzzyAI    = "fuzzy-ai"
	ClassReject     = "reject"
)

// AcceptThreshold is the single character-similarity cutoff for accepting a
// guess without the semantic judge. 0.95 tolerates one edit on answers of
// twenty or more normalized characters and nothing on short ones.
const AcceptThreshold = 0.95

// MatchResult describes how a guess compared against the canonical answer.
// Similarity is character-level; Confidence is only set when the semantic
// judge accepted the guess and carries the judge's own score unmodified.
type MatchResult struct {
	Guess            string
	Answer           string
	NormalizedGuess  string
	NormalizedAnswer string
	Similarity       float64
	Confidence       float64
	Classification   string
	Reasoning        string
}

// Accepted reports whether the guess counts as correct.
func (r MatchResult) Accepted() bool {
	return r.Classification != ClassReject
}

// Normalize lowercases, decomposes to NFD, strips combining diacritics and
// drops every character outside [a-z0-9].
func Normalize(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Levenshtein computes the edit distance (unit-cost insert/delete/substitute)
// between two strings in O(len(a)*len(b)) time with a rolling row.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, minInt(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Check scores a free-text guess against the canonical answer. Pure and
// bounded; never errors. Degenerate inputs (empty after normalization)
// resolve to a reject result.
func Check(guess, answer string) MatchResult {
	res := MatchResult{
		Guess:            guess,
		Answer:           answer,
		NormalizedGuess:  Normalize(guess),
		NormalizedAnswer: Normalize(answer),
	}

	if res.NormalizedGuess == res.NormalizedAnswer {
		// Two empty strings have similarity 1.0 by definition, but an empty
		// guess is never an accepted answer.
		res.Similarity = 1.0
		if res.NormalizedGuess == "" {
			res.Classification = ClassReject
			res.Reasoning = "empty after normalization"
			return res
		}
		res.Classification = ClassExact
		res.Reasoning = "normalized strings identical"
		return res
	}

	dist := Levenshtein(res.NormalizedGuess, res.NormalizedAnswer)
	maxLen := maxInt(len([]rune(res.NormalizedGuess)), len([]rune(res.NormalizedAnswer)))
	res.Similarity = float64(maxLen-dist) / float64(maxLen)
	res.Reasoning = fmt.Sprintf("edit distance %d over max length %d", dist, maxLen)

	if res.Similarity >= AcceptThreshold {
		res.Classification = ClassNormalized
		return res
	}
	res.Classification = ClassReject
	return res
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
