package errors

import (
	"sort"
	"strings"
)

// MaxSuggestions is the maximum number of suggestions to return.
const MaxSuggestions = 3

// Suggestion is a candidate correction for a misspelled label or mnemonic.
type Suggestion struct {
	Value    string
	Distance int
}

// Suggestions is an ordered list of candidate corrections, closest first.
type Suggestions []Suggestion

// String renders the suggestions as a hint, for example "did you mean 'loop'?".
// An empty list renders as an empty string.
func (s Suggestions) String() string {
	switch len(s) {
	case 0:
		return ""
	case 1:
		return "did you mean '" + s[0].Value + "'?"
	}
	quoted := make([]string, len(s))
	for i, sug := range s {
		quoted[i] = "'" + sug.Value + "'"
	}
	return "did you mean one of " + strings.Join(quoted, ", ") + "?"
}

// threshold is the largest edit distance accepted for a target of the given
// length. Short names need near-exact matches to be useful.
func threshold(n int) int {
	switch {
	case n <= 3:
		return 1
	case n <= 6:
		return 2
	default:
		return 3
	}
}

// SuggestSimilar returns up to MaxSuggestions candidates close to target.
// Comparison ignores case, so "LOOP" suggests "loop", but exact matches are
// never suggested.
func SuggestSimilar(target string, candidates []string) Suggestions {
	if target == "" || len(candidates) == 0 {
		return nil
	}
	folded := strings.ToLower(target)
	limit := threshold(len([]rune(folded)))

	seen := make(map[string]bool, len(candidates))
	var out Suggestions
	for _, candidate := range candidates {
		if candidate == "" || candidate == target || seen[candidate] {
			continue
		}
		seen[candidate] = true
		if d := levenshteinDistance(folded, strings.ToLower(candidate)); d <= limit {
			out = append(out, Suggestion{Value: candidate, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// levenshteinDistance computes the edit distance between two strings using a
// single row of the dynamic programming table.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			above := row[j]
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = min(above+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}
	return row[len(rb)]
}
