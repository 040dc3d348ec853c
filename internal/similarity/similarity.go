// Package similarity scores how close two strings are on a 0..1 scale.
package similarity

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSensitivity is the minimum score a candidate needs to survive
const DefaultSensitivity = 0.7

// Score returns the Jaro-Winkler similarity of a and b in [0,1].
// Identical strings, including two empty ones, score 1.
func Score(a, b string) float64 {
	if a == b {
		return 1
	}
	// Fixed argument order keeps the result symmetric.
	if a > b {
		a, b = b, a
	}
	s := float64(edlib.JaroWinklerSimilarity(a, b))
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// TitleScore compares titles ignoring case, diacritics, punctuation and whitespace
func TitleScore(a, b string) float64 {
	return Score(NormalizeTitle(a), NormalizeTitle(b))
}

// AuthorScore compares author names ignoring case and surrounding whitespace
func AuthorScore(a, b string) float64 {
	return Score(NormalizeAuthor(a), NormalizeAuthor(b))
}

// NormalizeTitle folds case and diacritics and keeps only letters and digits
func NormalizeTitle(s string) string {
	s = removeDiacritics(s)
	s = cases.Fold().String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeAuthor folds case and collapses runs of whitespace
func NormalizeAuthor(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

func removeDiacritics(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	if normalized, _, err := transform.String(t, s); err == nil {
		return normalized
	}
	return s
}

// Scored pairs an item with its similarity score
type Scored[T any] struct {
	Item  T
	Score float64
}

// Rank scores every item, drops those below threshold, orders the rest by
// score descending and keeps at most topN. Equal scores keep input order.
// topN <= 0 keeps everything.
func Rank[T any](items []T, score func(T) float64, threshold float64, topN int) []Scored[T] {
	ranked := make([]Scored[T], 0, len(items))
	for _, item := range items {
		s := score(item)
		if s < threshold {
			continue
		}
		ranked = append(ranked, Scored[T]{Item: item, Score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// Best returns the highest score of candidate against any of queries
func Best(candidate string, queries []string, score func(a, b string) float64) float64 {
	best := 0.0
	for _, q := range queries {
		if s := score(q, candidate); s > best {
			best = s
		}
	}
	return best
}

// WeightedMean averages scores by weight. It returns 0 when the total weight is not positive.
func WeightedMean(scores, weights []float64) float64 {
	var sum, total float64
	for i, s := range scores {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		sum += s * w
		total += w
	}
	if total <= 0 {
		return 0
	}
	return sum / total
}
