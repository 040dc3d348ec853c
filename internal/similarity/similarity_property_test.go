package similarity

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func titleGen() *rapid.Generator[string] {
	words := []string{
		"The", "Hobbit", "Lord", "of", "the", "Rings", "Dune", "Café",
		"Foundation", "and", "Empire", "Night", "Watch", "Guards!", "Mort",
	}
	return rapid.Custom(func(t *rapid.T) string {
		count := rapid.IntRange(0, 5).Draw(t, "wordCount")
		parts := make([]string, count)
		for i := range count {
			parts[i] = rapid.SampledFrom(words).Draw(t, "word")
		}
		return strings.Join(parts, " ")
	})
}

func TestPropertyScoreBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.String().Draw(t, "a")
		b := rapid.String().Draw(t, "b")

		s := Score(a, b)
		if s < 0 || s > 1 {
			t.Fatalf("Score(%q, %q) = %v, outside [0,1]", a, b, s)
		}
	})
}

func TestPropertyScoreSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := titleGen().Draw(t, "a")
		b := titleGen().Draw(t, "b")

		if Score(a, b) != Score(b, a) {
			t.Fatalf("Score not symmetric for %q and %q", a, b)
		}
		if TitleScore(a, b) != TitleScore(b, a) {
			t.Fatalf("TitleScore not symmetric for %q and %q", a, b)
		}
	})
}

func TestPropertyScoreIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.String().Draw(t, "a")

		if Score(a, a) != 1 {
			t.Fatalf("Score(%q, %q) != 1", a, a)
		}
		if TitleScore(a, a) != 1 {
			t.Fatalf("TitleScore(%q, %q) != 1", a, a)
		}
	})
}

func TestPropertyRankOrdered(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		scores := rapid.SliceOfN(rapid.Float64Range(0, 1), 0, 40).Draw(t, "scores")
		threshold := rapid.Float64Range(0, 1).Draw(t, "threshold")
		topN := rapid.IntRange(0, 25).Draw(t, "topN")

		idx := make([]int, len(scores))
		for i := range idx {
			idx[i] = i
		}
		ranked := Rank(idx, func(i int) float64 { return scores[i] }, threshold, topN)

		if topN > 0 && len(ranked) > topN {
			t.Fatalf("got %d results, limit %d", len(ranked), topN)
		}
		for i, r := range ranked {
			if r.Score < threshold {
				t.Fatalf("score %v below threshold %v survived", r.Score, threshold)
			}
			if i > 0 && ranked[i-1].Score < r.Score {
				t.Fatalf("results not sorted at %d", i)
			}
		}
	})
}
