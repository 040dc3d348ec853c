package identifier

import (
	"sort"

	"github.com/RobBrazier/calibre-plugins/internal/models"
	"github.com/RobBrazier/calibre-plugins/internal/similarity"
)

// refine narrows every candidate to a single edition. Books left without
// editions at any stage are dropped.
func (i *Identifier) refine(books []models.Book, q Query, fuzzy bool) []models.Book {
	books = i.preferLanguages(books)
	books = i.filterEditionsByTitle(books, q.Title)

	if len(q.Authors) > 0 {
		books = i.filterEditionsByAuthor(books, q.Authors, fuzzy)
	}

	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if best, ok := mostPopular(b.Editions); ok {
			b.Editions = []models.Edition{best}
			out = append(out, b)
		}
	}
	return out
}

// preferLanguages keeps editions in a configured language, or of unknown
// language. A book with no such edition keeps all of its editions.
func (i *Identifier) preferLanguages(books []models.Book) []models.Book {
	allowed := make(map[string]bool, len(i.opts.Languages))
	for _, l := range i.opts.Languages {
		allowed[l] = true
	}

	for idx := range books {
		kept := make([]models.Edition, 0, len(books[idx].Editions))
		for _, e := range books[idx].Editions {
			if e.Language == "" || allowed[e.Language] {
				kept = append(kept, e)
			}
		}
		if len(kept) > 0 {
			books[idx].Editions = kept
		}
	}
	return books
}

func (i *Identifier) filterEditionsByTitle(books []models.Book, title string) []models.Book {
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		reference := title
		if reference == "" {
			reference = b.Title
		}

		ranked := similarity.Rank(b.Editions, func(e models.Edition) float64 {
			candidate := e.Title
			if candidate == "" {
				candidate = b.Title
			}
			return similarity.TitleScore(reference, candidate)
		}, i.opts.MatchSensitivity, i.opts.TitleTopN)

		if len(ranked) == 0 {
			i.log.Debug("No edition title close enough", map[string]interface{}{"slug": b.Slug})
			continue
		}
		b.Editions = items(ranked)
		out = append(out, b)
	}
	return out
}

func (i *Identifier) filterEditionsByAuthor(books []models.Book, authors []string, rerank bool) []models.Book {
	type scoredBook struct {
		book models.Book
		best float64
	}

	scored := make([]scoredBook, 0, len(books))
	for _, b := range books {
		ranked := similarity.Rank(b.Editions, func(e models.Edition) float64 {
			return i.authorScore(e, authors)
		}, i.opts.MatchSensitivity, i.opts.AuthorTopN)

		if len(ranked) == 0 {
			i.log.Debug("No edition authors close enough", map[string]interface{}{"slug": b.Slug})
			continue
		}
		b.Editions = items(ranked)
		scored = append(scored, scoredBook{book: b, best: ranked[0].Score})
	}

	if rerank {
		sort.SliceStable(scored, func(a, b int) bool {
			return scored[a].best > scored[b].best
		})
	}

	out := make([]models.Book, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.book)
	}
	return out
}

// authorScore is the weighted mean, over the edition's contributors, of each
// contributor's best match against the query authors. Editions without
// contributors score exactly the threshold: they survive but rank below
// any real match.
func (i *Identifier) authorScore(e models.Edition, authors []string) float64 {
	if len(e.Authors) == 0 {
		return i.opts.MatchSensitivity
	}

	scores := make([]float64, 0, len(e.Authors))
	weights := make([]float64, 0, len(e.Authors))
	for _, a := range e.Authors {
		scores = append(scores, similarity.Best(a.Name, authors, similarity.AuthorScore))
		if a.IsPrimary() {
			weights = append(weights, 1)
		} else {
			weights = append(weights, i.opts.ContributorWeight)
		}
	}
	return similarity.WeightedMean(scores, weights)
}

// mostPopular returns the edition with the highest users count, first wins ties
func mostPopular(editions []models.Edition) (models.Edition, bool) {
	if len(editions) == 0 {
		return models.Edition{}, false
	}
	best := editions[0]
	for _, e := range editions[1:] {
		if e.UsersCount > best.UsersCount {
			best = e
		}
	}
	return best, true
}

func items[T any](ranked []similarity.Scored[T]) []T {
	out := make([]T, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Item)
	}
	return out
}
