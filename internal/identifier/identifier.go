// Package identifier resolves a title, authors and identifiers to ranked
// Hardcover books, each narrowed to the single best edition.
package identifier

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RobBrazier/calibre-plugins/internal/api/hardcover"
	"github.com/RobBrazier/calibre-plugins/internal/mapper"
	"github.com/RobBrazier/calibre-plugins/internal/models"
	"github.com/RobBrazier/calibre-plugins/internal/similarity"
)

// Logger is the logging surface the resolver needs. *logger.Logger satisfies it.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...map[string]interface{}) {}
func (nopLogger) Info(string, ...map[string]interface{})  {}
func (nopLogger) Warn(string, ...map[string]interface{})  {}
func (nopLogger) Error(string, ...map[string]interface{}) {}

// Query is what the caller knows about the book
type Query struct {
	Title       string
	Authors     []string
	Identifiers map[string]string
}

func (q Query) normalized() Query {
	out := Query{
		Title:       strings.TrimSpace(q.Title),
		Identifiers: make(map[string]string, len(q.Identifiers)),
	}
	for _, a := range q.Authors {
		if a = strings.TrimSpace(a); a != "" {
			out.Authors = append(out.Authors, a)
		}
	}
	for k, v := range q.Identifiers {
		if v = strings.TrimSpace(v); v != "" {
			out.Identifiers[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return out
}

// Identifier runs the tiered lookup. It holds no per-call state and is
// safe for concurrent use.
type Identifier struct {
	client hardcover.Executor
	log    Logger
	opts   Options
}

// New creates an Identifier. A nil log discards output.
func New(client hardcover.Executor, log Logger, opts Options) *Identifier {
	if log == nil {
		log = nopLogger{}
	}
	return &Identifier{
		client: client,
		log:    log,
		opts:   opts.withDefaults(log),
	}
}

// Options returns the effective options after defaults and validation
func (i *Identifier) Options() Options {
	return i.opts
}

// Identify returns candidate books ordered best first. Every returned book
// carries exactly one edition. Transport failures are returned; malformed
// payloads only end the tier that produced them.
func (i *Identifier) Identify(ctx context.Context, query Query) ([]models.Book, error) {
	q := query.normalized()

	candidates, err := i.exactMatch(ctx, q)
	if err != nil {
		return nil, err
	}

	fuzzy := false
	if len(candidates) == 0 {
		if q.Title == "" {
			i.log.Debug("Nothing to search with, skipping lookup")
			return []models.Book{}, nil
		}
		candidates, err = i.fuzzyMatch(ctx, q)
		if err != nil {
			return nil, err
		}
		fuzzy = true
	}

	if len(candidates) == 0 {
		return []models.Book{}, nil
	}

	return i.refine(candidates, q, fuzzy), nil
}

type lookup struct {
	name      string
	query     string
	variables map[string]interface{}
	shape     mapper.Shape
}

func (i *Identifier) exactMatch(ctx context.Context, q Query) ([]models.Book, error) {
	var lookups []lookup

	if raw, ok := q.Identifiers[i.opts.EditionKey()]; ok {
		id, err := strconv.Atoi(raw)
		if err != nil {
			i.log.Warn("Ignoring non numeric edition id", map[string]interface{}{"edition": raw})
		} else {
			lookups = append(lookups, lookup{
				name:      "Finding by Edition ID",
				query:     hardcover.FindBookByEdition,
				variables: map[string]interface{}{"edition": id},
				shape:     mapper.ShapeEditionByPK,
			})
		}
	}

	if slug, ok := q.Identifiers[i.opts.IdentifierName]; ok {
		lookups = append(lookups, lookup{
			name:      "Finding by Slug",
			query:     hardcover.FindBookBySlug,
			variables: map[string]interface{}{"slug": slug},
			shape:     mapper.ShapeBooks,
		})
	}

	isbn, asin := q.Identifiers[KeyISBN], q.Identifiers[KeyASIN]
	if isbn != "" || asin != "" {
		lookups = append(lookups, lookup{
			name:      "Finding by ISBN / ASIN",
			query:     hardcover.FindBookByIsbnOrAsin,
			variables: map[string]interface{}{"isbn": isbn, "asin": asin},
			shape:     mapper.ShapeEditions,
		})
	}

	for _, l := range lookups {
		i.log.Info(l.name, l.variables)
		books, err := i.fetch(ctx, l.query, l.variables, l.shape)
		if err != nil {
			return nil, err
		}
		books, err = i.resolveCanonical(ctx, books)
		if err != nil {
			return nil, err
		}
		if len(books) > 0 {
			return books, nil
		}
	}
	return nil, nil
}

func (i *Identifier) fuzzyMatch(ctx context.Context, q Query) ([]models.Book, error) {
	text := q.Title
	if len(q.Authors) > 0 {
		text += " " + q.Authors[0]
	}

	i.log.Info("Searching for ids by Name", map[string]interface{}{"query": text})
	data, err := i.client.Execute(ctx, hardcover.SearchByName, map[string]interface{}{"query": text}, i.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	ids, skipped, err := mapper.MapSearchIDs(data)
	if err != nil {
		i.log.Warn("Discarding malformed search response", map[string]interface{}{"error": err.Error()})
		return nil, nil
	}
	for _, raw := range skipped {
		i.log.Error("Unable to parse book id", map[string]interface{}{"id": raw, "title": q.Title})
	}
	if len(ids) == 0 {
		return nil, nil
	}

	i.log.Info("Finding by book id", map[string]interface{}{"count": len(ids)})
	books, err := i.fetch(ctx, hardcover.FindBooksByIds, map[string]interface{}{"ids": ids}, mapper.ShapeBooks)
	if err != nil {
		return nil, err
	}
	books, err = i.resolveCanonical(ctx, books)
	if err != nil {
		return nil, err
	}

	ranked := similarity.Rank(books, func(b models.Book) float64 {
		s := similarity.TitleScore(q.Title, b.Title)
		i.log.Debug("Compared titles", map[string]interface{}{"query": q.Title, "candidate": b.Title, "score": s})
		return s
	}, i.opts.MatchSensitivity, i.opts.TitleTopN)

	out := make([]models.Book, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Item)
	}
	if dropped := len(books) - len(out); dropped > 0 {
		i.log.Debug("Dropped distant or surplus titles", map[string]interface{}{"dropped": dropped})
	}
	return out, nil
}

// fetch executes a lookup and maps it. A malformed payload yields no books;
// malformed records inside an otherwise valid payload are skipped.
func (i *Identifier) fetch(ctx context.Context, query string, variables map[string]interface{}, shape mapper.Shape) ([]models.Book, error) {
	data, err := i.client.Execute(ctx, query, variables, i.opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("hardcover lookup failed: %w", err)
	}

	books, err := mapper.Map(data, shape)
	if err != nil {
		var skipped *mapper.SkippedError
		if errors.As(err, &skipped) {
			for _, e := range skipped.Errors {
				i.log.Warn("Skipping malformed record", map[string]interface{}{
					"root":  skipped.Root,
					"error": e.Error(),
				})
			}
			return books, nil
		}
		if errors.Is(err, mapper.ErrMalformedResponse) {
			i.log.Warn("Discarding malformed response", map[string]interface{}{
				"root":  shape.RootKey(),
				"error": err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}
	return books, nil
}

// maxCanonicalHops bounds how far an alias chain is followed
const maxCanonicalHops = 5

// resolveCanonical swaps alias books for their canonical records, following
// chains of aliases one batch call per hop. Aliases whose chain ends in a
// missing record, loops, or exceeds maxCanonicalHops are dropped.
func (i *Identifier) resolveCanonical(ctx context.Context, books []models.Book) ([]models.Book, error) {
	byID := make(map[int]models.Book)
	for hop := 0; hop < maxCanonicalHops; hop++ {
		var ids []int
		wanted := make(map[int]bool)
		for _, b := range books {
			id, ok := pendingCanonical(b, byID)
			if ok && !wanted[id] {
				wanted[id] = true
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			break
		}

		i.log.Info("Fetching canonical books", map[string]interface{}{"ids": ids, "hop": hop + 1})
		canonical, err := i.fetch(ctx, hardcover.FindBooksByIds, map[string]interface{}{"ids": ids}, mapper.ShapeBooks)
		if err != nil {
			return nil, err
		}
		for _, c := range canonical {
			byID[c.ID] = c
		}
		// ids missing from the response resolve to nothing
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				byID[id] = models.Book{}
			}
		}
	}

	out := make([]models.Book, 0, len(books))
	seen := make(map[int]bool, len(books))
	for _, b := range books {
		if b.IsAlias() {
			c, err := followCanonical(b, byID)
			if err != nil {
				i.log.Warn("Dropping unresolved alias", map[string]interface{}{
					"book_id":      b.ID,
					"canonical_id": *b.CanonicalID,
					"error":        err.Error(),
				})
				continue
			}
			b = c
		}
		if b.ID != 0 {
			if seen[b.ID] {
				continue
			}
			seen[b.ID] = true
		}
		out = append(out, b)
	}
	return out, nil
}

// pendingCanonical walks b's alias chain through the records fetched so far
// and returns the next id that still has to be fetched.
func pendingCanonical(b models.Book, byID map[int]models.Book) (int, bool) {
	visited := map[int]bool{b.ID: true}
	for b.IsAlias() {
		id := *b.CanonicalID
		if visited[id] {
			return 0, false
		}
		visited[id] = true
		next, fetched := byID[id]
		if !fetched {
			return id, true
		}
		b = next
	}
	return 0, false
}

var (
	errCanonicalMissing = errors.New("canonical book not found")
	errCanonicalCycle   = errors.New("canonical chain loops")
	errCanonicalDepth   = errors.New("canonical chain too long")
)

// followCanonical returns the last record of b's alias chain
func followCanonical(b models.Book, byID map[int]models.Book) (models.Book, error) {
	visited := map[int]bool{b.ID: true}
	for hop := 0; b.IsAlias(); hop++ {
		id := *b.CanonicalID
		if visited[id] {
			return models.Book{}, errCanonicalCycle
		}
		if hop >= maxCanonicalHops {
			return models.Book{}, errCanonicalDepth
		}
		visited[id] = true
		next, ok := byID[id]
		if !ok || next.ID == 0 {
			return models.Book{}, errCanonicalMissing
		}
		b = next
	}
	return b, nil
}
