// Package metadata converts a resolved Hardcover book into the flat record
// a library host stores.
package metadata

import (
	"errors"
	"strconv"
	"time"

	"github.com/RobBrazier/calibre-plugins/internal/mapper"
	"github.com/RobBrazier/calibre-plugins/internal/models"
)

// ErrNoEdition is returned for a book that carries no edition
var ErrNoEdition = errors.New("no matching edition")

// Identifier keys written to every record
const (
	KeyISBN = "isbn"
)

// Record is the host facing view of one book edition
type Record struct {
	Title       string            `json:"title" csv:"title"`
	Authors     []string          `json:"authors" csv:"-"`
	Series      string            `json:"series,omitempty" csv:"series"`
	SeriesIndex *float64          `json:"series_index,omitempty" csv:"-"`
	Identifiers map[string]string `json:"identifiers" csv:"-"`
	Comments    string            `json:"comments,omitempty" csv:"-"`
	HasCover    bool              `json:"has_cover" csv:"has_cover"`
	CoverURL    string            `json:"cover_url,omitempty" csv:"cover_url"`
	Publisher   string            `json:"publisher,omitempty" csv:"publisher"`
	Languages   []string          `json:"languages,omitempty" csv:"-"`
	Rating      *float64          `json:"rating,omitempty" csv:"-"`
	Pubdate     *time.Time        `json:"pubdate,omitempty" csv:"-"`
	Tags        []string          `json:"tags,omitempty" csv:"-"`
	// Relevance is the zero based rank the record was found at
	Relevance int `json:"source_relevance" csv:"relevance"`
}

// Logger receives warnings about data that could not be used
type Logger interface {
	Warn(msg string, fields ...map[string]interface{})
}

// Adapter builds records, writing identifiers under IdentifierName
type Adapter struct {
	IdentifierName string
	Log            Logger
}

// NewAdapter returns an adapter for the given identifier name
func NewAdapter(identifierName string, log Logger) *Adapter {
	if identifierName == "" {
		identifierName = "hardcover"
	}
	return &Adapter{IdentifierName: identifierName, Log: log}
}

// Build maps a book and its first edition to a Record
func (a *Adapter) Build(book models.Book) (*Record, error) {
	edition := book.Edition()
	if edition == nil {
		return nil, ErrNoEdition
	}

	title := edition.Title
	if title == "" {
		title = book.Title
	}

	r := &Record{
		Title:       title,
		Authors:     edition.AuthorNames(),
		Identifiers: map[string]string{},
		Comments:    book.Description,
		Publisher:   edition.Publisher,
		Tags:        tags(book.Tags),
	}

	if book.Series != nil {
		r.Series = book.Series.Name
		if p := book.Series.Position; p != nil && *p != 0 {
			index := *p
			r.SeriesIndex = &index
		}
	}

	if book.Slug != "" {
		r.Identifiers[a.IdentifierName] = book.Slug
	}
	r.Identifiers[a.IdentifierName+"-edition"] = strconv.Itoa(edition.ID)
	if edition.ISBN13 != "" {
		r.Identifiers[KeyISBN] = edition.ISBN13
	}

	if edition.Image != "" {
		r.HasCover = true
		r.CoverURL = edition.Image
	}

	if edition.Language != "" {
		r.Languages = []string{edition.Language}
	}

	if book.Rating != nil {
		rating := *book.Rating * 2
		r.Rating = &rating
	}

	r.Pubdate = a.pubdate(edition)
	return r, nil
}

func (a *Adapter) pubdate(e *models.Edition) *time.Time {
	if e.ReleaseDate != nil {
		d := *e.ReleaseDate
		return &d
	}
	if e.ReleaseDateRaw == "" {
		return nil
	}
	d, err := time.Parse(mapper.ReleaseDateLayout, e.ReleaseDateRaw)
	if err != nil {
		if a.Log != nil {
			a.Log.Warn("Unable to parse release date", map[string]interface{}{
				"edition_id":   e.ID,
				"release_date": e.ReleaseDateRaw,
			})
		}
		return nil
	}
	return &d
}

// tags merges generic tags and genres, keeping first occurrence order
func tags(t *models.Tags) []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.Tag)+len(t.Genre))
	seen := make(map[string]bool, cap(out))
	for _, list := range [][]string{t.Tag, t.Genre} {
		for _, tag := range list {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
