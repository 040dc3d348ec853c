package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobBrazier/calibre-plugins/internal/mapper"
	"github.com/RobBrazier/calibre-plugins/internal/models"
	"github.com/RobBrazier/calibre-plugins/internal/testutils"
)

type warnings struct {
	messages []string
}

func (w *warnings) Warn(msg string, _ ...map[string]interface{}) {
	w.messages = append(w.messages, msg)
}

func float(f float64) *float64 { return &f }

func TestBuild_Hobbit(t *testing.T) {
	books, err := mapper.MapBooks(testutils.BooksResponse(testutils.HobbitBook()))
	require.NoError(t, err)
	require.Len(t, books, 1)

	r, err := NewAdapter("", nil).Build(books[0])
	require.NoError(t, err)

	assert.Equal(t, testutils.HobbitTitle, r.Title)
	assert.Equal(t, []string{testutils.HobbitAuthor}, r.Authors)
	assert.Equal(t, map[string]string{
		"hardcover":         testutils.HobbitSlug,
		"hardcover-edition": "8548995",
		"isbn":              testutils.HobbitISBN,
	}, r.Identifiers)
	assert.Equal(t, testutils.HobbitPublisher, r.Publisher)
	assert.Equal(t, []string{"eng"}, r.Languages)
	require.NotNil(t, r.Pubdate)
	assert.Equal(t, time.Date(1937, 1, 1, 0, 0, 0, 0, time.UTC), *r.Pubdate)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 10.0, *r.Rating)
	assert.False(t, r.HasCover)
	assert.Empty(t, r.Series)
	assert.Nil(t, r.SeriesIndex)
}

func TestBuild_NoEdition(t *testing.T) {
	_, err := NewAdapter("hardcover", nil).Build(models.Book{Slug: "x"})
	assert.ErrorIs(t, err, ErrNoEdition)
}

func TestBuild_Series(t *testing.T) {
	tests := []struct {
		name      string
		position  *float64
		wantIndex *float64
	}{
		{"fractional", float(2.5), float(2.5)},
		{"zero suppressed", float(0), nil},
		{"missing", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := models.Book{
				Slug:     "dune",
				Series:   &models.Series{Name: "Dune", Position: tt.position},
				Editions: []models.Edition{{ID: 1, Title: "Dune"}},
			}
			r, err := NewAdapter("hardcover", nil).Build(book)
			require.NoError(t, err)
			assert.Equal(t, "Dune", r.Series)
			assert.Equal(t, tt.wantIndex, r.SeriesIndex)
		})
	}
}

func TestBuild_FallbacksAndCover(t *testing.T) {
	book := models.Book{
		Title:       "Book Title",
		Slug:        "book-title",
		Description: "A description",
		Editions: []models.Edition{{
			ID:    42,
			Image: "https://assets.hardcover.app/cover.jpg",
		}},
	}

	r, err := NewAdapter("hc", nil).Build(book)
	require.NoError(t, err)

	assert.Equal(t, "Book Title", r.Title)
	assert.Equal(t, "A description", r.Comments)
	assert.True(t, r.HasCover)
	assert.Equal(t, "https://assets.hardcover.app/cover.jpg", r.CoverURL)
	assert.Equal(t, map[string]string{"hc": "book-title", "hc-edition": "42"}, r.Identifiers)
	assert.Nil(t, r.Languages)
	assert.Nil(t, r.Rating)
}

func TestBuild_Tags(t *testing.T) {
	book := models.Book{
		Tags: &models.Tags{
			Tag:   []string{"Classic", "Dragons"},
			Genre: []string{"Fantasy", "Classic"},
			Mood:  []string{"adventurous"},
		},
		Editions: []models.Edition{{ID: 1}},
	}

	r, err := NewAdapter("hardcover", nil).Build(book)
	require.NoError(t, err)
	assert.Equal(t, []string{"Classic", "Dragons", "Fantasy"}, r.Tags)
}

func TestBuild_UnparseableDateWarns(t *testing.T) {
	log := &warnings{}
	book := models.Book{Editions: []models.Edition{{ID: 7, ReleaseDateRaw: "sometime in 1990"}}}

	r, err := NewAdapter("hardcover", log).Build(book)
	require.NoError(t, err)
	assert.Nil(t, r.Pubdate)
	assert.Equal(t, []string{"Unable to parse release date"}, log.messages)
}
