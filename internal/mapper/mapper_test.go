package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobBrazier/calibre-plugins/internal/models"
	"github.com/RobBrazier/calibre-plugins/internal/testutils"
)

func TestMapBooks_MinimalFixture(t *testing.T) {
	data := map[string]interface{}{
		"books": []interface{}{
			map[string]interface{}{"id": 1},
		},
	}

	books, err := MapBooks(data)
	require.NoError(t, err)
	require.Len(t, books, 1)

	book := books[0]
	assert.Equal(t, 1, book.ID)
	assert.Empty(t, book.Title)
	assert.Empty(t, book.Slug)
	assert.Nil(t, book.Series)
	assert.Nil(t, book.Rating)
	assert.Nil(t, book.Tags)
	assert.Nil(t, book.CanonicalID)
	assert.NotNil(t, book.Editions)
	assert.Empty(t, book.Editions)
}

func TestMapBooks_NullFields(t *testing.T) {
	data := map[string]interface{}{
		"books": []interface{}{
			map[string]interface{}{
				"id":          2,
				"title":       nil,
				"rating":      nil,
				"book_series": map[string]interface{}{},
				"cached_tags": nil,
				"editions": []interface{}{
					map[string]interface{}{
						"id":                  3,
						"language":            nil,
						"publisher":           nil,
						"cached_image":        nil,
						"cached_contributors": nil,
						"release_date":        nil,
					},
				},
			},
		},
	}

	books, err := MapBooks(data)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Len(t, books[0].Editions, 1)

	e := books[0].Editions[0]
	assert.Equal(t, 3, e.ID)
	assert.Empty(t, e.Language)
	assert.Empty(t, e.Publisher)
	assert.Empty(t, e.Image)
	assert.Empty(t, e.Authors)
	assert.Nil(t, e.ReleaseDate)
}

func TestMapBooks_FullBook(t *testing.T) {
	book := testutils.CreateBook(testutils.BookOpts{
		ID:             42,
		Title:          "The Fellowship of the Ring",
		Slug:           "the-fellowship-of-the-ring",
		SeriesName:     "The Lord of the Rings",
		SeriesPosition: 1,
		Tags:           []string{"Classic"},
		Genres:         []string{"Fantasy", "Adventure"},
		Rating:         4.5,
		CanonicalID:    42,
		Description:    "One ring to rule them all.",
		Editions: []map[string]interface{}{
			testutils.CreateEdition(testutils.EditionOpts{
				ID:          7,
				Title:       "The Fellowship of the Ring",
				ISBN:        "9780261102354",
				ImageURL:    "https://assets.hardcover.app/7.jpg",
				Publisher:   "HarperCollins",
				ReleaseDate: "1991-07-04",
				UsersCount:  311,
				Contributors: []testutils.Contributor{
					{Name: "J. R. R. Tolkien"},
					{Name: "Alan Lee", Contribution: "Illustrator"},
				},
			}),
		},
	})

	books, err := MapBooks(testutils.BooksResponse(book))
	require.NoError(t, err)
	require.Len(t, books, 1)

	b := books[0]
	assert.Equal(t, 42, b.ID)
	assert.Equal(t, "the-fellowship-of-the-ring", b.Slug)
	require.NotNil(t, b.Series)
	assert.Equal(t, "The Lord of the Rings", b.Series.Name)
	require.NotNil(t, b.Series.Position)
	assert.Equal(t, 1.0, *b.Series.Position)
	require.NotNil(t, b.Rating)
	assert.Equal(t, 4.5, *b.Rating)
	require.NotNil(t, b.Tags)
	assert.Equal(t, []string{"Fantasy", "Adventure"}, b.Tags.Genre)
	assert.Equal(t, []string{"Classic"}, b.Tags.Tag)
	assert.Empty(t, b.Tags.Mood)
	require.NotNil(t, b.CanonicalID)
	assert.False(t, b.IsAlias())

	require.Len(t, b.Editions, 1)
	e := b.Editions[0]
	assert.Equal(t, 7, e.ID)
	assert.Equal(t, "9780261102354", e.ISBN13)
	assert.Equal(t, "https://assets.hardcover.app/7.jpg", e.Image)
	assert.Equal(t, "eng", e.Language)
	assert.Equal(t, "HarperCollins", e.Publisher)
	assert.Equal(t, 311, e.UsersCount)
	require.NotNil(t, e.ReleaseDate)
	assert.Equal(t, time.Date(1991, 7, 4, 0, 0, 0, 0, time.UTC), *e.ReleaseDate)
	assert.Equal(t, []models.Author{
		{Name: "J. R. R. Tolkien", Contribution: "Author"},
		{Name: "Alan Lee", Contribution: "Illustrator"},
	}, e.Authors)
}

func TestMapBooks_SeriesAsObject(t *testing.T) {
	data := map[string]interface{}{
		"books": []interface{}{
			map[string]interface{}{
				"id": 1,
				"book_series": map[string]interface{}{
					"series":   map[string]interface{}{"name": "Discworld"},
					"position": 2.5,
				},
			},
		},
	}

	books, err := MapBooks(data)
	require.NoError(t, err)
	require.NotNil(t, books[0].Series)
	assert.Equal(t, "Discworld", books[0].Series.Name)
	assert.Equal(t, 2.5, *books[0].Series.Position)
}

func TestMapBooks_NestedTagShape(t *testing.T) {
	data := map[string]interface{}{
		"books": []interface{}{
			map[string]interface{}{
				"id": 1,
				"cached_tags": map[string]interface{}{
					"Tags": []interface{}{
						map[string]interface{}{"tag": map[string]interface{}{"tag": "Dragons"}},
					},
					"Mood": []interface{}{
						map[string]interface{}{"tag": "adventurous", "count": 12},
					},
				},
			},
		},
	}

	books, err := MapBooks(data)
	require.NoError(t, err)
	require.NotNil(t, books[0].Tags)
	assert.Equal(t, []string{"Dragons"}, books[0].Tags.Tag)
	assert.Equal(t, []string{"adventurous"}, books[0].Tags.Mood)
}

func TestMapBooks_BareStringTags(t *testing.T) {
	data := map[string]interface{}{
		"books": []interface{}{
			map[string]interface{}{
				"id": 77,
				"cached_tags": map[string]interface{}{
					"Genre": []interface{}{"Fantasy", " ", map[string]interface{}{"tag": "Classics"}},
				},
			},
		},
	}

	books, err := MapBooks(data)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.NotNil(t, books[0].Tags)
	assert.Equal(t, []string{"Fantasy", "Classics"}, books[0].Tags.Genre)
}

func TestMapBooks_SkipsMalformedRecord(t *testing.T) {
	data := map[string]interface{}{
		"books": []interface{}{
			testutils.HobbitBook(),
			map[string]interface{}{"id": "not-a-number", "title": "Broken"},
			"not a book",
		},
	}

	books, err := MapBooks(data)
	require.Len(t, books, 1)
	assert.Equal(t, testutils.HobbitSlug, books[0].Slug)

	var skipped *SkippedError
	require.ErrorAs(t, err, &skipped)
	assert.Equal(t, "books", skipped.Root)
	assert.Len(t, skipped.Errors, 2)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestMapEditions_SkipsMalformedRecord(t *testing.T) {
	book := testutils.CreateBook(testutils.BookOpts{ID: 10, Title: "Dune", Slug: "dune"})
	good := testutils.CreateEdition(testutils.EditionOpts{ID: 1, Title: "Dune"})
	data := testutils.EditionsResponse(book, good)
	data["editions"] = append(data["editions"].([]interface{}), map[string]interface{}{"id": "x", "title": "Dune"})

	books, err := MapEditions(data)
	require.Len(t, books, 1)
	assert.Equal(t, 1, books[0].Editions[0].ID)

	var skipped *SkippedError
	require.ErrorAs(t, err, &skipped)
	assert.Len(t, skipped.Errors, 1)
}

func TestMapBooks_UnparseableReleaseDate(t *testing.T) {
	edition := testutils.CreateEdition(testutils.EditionOpts{ID: 1, ReleaseDate: "sometime in 1937"})
	books, err := MapBooks(testutils.BooksResponse(testutils.CreateBook(testutils.BookOpts{
		ID:       1,
		Editions: []map[string]interface{}{edition},
	})))
	require.NoError(t, err)

	e := books[0].Editions[0]
	assert.Nil(t, e.ReleaseDate)
	assert.Equal(t, "sometime in 1937", e.ReleaseDateRaw)
}

func TestMapEditions_GroupsByBook(t *testing.T) {
	book := testutils.CreateBook(testutils.BookOpts{ID: 10, Title: "Dune", Slug: "dune"})
	first := testutils.CreateEdition(testutils.EditionOpts{ID: 1, Title: "Dune", UsersCount: 50})
	second := testutils.CreateEdition(testutils.EditionOpts{ID: 2, Title: "Dune", UsersCount: 20})

	books, err := MapEditions(testutils.EditionsResponse(book, first, second))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "dune", books[0].Slug)
	require.Len(t, books[0].Editions, 2)
	assert.Equal(t, 1, books[0].Editions[0].ID)
	assert.Equal(t, 2, books[0].Editions[1].ID)
}

func TestMapEditions_MissingBook(t *testing.T) {
	data := map[string]interface{}{
		"editions": []interface{}{
			map[string]interface{}{"id": 1, "title": "Orphan"},
			map[string]interface{}{"id": 2, "title": "Another orphan"},
		},
	}

	books, err := MapEditions(data)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, 1, books[0].Editions[0].ID)
	assert.Equal(t, 2, books[1].Editions[0].ID)
}

func TestMapEditionByPK(t *testing.T) {
	books, err := MapEditionByPK(testutils.EditionByPKResponse(testutils.HobbitBook(), testutils.HobbitEdition()))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, testutils.HobbitSlug, books[0].Slug)
	require.Len(t, books[0].Editions, 1)
	assert.Equal(t, testutils.HobbitEditionID, books[0].Editions[0].ID)

	books, err = MapEditionByPK(testutils.EditionByPKResponse(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestMap_MalformedRoot(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]interface{}
		shape Shape
	}{
		{"nil payload", nil, ShapeBooks},
		{"books missing", map[string]interface{}{"editions": []interface{}{}}, ShapeBooks},
		{"editions missing", map[string]interface{}{"books": []interface{}{}}, ShapeEditions},
		{"editions_by_pk missing", map[string]interface{}{}, ShapeEditionByPK},
		{"wrong root type", map[string]interface{}{"books": "nope"}, ShapeBooks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Map(tt.data, tt.shape)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestMapSearchIDs(t *testing.T) {
	data := testutils.SearchResponse("382700", "not-a-number", "", "21179")

	ids, skipped, err := MapSearchIDs(data)
	require.NoError(t, err)
	assert.Equal(t, []int{382700, 21179}, ids)
	assert.Equal(t, []string{"not-a-number"}, skipped)
}

func TestMapSearchIDs_NumericIDs(t *testing.T) {
	data := map[string]interface{}{
		"search": map[string]interface{}{
			"results": map[string]interface{}{
				"hits": []interface{}{
					map[string]interface{}{"document": map[string]interface{}{"id": float64(5)}},
					map[string]interface{}{"document": map[string]interface{}{"id": 6}},
				},
			},
		},
	}

	ids, skipped, err := MapSearchIDs(data)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, ids)
	assert.Empty(t, skipped)
}

func TestMapSearchIDs_Empty(t *testing.T) {
	ids, _, err := MapSearchIDs(map[string]interface{}{"search": map[string]interface{}{}})
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, _, err = MapSearchIDs(map[string]interface{}{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
