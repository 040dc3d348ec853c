// Package testutils builds Hardcover GraphQL payloads for tests.
package testutils

// Hobbit fixture values shared across packages
const (
	HobbitEditionID = 8548995
	HobbitSlug      = "the-hobbit"
	HobbitTitle     = "The Hobbit"
	HobbitAuthor    = "J. R. R. Tolkien"
	HobbitISBN      = "9780618968633"
	HobbitASIN      = "0007458428"
	HobbitPublisher = "Houghton Mifflin Harcourt"
	HobbitRelease   = "1937-01-01"
)

// Contributor is a name plus optional role for EditionOpts
type Contributor struct {
	Name         string
	Contribution string
}

// EditionOpts describes an edition payload
type EditionOpts struct {
	ID           int
	Title        string
	ISBN         string
	ASIN         string
	Authors      []string
	Contributors []Contributor
	ImageURL     string
	Language     string
	Publisher    string
	ReleaseDate  string
	UsersCount   int
}

// CreateEdition returns an edition map in the shape Hardcover sends
func CreateEdition(o EditionOpts) map[string]interface{} {
	contributors := make([]interface{}, 0, len(o.Authors)+len(o.Contributors))
	for _, name := range o.Authors {
		contributors = append(contributors, map[string]interface{}{
			"author":       map[string]interface{}{"name": name},
			"contribution": nil,
		})
	}
	for _, c := range o.Contributors {
		var role interface{}
		if c.Contribution != "" {
			role = c.Contribution
		}
		contributors = append(contributors, map[string]interface{}{
			"author":       map[string]interface{}{"name": c.Name},
			"contribution": role,
		})
	}

	language := o.Language
	if language == "" {
		language = "eng"
	}

	edition := map[string]interface{}{
		"id":                  o.ID,
		"title":               o.Title,
		"isbn_13":             o.ISBN,
		"asin":                nil,
		"users_count":         o.UsersCount,
		"cached_contributors": contributors,
		"language":            map[string]interface{}{"code3": language},
		"release_date":        o.ReleaseDate,
		"reading_format_id":   1,
	}
	if o.ASIN != "" {
		edition["asin"] = o.ASIN
	}
	if o.ImageURL != "" {
		edition["cached_image"] = map[string]interface{}{"url": o.ImageURL}
	}
	if o.Publisher != "" {
		edition["publisher"] = map[string]interface{}{"name": o.Publisher}
	}
	return edition
}

// BookOpts describes a book payload
type BookOpts struct {
	ID             int
	Title          string
	Slug           string
	SeriesName     string
	SeriesPosition float64
	Tags           []string
	Genres         []string
	Editions       []map[string]interface{}
	Description    string
	Rating         float64
	CanonicalID    int
	UsersCount     int
}

// CreateBook returns a single book map with nested editions
func CreateBook(o BookOpts) map[string]interface{} {
	editions := make([]interface{}, 0, len(o.Editions))
	for _, e := range o.Editions {
		editions = append(editions, e)
	}

	book := map[string]interface{}{
		"id":           o.ID,
		"title":        o.Title,
		"slug":         o.Slug,
		"description":  o.Description,
		"editions":     editions,
		"rating":       o.Rating,
		"users_count":  o.UsersCount,
		"canonical_id": nil,
		"book_series":  []interface{}{},
		"cached_tags": map[string]interface{}{
			"Tag":   tagList(o.Tags),
			"Genre": tagList(o.Genres),
		},
	}
	if o.CanonicalID != 0 {
		book["canonical_id"] = o.CanonicalID
	}
	if o.SeriesName != "" {
		book["book_series"] = []interface{}{
			map[string]interface{}{
				"series":   map[string]interface{}{"name": o.SeriesName},
				"position": o.SeriesPosition,
			},
		}
	}
	return book
}

// BooksResponse wraps books under the "books" root
func BooksResponse(books ...map[string]interface{}) map[string]interface{} {
	list := make([]interface{}, 0, len(books))
	for _, b := range books {
		list = append(list, b)
	}
	return map[string]interface{}{"books": list}
}

// EditionsResponse builds an "editions" rooted payload, nesting book under each edition
func EditionsResponse(book map[string]interface{}, editions ...map[string]interface{}) map[string]interface{} {
	list := make([]interface{}, 0, len(editions))
	for _, e := range editions {
		nested := copyMap(e)
		nested["book"] = withoutEditions(book)
		list = append(list, nested)
	}
	return map[string]interface{}{"editions": list}
}

// EditionByPKResponse builds an "editions_by_pk" rooted payload
func EditionByPKResponse(book map[string]interface{}, edition map[string]interface{}) map[string]interface{} {
	if edition == nil {
		return map[string]interface{}{"editions_by_pk": nil}
	}
	nested := copyMap(edition)
	nested["book"] = withoutEditions(book)
	return map[string]interface{}{"editions_by_pk": nested}
}

// SearchResponse builds a search payload whose hits carry ids as strings
func SearchResponse(ids ...string) map[string]interface{} {
	hits := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, map[string]interface{}{
			"document": map[string]interface{}{"id": id},
		})
	}
	return map[string]interface{}{
		"search": map[string]interface{}{
			"results": map[string]interface{}{"hits": hits},
		},
	}
}

// HobbitEdition is the edition used by the end-to-end scenario
func HobbitEdition() map[string]interface{} {
	return CreateEdition(EditionOpts{
		ID:          HobbitEditionID,
		Title:       HobbitTitle,
		ISBN:        HobbitISBN,
		Authors:     []string{HobbitAuthor},
		Publisher:   HobbitPublisher,
		ReleaseDate: HobbitRelease,
	})
}

// HobbitBook is the book used by the end-to-end scenario
func HobbitBook() map[string]interface{} {
	return CreateBook(BookOpts{
		Title:    HobbitTitle,
		Slug:     HobbitSlug,
		Rating:   5.0,
		Editions: []map[string]interface{}{HobbitEdition()},
	})
}

func tagList(names []string) []interface{} {
	out := make([]interface{}, 0, len(names))
	for _, n := range names {
		out = append(out, map[string]interface{}{"tag": n})
	}
	return out
}

func withoutEditions(book map[string]interface{}) map[string]interface{} {
	out := copyMap(book)
	delete(out, "editions")
	return out
}

func copyMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
