// Package mapper turns raw Hardcover GraphQL payloads into domain records.
//
// Payloads are decoded with weak typing into private wire structs, then
// converted in one place where every missing field gets its default. A
// missing root key fails the whole payload; a single record that cannot be
// decoded is skipped and reported through SkippedError.
package mapper

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/RobBrazier/calibre-plugins/internal/models"
)

// ErrMalformedResponse is returned when a payload lacks its root key
var ErrMalformedResponse = errors.New("malformed response")

// SkippedError reports records that could not be decoded. It is returned
// together with the records that did decode.
type SkippedError struct {
	Root   string
	Errors []error
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped %d malformed %s record(s): %v", len(e.Errors), e.Root, errors.Join(e.Errors...))
}

func (e *SkippedError) Unwrap() []error {
	return e.Errors
}

// ReleaseDateLayout is the layout Hardcover uses for release dates
const ReleaseDateLayout = "2006-01-02"

// Shape identifies which root key a payload is expected to carry
type Shape int

const (
	// ShapeBooks is a "books" list with nested editions
	ShapeBooks Shape = iota
	// ShapeEditions is an "editions" list with a nested book each
	ShapeEditions
	// ShapeEditionByPK is a single "editions_by_pk" object, possibly null
	ShapeEditionByPK
)

// RootKey returns the top level key for the shape
func (s Shape) RootKey() string {
	switch s {
	case ShapeEditions:
		return "editions"
	case ShapeEditionByPK:
		return "editions_by_pk"
	default:
		return "books"
	}
}

func (s Shape) String() string {
	return s.RootKey()
}

// Map decodes data according to shape
func Map(data map[string]interface{}, shape Shape) ([]models.Book, error) {
	switch shape {
	case ShapeEditions:
		return MapEditions(data)
	case ShapeEditionByPK:
		return MapEditionByPK(data)
	default:
		return MapBooks(data)
	}
}

// MapBooks maps a payload rooted at "books"
func MapBooks(data map[string]interface{}) ([]models.Book, error) {
	root, err := rootValue(data, ShapeBooks)
	if err != nil {
		return nil, err
	}

	items, err := rootList(root, ShapeBooks)
	if err != nil {
		return nil, err
	}

	books := make([]models.Book, 0, len(items))
	var skipped []error
	for idx, item := range items {
		var wire wireBook
		if err := decode(item, &wire); err != nil {
			skipped = append(skipped, fmt.Errorf("record %d: %w", idx, err))
			continue
		}
		books = append(books, wire.toBook())
	}
	return books, skippedError(ShapeBooks, skipped)
}

// MapEditions maps a payload rooted at "editions". Editions that share a
// book are grouped under one Book in first-seen order.
func MapEditions(data map[string]interface{}) ([]models.Book, error) {
	root, err := rootValue(data, ShapeEditions)
	if err != nil {
		return nil, err
	}

	items, err := rootList(root, ShapeEditions)
	if err != nil {
		return nil, err
	}

	wire := make([]wireEdition, 0, len(items))
	var skipped []error
	for idx, item := range items {
		var edition wireEdition
		if err := decode(item, &edition); err != nil {
			skipped = append(skipped, fmt.Errorf("record %d: %w", idx, err))
			continue
		}
		wire = append(wire, edition)
	}
	return groupByBook(wire), skippedError(ShapeEditions, skipped)
}

// MapEditionByPK maps a payload rooted at "editions_by_pk". A null edition
// yields no books.
func MapEditionByPK(data map[string]interface{}) ([]models.Book, error) {
	root, err := rootValue(data, ShapeEditionByPK)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return []models.Book{}, nil
	}

	var wire wireEdition
	if err := decode(root, &wire); err != nil {
		return nil, err
	}
	return groupByBook([]wireEdition{wire}), nil
}

// MapSearchIDs extracts book ids from search.results.hits[].document.id in
// hit order. Ids that are not integers are returned in skipped.
func MapSearchIDs(data map[string]interface{}) (ids []int, skipped []string, err error) {
	root, ok := data["search"]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, "search")
	}

	var wire wireSearch
	if err := decode(root, &wire); err != nil {
		return nil, nil, err
	}

	ids = []int{}
	if wire.Results == nil {
		return ids, nil, nil
	}
	for _, hit := range wire.Results.Hits {
		if hit.Document == nil || hit.Document.ID == nil {
			continue
		}
		if s, isString := hit.Document.ID.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		id, ok := parseID(hit.Document.ID)
		if !ok {
			skipped = append(skipped, fmt.Sprint(hit.Document.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, skipped, nil
}

func rootValue(data map[string]interface{}, shape Shape) (interface{}, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}
	root, ok := data[shape.RootKey()]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedResponse, shape.RootKey())
	}
	return root, nil
}

// rootList returns the elements of a list root. A null root is an empty list.
func rootList(root interface{}, shape Shape) ([]interface{}, error) {
	switch v := root.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return v, nil
	case []map[string]interface{}:
		items := make([]interface{}, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: %q is %T, not a list", ErrMalformedResponse, shape.RootKey(), root)
	}
}

func skippedError(shape Shape, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &SkippedError{Root: shape.RootKey(), Errors: errs}
}

func decode(input interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func parseID(v interface{}) (int, bool) {
	switch id := v.(type) {
	case int:
		return id, true
	case int64:
		return int(id), true
	case float64:
		if id != float64(int(id)) {
			return 0, false
		}
		return int(id), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func groupByBook(editions []wireEdition) []models.Book {
	books := make([]models.Book, 0, len(editions))
	index := make(map[int]int)

	for i := range editions {
		edition := editions[i].toEdition()

		var wb wireBook
		if editions[i].Book != nil {
			wb = *editions[i].Book
		}

		if wb.ID != 0 {
			if pos, seen := index[wb.ID]; seen {
				books[pos].Editions = append(books[pos].Editions, edition)
				continue
			}
			index[wb.ID] = len(books)
		}

		book := wb.toBook()
		book.Editions = []models.Edition{edition}
		books = append(books, book)
	}
	return books
}

func parseReleaseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(ReleaseDateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}
