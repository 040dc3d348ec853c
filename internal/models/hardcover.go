package models

import "time"

// DefaultContribution is the role assumed when Hardcover omits one
const DefaultContribution = "Author"

// Author is a contributor credited on an edition
type Author struct {
	Name         string `json:"name"`
	Contribution string `json:"contribution"`
}

// IsPrimary reports whether the contributor is credited as the author
func (a Author) IsPrimary() bool {
	return a.Contribution == "" || a.Contribution == DefaultContribution
}

// Edition represents a single published edition of a book
type Edition struct {
	ID             int        `json:"id"`
	ISBN13         string     `json:"isbn_13,omitempty"`
	ASIN           string     `json:"asin,omitempty"`
	Title          string     `json:"title"`
	Authors        []Author   `json:"authors"`
	Image          string     `json:"image,omitempty"`
	Language       string     `json:"language,omitempty"`
	Publisher      string     `json:"publisher,omitempty"`
	UsersCount     int        `json:"users_count"`
	ReadingFormat  int        `json:"reading_format_id,omitempty"`
	ReleaseDate    *time.Time `json:"release_date,omitempty"`
	ReleaseDateRaw string     `json:"-"`
}

// AuthorNames returns the contributor names in credit order
func (e Edition) AuthorNames() []string {
	names := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		names = append(names, a.Name)
	}
	return names
}

// Series is the featured series a book belongs to
type Series struct {
	Name     string   `json:"name"`
	Position *float64 `json:"position,omitempty"`
}

// Tags groups the cached tag lists Hardcover keeps per book
type Tags struct {
	Genre          []string `json:"genre"`
	Mood           []string `json:"mood"`
	ContentWarning []string `json:"content_warning"`
	Tag            []string `json:"tag"`
}

// Book represents a Hardcover book together with candidate editions.
// Once resolved it carries exactly one edition.
type Book struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Series      *Series   `json:"series,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Tags        *Tags     `json:"tags,omitempty"`
	Description string    `json:"description,omitempty"`
	Editions    []Edition `json:"editions"`
	CanonicalID *int      `json:"canonical_id,omitempty"`
	UsersCount  int       `json:"users_count"`
}

// IsAlias reports whether the book points at a different canonical record
func (b Book) IsAlias() bool {
	return b.CanonicalID != nil && *b.CanonicalID != b.ID
}

// Edition returns the first edition, or nil when there is none
func (b Book) Edition() *Edition {
	if len(b.Editions) == 0 {
		return nil
	}
	return &b.Editions[0]
}
