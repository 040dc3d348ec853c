package mapper

import (
	"strings"

	"github.com/RobBrazier/calibre-plugins/internal/models"
)

type wireName struct {
	Name string `mapstructure:"name"`
}

type wireContributor struct {
	Author       *wireName `mapstructure:"author"`
	Contribution string    `mapstructure:"contribution"`
}

type wireImage struct {
	URL string `mapstructure:"url"`
}

type wireLanguage struct {
	Code3 string `mapstructure:"code3"`
}

type wireEdition struct {
	ID                 int               `mapstructure:"id"`
	Title              string            `mapstructure:"title"`
	ISBN13             string            `mapstructure:"isbn_13"`
	ASIN               string            `mapstructure:"asin"`
	UsersCount         int               `mapstructure:"users_count"`
	ReadingFormatID    int               `mapstructure:"reading_format_id"`
	CachedContributors []wireContributor `mapstructure:"cached_contributors"`
	Contributions      []wireContributor `mapstructure:"contributions"`
	CachedImage        *wireImage        `mapstructure:"cached_image"`
	Image              *wireImage        `mapstructure:"image"`
	Language           *wireLanguage     `mapstructure:"language"`
	Publisher          *wireName         `mapstructure:"publisher"`
	ReleaseDate        string            `mapstructure:"release_date"`
	Book               *wireBook         `mapstructure:"book"`
}

type wireSeriesEntry struct {
	Series   *wireName `mapstructure:"series"`
	Position *float64  `mapstructure:"position"`
}

type wireBook struct {
	ID          int                      `mapstructure:"id"`
	Title       string                   `mapstructure:"title"`
	Slug        string                   `mapstructure:"slug"`
	Rating      *float64                 `mapstructure:"rating"`
	Description string                   `mapstructure:"description"`
	CanonicalID *int                     `mapstructure:"canonical_id"`
	UsersCount  int                      `mapstructure:"users_count"`
	BookSeries  []wireSeriesEntry        `mapstructure:"book_series"`
	CachedTags  map[string][]interface{} `mapstructure:"cached_tags"`
	Editions    []wireEdition            `mapstructure:"editions"`
}

type wireSearch struct {
	Results *struct {
		Hits []struct {
			Document *struct {
				ID interface{} `mapstructure:"id"`
			} `mapstructure:"document"`
		} `mapstructure:"hits"`
	} `mapstructure:"results"`
}

func (w wireEdition) toEdition() models.Edition {
	contributors := w.CachedContributors
	if len(contributors) == 0 {
		contributors = w.Contributions
	}

	authors := make([]models.Author, 0, len(contributors))
	for _, c := range contributors {
		if c.Author == nil || strings.TrimSpace(c.Author.Name) == "" {
			continue
		}
		role := strings.TrimSpace(c.Contribution)
		if role == "" {
			role = models.DefaultContribution
		}
		authors = append(authors, models.Author{Name: strings.TrimSpace(c.Author.Name), Contribution: role})
	}

	image := ""
	switch {
	case w.CachedImage != nil && w.CachedImage.URL != "":
		image = w.CachedImage.URL
	case w.Image != nil:
		image = w.Image.URL
	}

	edition := models.Edition{
		ID:             w.ID,
		ISBN13:         strings.TrimSpace(w.ISBN13),
		ASIN:           strings.TrimSpace(w.ASIN),
		Title:          w.Title,
		Authors:        authors,
		Image:          image,
		UsersCount:     w.UsersCount,
		ReadingFormat:  w.ReadingFormatID,
		ReleaseDate:    parseReleaseDate(w.ReleaseDate),
		ReleaseDateRaw: strings.TrimSpace(w.ReleaseDate),
	}
	if w.Language != nil {
		edition.Language = strings.ToLower(strings.TrimSpace(w.Language.Code3))
	}
	if w.Publisher != nil {
		edition.Publisher = strings.TrimSpace(w.Publisher.Name)
	}
	return edition
}

func (w wireBook) toBook() models.Book {
	book := models.Book{
		ID:          w.ID,
		Title:       w.Title,
		Slug:        w.Slug,
		Rating:      w.Rating,
		Description: w.Description,
		CanonicalID: w.CanonicalID,
		UsersCount:  w.UsersCount,
		Editions:    make([]models.Edition, 0, len(w.Editions)),
	}

	for _, entry := range w.BookSeries {
		if entry.Series == nil || entry.Series.Name == "" {
			continue
		}
		book.Series = &models.Series{Name: entry.Series.Name, Position: entry.Position}
		break
	}

	if len(w.CachedTags) > 0 {
		book.Tags = &models.Tags{
			Genre:          tagNames(w.CachedTags["Genre"]),
			Mood:           tagNames(w.CachedTags["Mood"]),
			ContentWarning: tagNames(w.CachedTags["Content Warning"]),
			Tag:            append(tagNames(w.CachedTags["Tag"]), tagNames(w.CachedTags["Tags"])...),
		}
	}

	for i := range w.Editions {
		book.Editions = append(book.Editions, w.Editions[i].toEdition())
	}
	return book
}

// tagNames accepts "x", {"tag": "x"} and {"tag": {"tag": "x"}} entries
func tagNames(tags []interface{}) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if name := strings.TrimSpace(tagName(t)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func tagName(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		return tagName(t["tag"])
	default:
		return ""
	}
}
