package identifier

import (
	"strings"
	"time"

	"github.com/RobBrazier/calibre-plugins/internal/similarity"
)

const (
	// DefaultIdentifierName is the identifier key holding the Hardcover slug
	DefaultIdentifierName = "hardcover"
	// DefaultTimeout bounds every single lookup
	DefaultTimeout = 30 * time.Second
	// DefaultTitleTopN caps candidates kept after title scoring
	DefaultTitleTopN = 20
	// DefaultAuthorTopN caps editions kept after author scoring
	DefaultAuthorTopN = 10
	// DefaultContributorWeight weights contributors credited with a role other
	// than "Author" against a primary author's 1.0. Below 1 an edition matched
	// only through its illustrator or translator scores lower; above 1 it
	// scores higher.
	DefaultContributorWeight = 0.5
	// DefaultLanguage is used when no valid language is configured
	DefaultLanguage = "eng"
)

// Identifier keys understood besides the Hardcover ones
const (
	KeyISBN = "isbn"
	KeyASIN = "mobi-asin"
)

// Options configures an Identifier. Zero values fall back to the defaults above.
type Options struct {
	IdentifierName    string
	MatchSensitivity  float64
	Languages         []string
	Timeout           time.Duration
	TitleTopN         int
	AuthorTopN        int
	ContributorWeight float64
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		IdentifierName:    DefaultIdentifierName,
		MatchSensitivity:  similarity.DefaultSensitivity,
		Languages:         []string{DefaultLanguage},
		Timeout:           DefaultTimeout,
		TitleTopN:         DefaultTitleTopN,
		AuthorTopN:        DefaultAuthorTopN,
		ContributorWeight: DefaultContributorWeight,
	}
}

func (o Options) withDefaults(log Logger) Options {
	d := DefaultOptions()
	if o.IdentifierName == "" {
		o.IdentifierName = d.IdentifierName
	}
	if o.MatchSensitivity <= 0 || o.MatchSensitivity > 1 {
		o.MatchSensitivity = d.MatchSensitivity
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.TitleTopN <= 0 {
		o.TitleTopN = d.TitleTopN
	}
	if o.AuthorTopN <= 0 {
		o.AuthorTopN = d.AuthorTopN
	}
	if o.ContributorWeight <= 0 {
		o.ContributorWeight = d.ContributorWeight
	}
	o.Languages = ValidateLanguages(log, o.Languages)
	return o
}

// EditionKey is the identifier key holding a Hardcover edition id
func (o Options) EditionKey() string {
	return o.IdentifierName + "-edition"
}

// ValidateLanguages keeps three letter codes, lower cased and deduplicated.
// Anything else is dropped with a warning. An empty result becomes ["eng"].
func ValidateLanguages(log Logger, languages []string) []string {
	if log == nil {
		log = nopLogger{}
	}
	valid := make([]string, 0, len(languages))
	seen := make(map[string]bool, len(languages))
	for _, lang := range languages {
		code := strings.ToLower(strings.TrimSpace(lang))
		if len([]rune(code)) != 3 {
			log.Warn("Ignoring invalid language code", map[string]interface{}{"language": lang})
			continue
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		valid = append(valid, code)
	}
	if len(valid) == 0 {
		return []string{DefaultLanguage}
	}
	return valid
}

// ParseLanguages splits a comma separated list such as "eng, fre"
func ParseLanguages(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
