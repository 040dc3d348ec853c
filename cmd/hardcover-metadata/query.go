package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RobBrazier/calibre-plugins/internal/identifier"
)

var authorSeparator = regexp.MustCompile(`[,&]`)

// parseQuery reads "t:title", "a:authors" and "i:type:value" arguments.
// Authors are split on commas and ampersands.
func parseQuery(args []string) (identifier.Query, error) {
	q := identifier.Query{Identifiers: map[string]string{}}

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "t:"):
			q.Title = strings.TrimPrefix(arg, "t:")
		case strings.HasPrefix(arg, "a:"):
			q.Authors = splitAuthors(strings.TrimPrefix(arg, "a:"))
		case strings.HasPrefix(arg, "i:"):
			idType, value, ok := strings.Cut(strings.TrimPrefix(arg, "i:"), ":")
			if !ok || idType == "" {
				return q, fmt.Errorf("invalid identifier %q, expected i:type:value", arg)
			}
			q.Identifiers[idType] = value
		default:
			return q, fmt.Errorf("unrecognised argument %q", arg)
		}
	}
	return q, nil
}

func splitAuthors(raw string) []string {
	var authors []string
	for _, a := range authorSeparator.Split(raw, -1) {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}
