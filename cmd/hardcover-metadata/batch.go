package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/RobBrazier/calibre-plugins/internal/identifier"
	"github.com/RobBrazier/calibre-plugins/internal/metadata"
	"github.com/RobBrazier/calibre-plugins/internal/provider"
)

// batchRow is one input line of the batch command
type batchRow struct {
	Title     string `csv:"title"`
	Authors   string `csv:"authors"`
	ISBN      string `csv:"isbn"`
	ASIN      string `csv:"asin"`
	Hardcover string `csv:"hardcover"`
}

func (r batchRow) query() identifier.Query {
	q := identifier.Query{
		Title:       r.Title,
		Authors:     splitAuthors(r.Authors),
		Identifiers: map[string]string{},
	}
	if r.ISBN != "" {
		q.Identifiers[identifier.KeyISBN] = r.ISBN
	}
	if r.ASIN != "" {
		q.Identifiers[identifier.KeyASIN] = r.ASIN
	}
	if r.Hardcover != "" {
		q.Identifiers[identifier.DefaultIdentifierName] = r.Hardcover
	}
	return q
}

// resultRow is the best match for one batchRow
type resultRow struct {
	Query     string `csv:"query"`
	Slug      string `csv:"slug"`
	EditionID string `csv:"edition_id"`
	Title     string `csv:"title"`
	Authors   string `csv:"authors"`
	ISBN      string `csv:"isbn"`
	Publisher string `csv:"publisher"`
	Pubdate   string `csv:"pubdate"`
	CoverURL  string `csv:"cover_url"`
	Matches   int    `csv:"matches"`
	Error     string `csv:"error"`
}

func readBatch(r io.Reader) ([]identifier.Query, error) {
	var rows []batchRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	queries := make([]identifier.Query, 0, len(rows))
	for _, row := range rows {
		queries = append(queries, row.query())
	}
	return queries, nil
}

func toResultRows(results []provider.BatchResult, identifierName string) []resultRow {
	rows := make([]resultRow, 0, len(results))
	for _, res := range results {
		row := resultRow{
			Query:   describeQuery(res.Query),
			Matches: len(res.Records),
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		if len(res.Records) > 0 {
			fillResult(&row, res.Records[0], identifierName)
		}
		rows = append(rows, row)
	}
	return rows
}

func fillResult(row *resultRow, r metadata.Record, identifierName string) {
	row.Slug = r.Identifiers[identifierName]
	row.EditionID = r.Identifiers[identifierName+"-edition"]
	row.Title = r.Title
	row.Authors = strings.Join(r.Authors, " & ")
	row.ISBN = r.Identifiers[metadata.KeyISBN]
	row.Publisher = r.Publisher
	row.CoverURL = r.CoverURL
	if r.Pubdate != nil {
		row.Pubdate = r.Pubdate.Format("2006-01-02")
	}
}

func writeResults(w io.Writer, rows []resultRow) error {
	return gocsv.Marshal(rows, w)
}

func describeQuery(q identifier.Query) string {
	parts := make([]string, 0, 3)
	if q.Title != "" {
		parts = append(parts, q.Title)
	}
	if len(q.Authors) > 0 {
		parts = append(parts, strings.Join(q.Authors, " & "))
	}
	for _, key := range []string{identifier.DefaultIdentifierName, identifier.KeyISBN, identifier.KeyASIN} {
		if v := q.Identifiers[key]; v != "" {
			parts = append(parts, key+":"+v)
		}
	}
	return strings.Join(parts, " / ")
}
