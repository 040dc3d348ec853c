package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/RobBrazier/calibre-plugins/internal/metadata"
)

// formatRecord renders one result the way the identify command prints it
func formatRecord(rank int, r metadata.Record, identifierName string) string {
	pubdate := "Unknown"
	if r.Pubdate != nil {
		pubdate = r.Pubdate.Format("2006-01-02")
	}
	return fmt.Sprintf("(%d) - %s: %s [%s]", rank, r.Identifiers[identifierName], r.Title, pubdate)
}

func printRecords(w io.Writer, records []metadata.Record, identifierName string, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []metadata.Record{}
		}
		return enc.Encode(records)
	}

	for i, r := range records {
		if _, err := fmt.Fprintln(w, formatRecord(i+1, r, identifierName)); err != nil {
			return err
		}
	}
	return nil
}
