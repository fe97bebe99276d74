package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MalformedRowError reports a tabular row whose column count disagrees with
// the header row. Row is zero-based over data rows (the header is row -1's
// concern). It aborts that table's extraction; other documents continue.
type MalformedRowError struct {
	Row  int
	Want int
	Got  int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row %d: %d columns, header has %d", e.Row, e.Got, e.Want)
}

// Column synonyms accepted by the row mapper; first present wins.
var (
	dateColumns = []string{"date", "timestamp"}
	fromColumns = []string{"from", "sender"}
	toColumns   = []string{"to", "recipient"}
)

// TabularExtractor parses delimited text with a header row. Each data row
// becomes one record; columns that don't map onto a record field are
// preserved in the Metadata bag.
type TabularExtractor struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

func (t TabularExtractor) Extract(raw string) ([]MessageRecord, error) {
	r := csv.NewReader(strings.NewReader(raw))
	if t.Comma != 0 {
		r.Comma = t.Comma
	}
	r.FieldsPerRecord = -1 // column counts are checked per row for a precise error
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header row: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var records []MessageRecord
	for row := 0; ; row++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		if len(fields) != len(header) {
			return nil, &MalformedRowError{Row: row, Want: len(header), Got: len(fields)}
		}
		records = append(records, mapRow(header, fields))
	}
	return records, nil
}

// mapRow builds one MessageRecord from a header/fields pair, routing synonym
// columns onto record fields and everything else into Metadata.
func mapRow(header, fields []string) MessageRecord {
	byName := make(map[string]string, len(header))
	for i, name := range header {
		byName[name] = strings.TrimSpace(fields[i])
	}

	rec := MessageRecord{
		From:        firstOf(byName, fromColumns),
		To:          firstOf(byName, toColumns),
		Subject:     byName["subject"],
		Date:        ParseDate(firstOf(byName, dateColumns)),
		Body:        byName["body"],
		Attachments: []AttachmentRef{},
		Metadata:    make(map[string]string),
	}

	mapped := map[string]bool{"subject": true, "body": true}
	for _, syns := range [][]string{dateColumns, fromColumns, toColumns} {
		for _, s := range syns {
			mapped[s] = true
		}
	}
	for name, value := range byName {
		if !mapped[name] {
			rec.Metadata[name] = value
		}
	}
	return rec
}

func firstOf(byName map[string]string, names []string) string {
	for _, n := range names {
		if v, ok := byName[n]; ok && v != "" {
			return v
		}
	}
	return ""
}
