package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// ReadODSRows pulls the first sheet of an OpenDocument spreadsheet as rows of
// cell strings. ODS files are ZIP archives with the sheet data in content.xml.
func ReadODSRows(path string) ([][]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var contentFile *zip.File
	for _, f := range r.File {
		if f.Name == "content.xml" {
			contentFile = f
			break
		}
	}
	if contentFile == nil {
		return nil, fmt.Errorf("content.xml not found in archive")
	}

	rc, err := contentFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open content.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var (
		rows         [][]string
		row          []string
		cell         strings.Builder
		inCell       bool
		inRow        bool
		repeat       int
		pendingEmpty int
		tableSeen    bool
	)

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "table":
				if tableSeen {
					// Only the first sheet is extracted.
					return rows, nil
				}
				tableSeen = true
			case "table-row":
				inRow = true
				row = nil
				pendingEmpty = 0
			case "table-cell":
				inCell = true
				cell.Reset()
				repeat = 1
				for _, attr := range t.Attr {
					if attr.Name.Local == "number-columns-repeated" {
						if n, err := strconv.Atoi(attr.Value); err == nil && n > 1 {
							repeat = n
						}
					}
				}
			}

		case xml.CharData:
			if inCell {
				cell.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "table-cell":
				if inCell {
					inCell = false
					value := strings.TrimSpace(cell.String())
					// Empty repeats are held back until a later cell proves
					// they sit mid-row: a trailing run is sheet-width padding
					// and must not survive the row.
					if value == "" {
						pendingEmpty += repeat
						continue
					}
					for ; pendingEmpty > 0; pendingEmpty-- {
						row = append(row, "")
					}
					for i := 0; i < repeat; i++ {
						row = append(row, value)
					}
				}
			case "table-row":
				if inRow {
					inRow = false
					pendingEmpty = 0
					if rowHasContent(row) {
						// Trailing empties were collapsed, so short rows pad
						// back out to the header width.
						if len(rows) > 0 {
							for len(row) < len(rows[0]) {
								row = append(row, "")
							}
						}
						rows = append(rows, row)
					}
				}
			}
		}
	}
	return rows, nil
}

// RecordsFromRows maps header+data rows to message records using the same
// column synonyms as the CSV path.
func RecordsFromRows(rows [][]string) ([]MessageRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	var records []MessageRecord
	for i, fields := range rows[1:] {
		if len(fields) != len(header) {
			return nil, &MalformedRowError{Row: i, Want: len(header), Got: len(fields)}
		}
		records = append(records, mapRow(header, fields))
	}
	return records, nil
}

func rowHasContent(row []string) bool {
	for _, c := range row {
		if c != "" {
			return true
		}
	}
	return false
}
