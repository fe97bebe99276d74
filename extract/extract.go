// Package extract parses raw case-document text into normalized message records.
//
// Supported inputs:
//   - header-delimited email text (From:/To:/Subject:/Date: + blank-line body)
//   - delimited tabular exports (CSV, plus ODS spreadsheets via ods.go)
//   - threaded message logs with Date:/From:/Message: line markers
//   - mbox mailboxes (mbox.go)
//
// Every extractor is a synchronous, bounded transform: one call, one pass over
// the input, no I/O beyond what the caller hands in. Errors are scoped to the
// single unit (row, message) that caused them.
package extract

import "time"

// AttachmentRef points at an attachment mentioned by or bundled with a message.
type AttachmentRef struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// MessageRecord is the normalized output of an extractor. Records are value
// types: extractors return fresh records and never retain or mutate them.
type MessageRecord struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	Subject     string            `json:"subject"`
	Date        *time.Time        `json:"date,omitempty"`
	Body        string            `json:"body"`
	Attachments []AttachmentRef   `json:"attachments"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Extractor converts raw text into message records.
type Extractor interface {
	Extract(raw string) ([]MessageRecord, error)
}
