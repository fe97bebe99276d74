package extract

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	mboxlib "github.com/emersion/go-mbox"
)

// MboxExtractor streams messages out of an mbox mailbox, one record per
// message. Messages that fail to parse are skipped with a diagnostic rather
// than aborting their siblings.
type MboxExtractor struct {
	Logger *slog.Logger
}

// ExtractReader reads an mbox stream. The plain Extract path wraps it for
// callers that already hold the text in memory.
func (m MboxExtractor) ExtractReader(r io.Reader) ([]MessageRecord, error) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reader := mboxlib.NewReader(r)
	var records []MessageRecord

	for idx := 0; ; idx++ {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("mbox message %d: %w", idx, err)
		}

		msg, err := mail.ReadMessage(msgReader)
		if err != nil {
			logger.Warn("skipping unparseable mbox message", "index", idx, "error", err)
			continue
		}

		body, err := io.ReadAll(msg.Body)
		if err != nil {
			logger.Warn("skipping unreadable mbox body", "index", idx, "error", err)
			continue
		}

		rec := MessageRecord{
			From:        msg.Header.Get("From"),
			To:          msg.Header.Get("To"),
			Subject:     msg.Header.Get("Subject"),
			Body:        strings.TrimSpace(string(body)),
			Attachments: []AttachmentRef{},
		}
		if date := msg.Header.Get("Date"); date != "" {
			if t, err := mail.ParseDate(date); err == nil {
				t = t.UTC()
				rec.Date = &t
			}
		}
		records = append(records, rec)
	}
}

func (m MboxExtractor) Extract(raw string) ([]MessageRecord, error) {
	return m.ExtractReader(strings.NewReader(raw))
}
