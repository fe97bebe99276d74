package extract

import (
	"regexp"
	"strings"
)

// headerRes maps a recognized header name to its anchored, case-insensitive
// line pattern. Extraction is order-independent: each header is looked up on
// its own, so reordered or missing headers degrade to empty values instead of
// failing.
var headerRes = map[string]*regexp.Regexp{
	"from":    regexp.MustCompile(`(?im)^from:[ \t]*(.*)$`),
	"to":      regexp.MustCompile(`(?im)^to:[ \t]*(.*)$`),
	"subject": regexp.MustCompile(`(?im)^subject:[ \t]*(.*)$`),
	"date":    regexp.MustCompile(`(?im)^date:[ \t]*(.*)$`),
}

var blankLineRe = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)

// HeaderExtractor parses a single header-delimited message block:
// From:/To:/Subject:/Date: header lines followed by a blank line and the body.
type HeaderExtractor struct{}

// Extract produces exactly one record per input block. Missing headers
// default to the empty string; an unparseable or absent date yields a nil
// Date, never an error.
func (HeaderExtractor) Extract(raw string) ([]MessageRecord, error) {
	headers := tokenizeHeaders(raw)

	body := raw
	if loc := blankLineRe.FindStringIndex(raw); loc != nil {
		body = raw[loc[1]:]
	}

	rec := MessageRecord{
		From:        headers["from"],
		To:          headers["to"],
		Subject:     headers["subject"],
		Date:        ParseDate(headers["date"]),
		Body:        strings.TrimSpace(body),
		Attachments: []AttachmentRef{},
	}
	return []MessageRecord{rec}, nil
}

// tokenizeHeaders returns a map from recognized header name to its first
// value in the text. Unrecognized lines are ignored.
func tokenizeHeaders(raw string) map[string]string {
	out := make(map[string]string, len(headerRes))
	for name, re := range headerRes {
		if m := re.FindStringSubmatch(raw); m != nil {
			out[name] = strings.TrimSpace(m[1])
		} else {
			out[name] = ""
		}
	}
	return out
}
