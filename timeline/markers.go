package timeline

import (
	"regexp"
	"time"

	"github.com/hazyhaar/casefile/extract"
)

var (
	// dateTokenRe finds date-like tokens in free text: ISO dates and
	// month-name forms.
	dateTokenRe = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2},? \d{4}\b`)

	// fileTokenRe finds filename literals mentioned in a body, which act as
	// explicit cross-reference markers for the correlator.
	fileTokenRe = regexp.MustCompile(`\b[\w][\w.-]*\.(?:pdf|ods|csv|txt|docx|doc|xlsx|jpg|jpeg|png|eml|mbox)\b`)

	emailRe = regexp.MustCompile(`\b[\w.+-]+@[\w.-]+\.\w+\b`)
)

// findDateMarkers returns the raw date phrases in text, in order.
func findDateMarkers(text string) []string {
	return dateTokenRe.FindAllString(text, -1)
}

// findFileMarkers returns filename literals mentioned in text.
func findFileMarkers(text string) []string {
	return fileTokenRe.FindAllString(text, -1)
}

// findActors returns e-mail addresses mentioned in text, deduplicated in
// first-seen order.
func findActors(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range emailRe.FindAllString(text, -1) {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// parseMarkers converts date phrases to timestamps, dropping the unparseable.
func parseMarkers(markers []string) []time.Time {
	var out []time.Time
	for _, m := range markers {
		if t := extract.ParseDate(m); t != nil {
			out = append(out, *t)
		}
	}
	return out
}
