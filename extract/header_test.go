package extract

import (
	"testing"
	"time"
)

func TestHeaderExtract_Full(t *testing.T) {
	raw := "From: a@x.com\nTo: b@x.com\nSubject: Hi\nDate: Jan 1 2024\n\nBody text."

	records, err := HeaderExtractor{}.Extract(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.From != "a@x.com" {
		t.Errorf("from: got %q", rec.From)
	}
	if rec.To != "b@x.com" {
		t.Errorf("to: got %q", rec.To)
	}
	if rec.Subject != "Hi" {
		t.Errorf("subject: got %q", rec.Subject)
	}
	if rec.Body != "Body text." {
		t.Errorf("body: got %q", rec.Body)
	}
	if rec.Date == nil {
		t.Fatal("expected parsed date")
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !rec.Date.Equal(want) {
		t.Errorf("date: got %v, want %v", rec.Date, want)
	}
	if rec.Attachments == nil {
		t.Error("attachments must be an empty slice, not nil")
	}
}

func TestHeaderExtract_MissingHeaders(t *testing.T) {
	// Missing headers default to empty; date stays nil. Never an error.
	records, err := HeaderExtractor{}.Extract("Subject: only a subject\n\nhello")
	if err != nil {
		t.Fatal(err)
	}
	rec := records[0]
	if rec.From != "" || rec.To != "" {
		t.Errorf("expected empty from/to, got %q/%q", rec.From, rec.To)
	}
	if rec.Date != nil {
		t.Errorf("expected nil date, got %v", rec.Date)
	}
	if rec.Subject != "only a subject" {
		t.Errorf("subject: got %q", rec.Subject)
	}
}

func TestHeaderExtract_CaseAndOrder(t *testing.T) {
	raw := "date: 2024-03-10\nFROM: x@y.com\n\nbody"
	records, err := HeaderExtractor{}.Extract(raw)
	if err != nil {
		t.Fatal(err)
	}
	rec := records[0]
	if rec.From != "x@y.com" {
		t.Errorf("from: got %q", rec.From)
	}
	if rec.Date == nil || rec.Date.Format("2006-01-02") != "2024-03-10" {
		t.Errorf("date: got %v", rec.Date)
	}
}

func TestHeaderExtract_NoBlankLine(t *testing.T) {
	// Without a blank line the whole input doubles as the body, matching the
	// original tolerant behavior.
	records, err := HeaderExtractor{}.Extract("From: a@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if records[0].Body == "" {
		t.Error("expected non-empty body fallback")
	}
}

func TestParseDate_Layouts(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-10", "2024-03-10"},
		{"Jan 1 2024", "2024-01-01"},
		{"January 2, 2024", "2024-01-02"},
		{"2024-03-10T12:30:00Z", "2024-03-10"},
		{"01/15/2024", "2024-01-15"},
	}
	for _, tt := range tests {
		got := ParseDate(tt.in)
		if got == nil {
			t.Errorf("ParseDate(%q) = nil", tt.in)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDate(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}

	if got := ParseDate("not a date"); got != nil {
		t.Errorf("expected nil for garbage, got %v", got)
	}
	if got := ParseDate(""); got != nil {
		t.Errorf("expected nil for empty, got %v", got)
	}
}
