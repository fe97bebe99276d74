package pipeline

import (
	"strings"
	"testing"
)

func TestExtractHTMLText_Blocks(t *testing.T) {
	doc := `<html><head><title>Export</title><script>var x=1;</script></head>
	<body>
	<h1>Case notes</h1>
	<p>First paragraph.</p>
	<p style="display:none">hidden preheader</p>
	<p>Second paragraph.</p>
	</body></html>`

	got, err := extractHTMLText([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	paras := strings.Split(got, "\n\n")
	want := []string{"Case notes", "First paragraph.", "Second paragraph."}
	if len(paras) != len(want) {
		t.Fatalf("got %d paragraphs: %q", len(paras), got)
	}
	for i := range want {
		if paras[i] != want[i] {
			t.Errorf("paragraph[%d]: got %q, want %q", i, paras[i], want[i])
		}
	}
	if strings.Contains(got, "var x") || strings.Contains(got, "hidden") {
		t.Errorf("boilerplate leaked: %q", got)
	}
}

func TestExtractHTMLText_BrKeepsHeaderLines(t *testing.T) {
	doc := `<html><body><p>From: a@x.com<br>To: b@x.com<br>Subject: Hi</p></body></html>`

	got, err := extractHTMLText([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 3 || lines[0] != "From: a@x.com" || lines[1] != "To: b@x.com" {
		t.Errorf("header lines not preserved: %q", got)
	}
}

func TestExtractHTMLText_Fallback(t *testing.T) {
	// No block elements at all: fall back to whole-document text.
	got, err := extractHTMLText([]byte(`<html><body>bare text</body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	if got != "bare text" {
		t.Errorf("got %q", got)
	}
}
