package chunk

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplit_Short(t *testing.T) {
	text := "A single short paragraph."
	chunks := Split(text, Options{MaxSize: 100})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("text: got %q", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("index: got %d", chunks[0].Index)
	}
}

func TestSplit_Empty(t *testing.T) {
	if chunks := Split("", Options{}); chunks != nil {
		t.Errorf("empty input: got %v, want nil", chunks)
	}
	if chunks := Split("\n\n  \n\n", Options{}); chunks != nil {
		t.Errorf("whitespace input: got %v, want nil", chunks)
	}
}

func TestSplit_BudgetRespected(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "paragraph %02d %s\n\n", i, strings.Repeat("x", 80))
	}
	text := sb.String()

	const maxSize = 300
	chunks := Split(text, Options{MaxSize: maxSize})
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > maxSize {
			t.Errorf("chunk[%d]: %d bytes > budget %d", i, len(c.Text), maxSize)
		}
		if c.Index != i {
			t.Errorf("chunk[%d]: index=%d", i, c.Index)
		}
	}
}

func TestSplit_OversizedParagraph(t *testing.T) {
	big := strings.Repeat("y", 500)
	text := "small one\n\n" + big + "\n\nsmall two"

	chunks := Split(text, Options{MaxSize: 100})
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	// The oversized paragraph is emitted whole, never truncated or split.
	if chunks[1].Text != big {
		t.Errorf("oversized chunk altered: %d bytes", len(chunks[1].Text))
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	text := "alpha one\n\nbeta two\n\ngamma three\n\ndelta four"
	chunks := Split(text, Options{MaxSize: 25})
	if got := Join(chunks); got != text {
		t.Errorf("reconstruction:\ngot  %q\nwant %q", got, text)
	}
}

func TestSplit_Idempotent(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "paragraph number %d with a bit of text\n\n", i)
	}
	opts := Options{MaxSize: 120}

	first := Split(sb.String(), opts)
	second := Split(Join(first), opts)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text {
			t.Errorf("chunk[%d] boundaries moved", i)
		}
	}
}

func TestSplit_LargeDocument(t *testing.T) {
	// ~250k chars of ~2k-char paragraphs under a 100k budget packs into
	// exactly 3 chunks.
	para := strings.Repeat("z", 2000)
	var sb strings.Builder
	for sb.Len() < 250_000 {
		sb.WriteString(para)
		sb.WriteString("\n\n")
	}

	chunks := Split(sb.String(), Options{MaxSize: 100_000})
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 100_000 {
			t.Errorf("chunk[%d]: %d bytes over budget", i, len(c.Text))
		}
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	chunks := Split("one one one\n\ntwo two two\n\nthree three three", Options{MaxSize: 15})

	m, err := Write(dir, chunks, 15)
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalChunks != len(chunks) {
		t.Errorf("manifest chunks: got %d, want %d", m.TotalChunks, len(chunks))
	}
	if m.Files[0].FileName != "chunk_00000.txt" {
		t.Errorf("file name: got %q", m.Files[0].FileName)
	}

	got, err := Read(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(chunks) {
		t.Fatalf("got %d chunks, want %d", len(got), len(chunks))
	}
	for i := range got {
		if got[i].Text != chunks[i].Text {
			t.Errorf("chunk[%d] text differs after round trip", i)
		}
	}
}
