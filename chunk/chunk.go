// Package chunk splits long text into size-bounded chunks along paragraph
// boundaries, sized for downstream language-model consumption. Chunking never
// drops content: a single paragraph larger than the budget is emitted whole
// as its own oversized chunk rather than truncated.
package chunk

import (
	"regexp"
	"strings"
)

// DefaultMaxSize is the chunk budget in bytes when Options leaves it zero.
const DefaultMaxSize = 100_000

// separator rejoins paragraphs inside a chunk and is accounted against the
// budget when accumulating.
const separator = "\n\n"

// paragraphRe splits on runs of two or more newlines, tolerating horizontal
// whitespace on the blank line.
var paragraphRe = regexp.MustCompile(`\n[ \t]*\n+`)

// Chunk is one contiguous, size-bounded slice of a source text.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Options configures Split.
type Options struct {
	// MaxSize is the chunk budget in bytes. Zero means DefaultMaxSize.
	MaxSize int
}

// Split divides text into paragraph-aligned chunks, greedily packing
// paragraphs while the running length stays within the budget. Deterministic;
// no I/O. Empty or whitespace-only input yields no chunks.
func Split(text string, opts Options) []Chunk {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	var chunks []Chunk
	var cur strings.Builder

	flush := func() {
		trimmed := strings.TrimSpace(cur.String())
		if trimmed != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: trimmed})
		}
		cur.Reset()
	}

	for _, para := range paragraphRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(separator)+len(para) > maxSize {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(separator)
		}
		cur.WriteString(para)
	}
	flush()

	return chunks
}

// Join reassembles chunk texts with paragraph separators, reconstructing the
// source modulo per-chunk whitespace trimming.
func Join(chunks []Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, separator)
}
