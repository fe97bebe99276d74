// Package pagestream extracts text from paginated binary documents one page
// at a time. The iterator is pull-based: page N+1 is not decoded until the
// consumer asks for it, so a large document never has its full text resident
// at once. Cancellation is honored between page yields.
package pagestream

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DocumentOpenError reports a document that could not be opened at all:
// corrupt header, truncated cross-reference table, unsupported encoding.
// It is fatal to the whole document.
type DocumentOpenError struct {
	Source string
	Err    error
}

func (e *DocumentOpenError) Error() string {
	return fmt.Sprintf("open document %s: %v", e.Source, e.Err)
}

func (e *DocumentOpenError) Unwrap() error { return e.Err }

// PageDecodeError reports a failure decoding a single page. The iterator
// remains usable; the caller decides whether to continue with the next page.
type PageDecodeError struct {
	Page int
	Err  error
}

func (e *PageDecodeError) Error() string {
	return fmt.Sprintf("decode page %d: %v", e.Page, e.Err)
}

func (e *PageDecodeError) Unwrap() error { return e.Err }

// Page is one decoded page in document order.
type Page struct {
	Number int
	Text   string
}

// Iterator yields pages from a single document. Not safe for concurrent use;
// each document pipeline owns its own iterator.
type Iterator struct {
	pdf    *model.Context
	next   int
	closed bool
}

// Open validates the document and positions the iterator before page 1.
// No page content is decoded yet. A document that cannot be read fails fast
// with *DocumentOpenError.
func Open(data []byte, source string) (*Iterator, error) {
	conf := model.NewDefaultConfiguration()
	pdf, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &DocumentOpenError{Source: source, Err: err}
	}
	return &Iterator{pdf: pdf, next: 1}, nil
}

// Next decodes and returns the next page. It returns io.EOF once all pages
// have been yielded or the iterator is closed, ctx.Err() if the caller
// canceled, and *PageDecodeError when a single page fails — in that case the
// iterator advances past the failed page so the caller may continue.
func (it *Iterator) Next(ctx context.Context) (Page, error) {
	if it.closed || it.next > it.pdf.PageCount {
		return Page{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	n := it.next
	it.next++

	r, err := pdfcpu.ExtractPageContent(it.pdf, n)
	if err != nil {
		return Page{}, &PageDecodeError{Page: n, Err: err}
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return Page{}, &PageDecodeError{Page: n, Err: err}
	}

	return Page{Number: n, Text: decodeContentStream(raw)}, nil
}

// Close abandons remaining pages. Subsequent Next calls return io.EOF.
func (it *Iterator) Close() error {
	it.closed = true
	it.pdf = nil
	return nil
}

// PageCount reports the document's total page count without decoding pages.
func (it *Iterator) PageCount() int {
	if it.pdf == nil {
		return 0
	}
	return it.pdf.PageCount
}
