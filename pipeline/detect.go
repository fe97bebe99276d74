package pipeline

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Format is a detected input document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatODS  Format = "ods"
	FormatMbox Format = "mbox"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// threadMarkerRe decides between the thread scanner and the header
// extractor for plain text: explicit message-log markers pick the scanner.
var threadMarkerRe = regexp.MustCompile(`(?mi)^(message \d+ of \d+|message:)`)

// Detect picks the format for a document, by extension first and by content
// sniff for ambiguous plain files.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".csv", ".tsv":
		return FormatCSV, nil
	case ".ods":
		return FormatODS, nil
	case ".mbox":
		return FormatMbox, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}

	head, err := readHead(path, 4096)
	if err != nil {
		return FormatText, err
	}
	lower := bytes.ToLower(head)
	switch {
	case bytes.HasPrefix(head, []byte("%PDF-")):
		return FormatPDF, nil
	case bytes.HasPrefix(head, []byte("From ")):
		return FormatMbox, nil
	case bytes.Contains(lower, []byte("<html")) || bytes.HasPrefix(lower, []byte("<!doctype html")):
		return FormatHTML, nil
	}
	return FormatText, nil
}

// isThreadLog reports whether plain text looks like a threaded message log
// rather than a single header-delimited message.
func isThreadLog(text string) bool {
	return threadMarkerRe.MatchString(text)
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}
