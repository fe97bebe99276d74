// Package pipeline orchestrates document processing end to end: detect the
// format, stream or extract message records, build timeline events,
// correlate them against the batch's attachments, then validate and store.
// Failures are scoped to the smallest unit that caused them: an unreadable
// document aborts that document, while a bad page, row, or event is
// recorded and its siblings continue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/casefile/chunk"
	"github.com/hazyhaar/casefile/correlate"
	"github.com/hazyhaar/casefile/extract"
	"github.com/hazyhaar/casefile/pagestream"
	"github.com/hazyhaar/casefile/store"
	"github.com/hazyhaar/casefile/timeline"
)

// UnitError records one scoped failure that did not abort processing.
type UnitError struct {
	// Unit names the failed unit: "page 3", "rows", "event evt_...".
	Unit string
	Err  error
}

func (e UnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Unit, e.Err)
}

// Result reports one processed document.
type Result struct {
	Source   string
	Format   Format
	EventIDs []string
	// Chunks holds the bounded chunks of event bodies that exceeded the
	// chunk budget, keyed by event ID.
	Chunks map[string][]chunk.Chunk
	// Errors are the scoped failures encountered along the way.
	Errors []UnitError
	// Skipped are candidates the correlator could not score.
	Skipped []correlate.Skip
}

// Pipeline wires the extractors to the stores.
type Pipeline struct {
	cfg         Config
	events      *store.Events
	attachments *store.Attachments
}

// New builds a pipeline over open stores. Config defaults are applied.
func New(cfg Config, events *store.Events, attachments *store.Attachments) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg, events: events, attachments: attachments}
}

// Process runs one document through the pipeline. It returns an error only
// when the document itself cannot be opened or read; every smaller failure
// lands in Result.Errors instead.
func (p *Pipeline) Process(ctx context.Context, path string) (*Result, error) {
	log := p.cfg.Logger.With("source", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &pagestream.DocumentOpenError{Source: path, Err: err}
	}
	if info.Size() > int64(p.cfg.MaxFileSize) {
		return nil, &pagestream.DocumentOpenError{
			Source: path,
			Err:    fmt.Errorf("file size %d exceeds limit %d", info.Size(), p.cfg.MaxFileSize),
		}
	}

	format, err := Detect(path)
	if err != nil {
		return nil, &pagestream.DocumentOpenError{Source: path, Err: err}
	}
	res := &Result{
		Source:  path,
		Format:  format,
		Chunks:  map[string][]chunk.Chunk{},
		Skipped: []correlate.Skip{},
	}
	log.Info("processing document", "format", format)

	records, err := p.extractRecords(ctx, path, format, res)
	if err != nil {
		return nil, err
	}
	log.Info("extracted records", "count", len(records))

	// First pass: build events and store their attachments, accumulating
	// the candidate pool for the whole batch.
	var events []*timeline.Event
	var pool []correlate.Candidate
	for i, rec := range records {
		ev := timeline.Build(rec, timeline.BuildOptions{AttachmentDir: p.attachments.Dir()})
		events = append(events, ev)

		for _, ref := range rec.Attachments {
			cand, err := p.storeAttachment(ctx, ev, rec, ref)
			if err != nil {
				res.Errors = append(res.Errors, UnitError{
					Unit: fmt.Sprintf("record %d attachment %s", i, ref.Name),
					Err:  err,
				})
				continue
			}
			pool = append(pool, cand)
		}
	}

	// Second pass: correlate each event against the pool, then validate
	// and persist.
	ccfg := correlate.Config{MinConfidence: p.cfg.MinConfidence, Logger: p.cfg.Logger}
	for _, ev := range events {
		linked := correlate.Correlate(ev, pool, ccfg)
		ev.Relationships.Attachments = linked.Attachments
		ev.Relationships.RelatedDocuments = linked.Documents
		res.Skipped = append(res.Skipped, linked.Skipped...)

		if err := p.events.Put(ctx, ev); err != nil {
			res.Errors = append(res.Errors, UnitError{Unit: "event " + ev.ID, Err: err})
			continue
		}
		res.EventIDs = append(res.EventIDs, ev.ID)

		if len(ev.Body) > p.cfg.ChunkMaxSize {
			res.Chunks[ev.ID] = chunk.Split(ev.Body, chunk.Options{MaxSize: p.cfg.ChunkMaxSize})
		}
	}

	log.Info("document processed",
		"events", len(res.EventIDs), "errors", len(res.Errors), "skipped", len(res.Skipped))
	return res, nil
}

// extractRecords turns one document into message records. Open/read
// failures propagate as DocumentOpenError; smaller failures are recorded
// on res and extraction continues where possible.
func (p *Pipeline) extractRecords(ctx context.Context, path string, format Format, res *Result) ([]extract.MessageRecord, error) {
	switch format {
	case FormatPDF:
		return p.extractPDF(ctx, path, res)

	case FormatODS:
		rows, err := extract.ReadODSRows(path)
		if err != nil {
			return nil, &pagestream.DocumentOpenError{Source: path, Err: err}
		}
		records, err := extract.RecordsFromRows(rows)
		if err != nil {
			res.Errors = append(res.Errors, UnitError{Unit: "rows", Err: err})
		}
		return records, nil

	case FormatMbox:
		f, err := os.Open(path)
		if err != nil {
			return nil, &pagestream.DocumentOpenError{Source: path, Err: err}
		}
		defer f.Close()
		return extract.MboxExtractor{Logger: p.cfg.Logger}.ExtractReader(f)

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &pagestream.DocumentOpenError{Source: path, Err: err}
		}
		text := string(data)
		if format == FormatHTML {
			text, err = extractHTMLText(data)
			if err != nil {
				return nil, &pagestream.DocumentOpenError{Source: path, Err: err}
			}
		}
		if format == FormatCSV {
			ext := extract.TabularExtractor{}
			if strings.EqualFold(filepath.Ext(path), ".tsv") {
				ext.Comma = '\t'
			}
			records, err := ext.Extract(text)
			if err != nil {
				res.Errors = append(res.Errors, UnitError{Unit: "rows", Err: err})
			}
			return records, nil
		}
		return extractText(text)
	}
}

// extractText routes plain text to the thread scanner or the header
// extractor based on content.
func extractText(text string) ([]extract.MessageRecord, error) {
	if isThreadLog(text) {
		return extract.ThreadExtractor{}.Extract(text)
	}
	return extract.HeaderExtractor{}.Extract(text)
}

// extractPDF streams pages without materializing the document, gathers
// their text, and extracts records from the joined result. A page that
// fails to decode is recorded and skipped.
func (p *Pipeline) extractPDF(ctx context.Context, path string, res *Result) ([]extract.MessageRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &pagestream.DocumentOpenError{Source: path, Err: err}
	}
	it, err := pagestream.Open(data, path)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var pages []string
	for {
		page, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		var decodeErr *pagestream.PageDecodeError
		if errors.As(err, &decodeErr) {
			res.Errors = append(res.Errors, UnitError{
				Unit: fmt.Sprintf("page %d", decodeErr.Page),
				Err:  err,
			})
			continue
		}
		if err != nil {
			return nil, err
		}
		if page.Text != "" {
			pages = append(pages, page.Text)
		}
	}
	return extractText(strings.Join(pages, "\n\n"))
}

// storeAttachment persists one attachment reference and shapes it into a
// correlation candidate carrying the parent record's correspondents and
// timestamp.
func (p *Pipeline) storeAttachment(ctx context.Context, ev *timeline.Event, rec extract.MessageRecord, ref extract.AttachmentRef) (correlate.Candidate, error) {
	src := ref.Path
	if src == "" {
		return correlate.Candidate{}, fmt.Errorf("attachment %q has no path", ref.Name)
	}
	content, err := os.ReadFile(src)
	if err != nil {
		return correlate.Candidate{}, fmt.Errorf("read attachment: %w", err)
	}
	stored, err := p.attachments.Add(ctx, ev.ID, src, content)
	if err != nil {
		return correlate.Candidate{}, err
	}
	return correlate.Candidate{
		ID:           stored.RefID,
		Name:         ref.Name,
		Path:         stored.Path,
		OriginalPath: src,
		Kind:         correlate.KindAttachment,
		Sender:       rec.From,
		Recipient:    rec.To,
		Timestamp:    rec.Date,
	}, nil
}
