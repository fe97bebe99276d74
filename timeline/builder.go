package timeline

import (
	"strings"
	"time"

	"github.com/hazyhaar/casefile/extract"
	"github.com/hazyhaar/casefile/idgen"
)

// Date extraction confidence: a date taken from an explicit header beats one
// fished out of the body.
const (
	headerDateConfidence = 0.9
	bodyDateConfidence   = 0.8
	defaultSignificance  = 0.5
)

// BuildOptions parameterizes event construction.
type BuildOptions struct {
	// Type categorizes the event. Empty means "communication".
	Type string
	// AttachmentDir is passed through to storage_info untouched.
	AttachmentDir string
	// NewID overrides the event ID generator (tests).
	NewID idgen.Generator
}

// Build constructs a TimelineEvent from a message record. The record's own
// date is the primary event date; date-like tokens in the body supply related
// dates and markers. All confidence fields are clamped to [0,1] here, so the
// validator never needs to re-derive range invariants.
func Build(rec extract.MessageRecord, opts BuildOptions) *Event {
	newID := opts.NewID
	if newID == nil {
		newID = idgen.Prefixed("evt_", idgen.Default)
	}
	eventType := opts.Type
	if eventType == "" {
		eventType = "communication"
	}

	dateMarkers := findDateMarkers(rec.Body)
	bodyDates := parseMarkers(dateMarkers)

	temporal := TemporalInfo{
		RelatedDates:    []time.Time{},
		TemporalMarkers: append(dateMarkers, findFileMarkers(rec.Body)...),
	}
	switch {
	case rec.Date != nil:
		d := *rec.Date
		temporal.EventDate = &d
		temporal.DateConfidence = headerDateConfidence
		temporal.RelatedDates = bodyDates
	case len(bodyDates) > 0:
		d := bodyDates[0]
		temporal.EventDate = &d
		temporal.DateConfidence = bodyDateConfidence
		temporal.RelatedDates = bodyDates[1:]
	}
	temporal.DateConfidence = clamp01(temporal.DateConfidence)
	if temporal.TemporalMarkers == nil {
		temporal.TemporalMarkers = []string{}
	}
	if temporal.RelatedDates == nil {
		temporal.RelatedDates = []time.Time{}
	}

	actors := []string{}
	seen := make(map[string]bool)
	for _, a := range append([]string{rec.From, rec.To}, findActors(rec.Body)...) {
		a = strings.TrimSpace(a)
		if a != "" && !seen[a] {
			seen[a] = true
			actors = append(actors, a)
		}
	}

	return &Event{
		ID:       newID(),
		Temporal: temporal,
		Relationships: Relationships{
			Attachments:      []AttachmentLink{},
			RelatedDocuments: []DocumentLink{},
		},
		Info: EventInfo{
			Type:         eventType,
			Actors:       actors,
			Actions:      []string{},
			Impacts:      []string{},
			Significance: defaultSignificance,
		},
		Storage: StorageInfo{AttachmentDir: opts.AttachmentDir},
		Body:    rec.Body,
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
