// Package timeline defines the canonical evidentiary record: one Event per
// occurrence, carrying normalized temporal metadata, confidence-scored
// relationships, and opaque storage identifiers. Events are built once from
// an extracted message record, validated, and never mutated afterwards.
package timeline

import "time"

// Relation is the qualitative temporal ordering between an event and a
// related item's timestamp.
type Relation string

const (
	Before     Relation = "before"
	After      Relation = "after"
	Concurrent Relation = "concurrent"
)

// TemporalInfo holds the event's dates and date-extraction confidence.
type TemporalInfo struct {
	// EventDate is the primary ordering key. Nil when no date was found.
	EventDate *time.Time `json:"event_date"`
	// RelatedDates are additional dates mentioned by the source.
	RelatedDates []time.Time `json:"related_dates"`
	// DateConfidence is the confidence in the date extraction, in [0,1].
	DateConfidence float64 `json:"date_confidence"`
	// TemporalMarkers are raw extracted phrases: date literals and filename
	// mentions the correlator can match candidates against.
	TemporalMarkers []string `json:"temporal_markers"`
}

// AttachmentLink ties an event to a stored attachment.
type AttachmentLink struct {
	ID                   string   `json:"id"`
	Type                 string   `json:"type"`
	Path                 string   `json:"path"`
	OriginalPath         string   `json:"original_path"`
	TemporalRelationship Relation `json:"temporal_relationship"`
	Confidence           float64  `json:"confidence"`
}

// DocumentLink ties an event to another document in the record.
type DocumentLink struct {
	ID                   string   `json:"id"`
	Type                 string   `json:"type"`
	Relationship         string   `json:"relationship"` // parent, child, reference
	TemporalRelationship Relation `json:"temporal_relationship"`
	Confidence           float64  `json:"confidence"`
}

// Relationships groups an event's links. Both slices are always present,
// possibly empty, never nil on a valid event.
type Relationships struct {
	Attachments      []AttachmentLink `json:"attachments"`
	RelatedDocuments []DocumentLink   `json:"related_documents"`
}

// EventInfo describes what happened.
type EventInfo struct {
	Type         string   `json:"type"`
	Actors       []string `json:"actors"`
	Actions      []string `json:"actions"`
	Impacts      []string `json:"impacts"`
	Significance float64  `json:"significance"` // [0,1]
}

// StorageInfo carries opaque pass-through identifiers for the external
// storage collaborators. The core never interprets them.
type StorageInfo struct {
	AttachmentDir string `json:"attachment_dir"`
	GoogleSheetID string `json:"google_sheet_id"`
	SheetRange    string `json:"sheet_range"`
}

// Event is one evidentiary occurrence.
type Event struct {
	ID            string        `json:"id"`
	Temporal      TemporalInfo  `json:"temporal_info"`
	Relationships Relationships `json:"relationships"`
	Info          EventInfo     `json:"event_info"`
	Storage       StorageInfo   `json:"storage_info"`
	Body          string        `json:"body,omitempty"`
}
