package timeline

import "fmt"

// ValidationError reports the first structural violation found in an event,
// identified by its dotted field path.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s: %s", e.Field, e.Reason)
}

// Validate checks an event's structure before it is handed to storage:
// required sections present, relationship and actor/action sequences
// materialized, and a usable ordering date when one is set. Validation is
// purely structural — confidence ranges are a construction-time invariant
// enforced by the builder and the correlator, not re-checked here. The first
// violation short-circuits.
func Validate(ev *Event) error {
	if ev == nil {
		return &ValidationError{Field: "event", Reason: "nil"}
	}
	if ev.ID == "" {
		return &ValidationError{Field: "id", Reason: "empty"}
	}
	if ev.Temporal.EventDate != nil && ev.Temporal.EventDate.IsZero() {
		return &ValidationError{Field: "temporal_info.event_date", Reason: "present but not a usable timestamp"}
	}
	if ev.Temporal.RelatedDates == nil {
		return &ValidationError{Field: "temporal_info.related_dates", Reason: "missing sequence"}
	}
	if ev.Temporal.TemporalMarkers == nil {
		return &ValidationError{Field: "temporal_info.temporal_markers", Reason: "missing sequence"}
	}
	if ev.Relationships.Attachments == nil {
		return &ValidationError{Field: "relationships.attachments", Reason: "missing sequence"}
	}
	if ev.Relationships.RelatedDocuments == nil {
		return &ValidationError{Field: "relationships.related_documents", Reason: "missing sequence"}
	}
	if ev.Info.Actors == nil {
		return &ValidationError{Field: "event_info.actors", Reason: "missing sequence"}
	}
	if ev.Info.Actions == nil {
		return &ValidationError{Field: "event_info.actions", Reason: "missing sequence"}
	}
	if ev.Storage.AttachmentDir == "" {
		return &ValidationError{Field: "storage_info.attachment_dir", Reason: "empty"}
	}
	return nil
}
