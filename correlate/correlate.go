// Package correlate links timeline events to attachments and related
// documents using confidence-scored matching. Scoring is a weighted linear
// combination of temporal proximity, identifier overlap, and explicit
// marker hits, so a candidate that matches strictly more signals never
// scores lower. The same event and pool always produce the same result.
package correlate

import (
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/casefile/timeline"
)

// Candidate kinds.
const (
	KindAttachment = "attachment"
	KindDocument   = "document"
)

// decayWindow is the horizon over which temporal proximity falls off.
// Beyond it the temporal signal contributes nothing.
const decayWindow = 30 * 24 * time.Hour

// Candidate is one item the correlator may link to an event. The pool
// handed to Correlate is never mutated.
type Candidate struct {
	ID           string
	Name         string
	Path         string
	OriginalPath string
	// Kind is KindAttachment or KindDocument.
	Kind string
	// Relationship qualifies document candidates: parent, child, reference.
	Relationship string
	Sender       string
	Recipient    string
	// Timestamp is the candidate's own date. Nil when unknown.
	Timestamp *time.Time
}

// Skip records a candidate the correlator could not score.
type Skip struct {
	CandidateID string
	Reason      string
}

// Result is the outcome of one correlation pass.
type Result struct {
	Attachments []timeline.AttachmentLink
	Documents   []timeline.DocumentLink
	Skipped     []Skip
}

// Config tunes the correlator. The zero value is usable: weights and the
// confidence floor fall back to defaults, and a zero Tolerance means
// "same calendar day".
type Config struct {
	// TemporalWeight scales the temporal-proximity signal. Default 0.5.
	TemporalWeight float64
	// OverlapWeight scales identifier overlap between the candidate and
	// the event's actors and body. Default 0.3.
	OverlapWeight float64
	// MarkerWeight scales explicit marker hits (the candidate's filename
	// appearing in the event's temporal markers). Default 0.2.
	MarkerWeight float64
	// MinConfidence drops links scoring below it. Default 0.35.
	MinConfidence float64
	// Tolerance is the window within which timestamps count as concurrent.
	// Zero means same calendar day (UTC).
	Tolerance time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.TemporalWeight == 0 && c.OverlapWeight == 0 && c.MarkerWeight == 0 {
		c.TemporalWeight = 0.5
		c.OverlapWeight = 0.3
		c.MarkerWeight = 0.2
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.35
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Correlate scores every candidate in pool against ev and returns the links
// that clear the confidence floor. Candidates carrying no usable signal at
// all are reported in Skipped rather than silently dropped. The event is
// read, never mutated; attaching the returned links is the caller's call.
func Correlate(ev *timeline.Event, pool []Candidate, cfg Config) Result {
	cfg.defaults()

	res := Result{
		Attachments: []timeline.AttachmentLink{},
		Documents:   []timeline.DocumentLink{},
		Skipped:     []Skip{},
	}
	if ev == nil {
		return res
	}

	markers := lowerAll(ev.Temporal.TemporalMarkers)
	actors := lowerAll(ev.Info.Actors)
	body := strings.ToLower(ev.Body)

	for _, cand := range pool {
		if cand.Timestamp == nil && cand.Name == "" && cand.Sender == "" && cand.Recipient == "" {
			res.Skipped = append(res.Skipped, Skip{
				CandidateID: cand.ID,
				Reason:      "no timestamp, name, or correspondent to match on",
			})
			continue
		}

		score := cfg.TemporalWeight*temporalScore(ev.Temporal.EventDate, cand.Timestamp) +
			cfg.OverlapWeight*overlapScore(cand, actors, body) +
			cfg.MarkerWeight*markerScore(cand.Name, markers)
		score = math.Min(score, 1)

		if score < cfg.MinConfidence {
			cfg.Logger.Debug("candidate below confidence floor",
				"candidate", cand.ID, "score", score, "floor", cfg.MinConfidence)
			continue
		}

		rel := relation(ev.Temporal.EventDate, cand.Timestamp, cfg.Tolerance)
		switch cand.Kind {
		case KindDocument:
			res.Documents = append(res.Documents, timeline.DocumentLink{
				ID:                   cand.ID,
				Type:                 cand.Kind,
				Relationship:         cand.Relationship,
				TemporalRelationship: rel,
				Confidence:           score,
			})
		default:
			res.Attachments = append(res.Attachments, timeline.AttachmentLink{
				ID:                   cand.ID,
				Type:                 cand.Kind,
				Path:                 cand.Path,
				OriginalPath:         cand.OriginalPath,
				TemporalRelationship: rel,
				Confidence:           score,
			})
		}
	}

	// Strongest links first; ties break on ID so output is stable.
	sort.SliceStable(res.Attachments, func(i, j int) bool {
		a, b := res.Attachments[i], res.Attachments[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.ID < b.ID
	})
	sort.SliceStable(res.Documents, func(i, j int) bool {
		a, b := res.Documents[i], res.Documents[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.ID < b.ID
	})
	return res
}

// relation labels the candidate's timestamp relative to the event date.
// Unknown timestamps and same-day (or within-tolerance) pairs are
// concurrent.
func relation(eventDate, candDate *time.Time, tolerance time.Duration) timeline.Relation {
	if eventDate == nil || candDate == nil {
		return timeline.Concurrent
	}
	if tolerance > 0 {
		diff := candDate.Sub(*eventDate)
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance {
			return timeline.Concurrent
		}
	} else if sameDay(*eventDate, *candDate) {
		return timeline.Concurrent
	}
	if candDate.Before(*eventDate) {
		return timeline.Before
	}
	return timeline.After
}

func sameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	ay, am, ad := au.Date()
	by, bm, bd := bu.Date()
	return ay == by && am == bm && ad == bd
}

// temporalScore is 1 for identical timestamps and decays linearly to 0 at
// the decay window. Missing dates on either side yield 0.
func temporalScore(eventDate, candDate *time.Time) float64 {
	if eventDate == nil || candDate == nil {
		return 0
	}
	diff := candDate.Sub(*eventDate)
	if diff < 0 {
		diff = -diff
	}
	if diff >= decayWindow {
		return 0
	}
	return 1 - float64(diff)/float64(decayWindow)
}

// overlapScore measures identifier overlap: the candidate's filename stem
// appearing in the event body, and its correspondents appearing among the
// event's actors. Each signal contributes half.
func overlapScore(cand Candidate, actors []string, body string) float64 {
	var score float64

	if stem := fileStem(cand.Name); stem != "" && strings.Contains(body, stem) {
		score += 0.5
	}

	for _, who := range []string{strings.ToLower(cand.Sender), strings.ToLower(cand.Recipient)} {
		if who == "" {
			continue
		}
		for _, a := range actors {
			if a == who {
				score += 0.25
				break
			}
		}
	}
	return math.Min(score, 1)
}

// markerScore is 1 when the candidate's filename was explicitly mentioned
// as a marker, 0 otherwise.
func markerScore(name string, markers []string) float64 {
	if name == "" {
		return 0
	}
	lower := strings.ToLower(name)
	for _, m := range markers {
		if m == lower {
			return 1
		}
	}
	return 0
}

// fileStem returns the lowercased filename without its extension.
func fileStem(name string) string {
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
