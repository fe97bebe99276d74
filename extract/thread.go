package extract

import (
	"bufio"
	"regexp"
	"strings"
)

// scanState is the threaded line-scanner's state. The machine is tiny but
// explicit so the behavior on malformed input (a message with no terminating
// marker) is a named transition, not a fallthrough.
type scanState int

const (
	stateIdle scanState = iota
	stateInMessage
)

var (
	threadDateRe    = regexp.MustCompile(`(?i)^date:\s*(.+)$`)
	threadFromRe    = regexp.MustCompile(`(?i)^from:\s*(.+)$`)
	threadMessageRe = regexp.MustCompile(`(?i)^message:\s*(.*)$`)
	// OFW exports number their messages; the numbering line starts a message.
	ofwHeaderRe = regexp.MustCompile(`(?i)^message \d+ of \d+`)
)

// ThreadExtractor scans message-log text line by line. A Date: or From: line
// closes the current message (when it has content) and opens a new one; a
// Message: line seeds the current message's content; any other non-blank line
// appends to the content with a single-space separator.
type ThreadExtractor struct{}

type threadScanner struct {
	state   scanState
	current MessageRecord
	out     []MessageRecord
}

func (ThreadExtractor) Extract(raw string) ([]MessageRecord, error) {
	s := &threadScanner{}
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		s.feed(strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	s.finish()
	return s.out, nil
}

// feed applies one line to the state machine.
func (s *threadScanner) feed(line string) {
	if line == "" {
		return
	}

	if ofwHeaderRe.MatchString(line) {
		s.flush()
		s.state = stateInMessage
		s.current.Body = line
		return
	}

	dateM := threadDateRe.FindStringSubmatch(line)
	fromM := threadFromRe.FindStringSubmatch(line)

	if dateM != nil || fromM != nil {
		// Boundary marker: flush the message in progress, open a new one.
		s.flush()
		s.state = stateInMessage
		if dateM != nil {
			s.current.Date = ParseDate(dateM[1])
		}
		if fromM != nil {
			s.current.From = strings.TrimSpace(fromM[1])
		}
		return
	}

	if m := threadMessageRe.FindStringSubmatch(line); m != nil {
		if s.state == stateIdle {
			s.state = stateInMessage
		}
		s.current.Body = strings.TrimSpace(m[1])
		return
	}

	// Continuation line.
	if s.state == stateIdle {
		s.state = stateInMessage
	}
	if s.current.Body != "" {
		s.current.Body += " " + line
	} else {
		s.current.Body = line
	}
}

// flush emits the current message if it carries content and resets the slot.
// A boundary marker arriving while the current message is empty (e.g. a Date:
// line directly followed by a From: line) merges into the same message, so
// only content-bearing messages are counted.
func (s *threadScanner) flush() {
	if s.state == stateInMessage && s.current.Body != "" {
		s.current.Attachments = []AttachmentRef{}
		s.out = append(s.out, s.current)
		s.current = MessageRecord{}
		s.state = stateIdle
	}
}

// finish is the terminal transition: end of input flushes any in-progress
// message that has content.
func (s *threadScanner) finish() {
	s.flush()
}
