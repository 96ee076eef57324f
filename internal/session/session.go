// Package session holds the client-side state reconstructed from the
// roadworks stream: the segment table, the event log, the progress
// record and the connection flags. All protocol logic lives in the
// pure transition functions so it can be tested without a transport.
package session

import (
	"github.com/roadstream/roadstream/pkg/protocol"
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateErrored    State = "errored"
	StateClosed     State = "closed"
)

// Session is the full client-visible state for one connection
// lifetime. It is a value: transitions take a Session and return the
// successor, mirroring how frames arrive one at a time.
type Session struct {
	State    State
	Paused   bool
	Complete bool
	Err      string

	Segments SegmentTable
	Events   []protocol.Event
	Progress protocol.Progress
}

func New() Session {
	return Session{State: StateIdle, Segments: NewSegmentTable()}
}

// Connected reports whether the transport is currently open.
func (s Session) Connected() bool { return s.State == StateOpen }

// Apply folds one inbound frame into the session. Unrecognized kinds
// are ignored so the protocol can grow without breaking older clients.
func Apply(s Session, f protocol.Frame) Session {
	next := s
	switch f.Kind {
	case protocol.KindSegment:
		// First writer wins per display key; later geometry for the
		// same key is discarded.
		next.Segments = next.Segments.Insert(*f.Segment)

	case protocol.KindEvent:
		// Pure append log in arrival order. No dedup, no reordering
		// by timestamp.
		next.Events = append(next.Events, *f.Event)

	case protocol.KindProgress:
		next.Progress = *f.Progress
		if f.Progress.Streamed >= f.Progress.Total {
			next.Complete = true
		}

	case protocol.KindComplete:
		next.Complete = true

	case protocol.KindError:
		next.Err = f.Message
	}
	return next
}

// Reset clears the streamed state for a restart: event log, segment
// table, progress and the complete flag. Connection state and the
// paused flag are untouched.
func Reset(s Session) Session {
	next := s
	next.Segments = NewSegmentTable()
	next.Events = nil
	next.Progress = protocol.Progress{}
	next.Complete = false
	return next
}

// Opened marks a successful transport open. Any stale error and a
// stale complete flag from a previous run are cleared.
func Opened(s Session) Session {
	next := s
	next.State = StateOpen
	next.Err = ""
	next.Complete = false
	return next
}

// Connecting marks a dial in flight.
func Connecting(s Session) Session {
	next := s
	next.State = StateConnecting
	return next
}

// Failed records a transport-level failure. The session stays usable;
// reconnecting is an explicit caller decision.
func Failed(s Session, msg string) Session {
	next := s
	next.State = StateErrored
	next.Err = msg
	return next
}

// Closed marks the transport gone, peer-initiated or local.
func Closed(s Session) Session {
	next := s
	next.State = StateClosed
	return next
}
