package session

import "github.com/roadstream/roadstream/pkg/protocol"

// Snapshot is a detached copy of a Session safe to hand to readers
// while the owning loop keeps mutating the live value. The three cells
// are copied together but readers must not assume they were written
// atomically as a group.
type Snapshot struct {
	State    State
	Paused   bool
	Complete bool
	Err      string

	Segments []protocol.Segment
	Events   []protocol.Event
	Progress protocol.Progress
}

// Snap copies the session for external consumption.
func Snap(s Session) Snapshot {
	events := make([]protocol.Event, len(s.Events))
	copy(events, s.Events)
	return Snapshot{
		State:    s.State,
		Paused:   s.Paused,
		Complete: s.Complete,
		Err:      s.Err,
		Segments: s.Segments.All(),
		Events:   events,
		Progress: s.Progress,
	}
}
