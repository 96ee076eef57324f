package session

import "github.com/roadstream/roadstream/pkg/protocol"

// SegmentTable is the insertion-ordered segment map, keyed by display
// key. Inserts are idempotent: a key already present keeps its first
// value, so geometry stabilizes once seen and rendering order is
// stable across frames.
type SegmentTable struct {
	keys  []string
	byKey map[string]protocol.Segment
}

func NewSegmentTable() SegmentTable {
	return SegmentTable{byKey: make(map[string]protocol.Segment)}
}

// Insert adds seg under its display key unless the key is already
// present. Presence is decided by key alone, not value equality.
func (t SegmentTable) Insert(seg protocol.Segment) SegmentTable {
	if _, ok := t.byKey[seg.DisplayKey]; ok {
		return t
	}
	t.byKey[seg.DisplayKey] = seg
	t.keys = append(t.keys, seg.DisplayKey)
	return t
}

func (t SegmentTable) Get(key string) (protocol.Segment, bool) {
	seg, ok := t.byKey[key]
	return seg, ok
}

func (t SegmentTable) Has(key string) bool {
	_, ok := t.byKey[key]
	return ok
}

func (t SegmentTable) Len() int { return len(t.keys) }

// Keys returns the display keys in insertion order.
func (t SegmentTable) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// All returns the segments in insertion order.
func (t SegmentTable) All() []protocol.Segment {
	out := make([]protocol.Segment, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.byKey[k])
	}
	return out
}
