// Package dataset models the replay server's data: pre-matched
// roadworks events plus the segment geometries they reference. The
// matching itself happens upstream; a dataset file is its output.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/roadstream/roadstream/pkg/protocol"
)

// Dataset is one loaded event collection, partitioned by event type.
// Roadworks events are what the stream endpoint replays; enforcement
// events are served as a static overlay.
type Dataset struct {
	Roadworks   []protocol.Event
	Enforcement []protocol.Event
	Segments    map[string]protocol.Segment // by segment id
}

type fileShape struct {
	Segments []protocol.Segment `json:"segments"`
	Events   []protocol.Event   `json:"events"`
}

// Decode reads a dataset from r. Events whose type equals
// enforcementType (case-insensitive) go to the enforcement partition;
// everything else is replayable roadworks. Roadworks are ordered by
// timestamp when the data carries one, matching how the stream is
// meant to play back.
func Decode(r io.Reader, enforcementType string) (Dataset, error) {
	var f fileShape
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}

	ds := Dataset{Segments: make(map[string]protocol.Segment, len(f.Segments))}
	for _, seg := range f.Segments {
		if seg.SegmentID == "" {
			return Dataset{}, fmt.Errorf("segment with empty segment_id")
		}
		if len(seg.Geometry.Coordinates) < 2 {
			return Dataset{}, fmt.Errorf("segment %s: geometry needs at least two points", seg.SegmentID)
		}
		ds.Segments[seg.SegmentID] = seg
	}

	for _, ev := range f.Events {
		if strings.EqualFold(ev.EventType, enforcementType) {
			ds.Enforcement = append(ds.Enforcement, ev)
		} else {
			ds.Roadworks = append(ds.Roadworks, ev)
		}
	}

	sort.SliceStable(ds.Roadworks, func(i, j int) bool {
		return ds.Roadworks[i].Timestamp < ds.Roadworks[j].Timestamp
	})
	return ds, nil
}

// Load reads a dataset file from disk.
func Load(path, enforcementType string) (ds Dataset, err error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	return Decode(f, enforcementType)
}
