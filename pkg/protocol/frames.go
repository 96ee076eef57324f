// Package protocol defines the wire format shared by the stream client
// and the replay server: inbound frames carrying segments, events and
// progress, and outbound control frames.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrEmptyFrame = errors.New("empty frame")
var ErrMissingKind = errors.New("frame has no type field")

// Kind is the discriminant carried in every inbound frame.
type Kind string

const (
	KindSegment  Kind = "segment"
	KindEvent    Kind = "event"
	KindProgress Kind = "progress"
	KindComplete Kind = "complete"
	KindError    Kind = "error"
)

// LineString is the geometry attached to a segment frame. Coordinates
// are [lon, lat] pairs; a well-formed line has at least two points.
type LineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// Segment is reference geometry streamed once per road segment. The
// display key groups physically distinct segments under one visual
// identity, so it is the dedup key on the client, not SegmentID.
type Segment struct {
	SegmentID  string         `json:"segment_id"`
	DisplayKey string         `json:"display_segment_key"`
	Properties map[string]any `json:"properties"`
	Geometry   LineString     `json:"geometry"`
}

// Event is one streamed roadworks observation, already matched (or
// not) against the road network by the producer.
type Event struct {
	EventID          string   `json:"event_id"`
	Lon              float64  `json:"lon"`
	Lat              float64  `json:"lat"`
	EventType        string   `json:"event_type"`
	Matched          bool     `json:"matched"`
	MatchedSegmentID string   `json:"matched_segment_id,omitempty"`
	DisplayKey       string   `json:"display_segment_key,omitempty"`
	MatchDistanceM   *float64 `json:"match_distance_m,omitempty"`
	SnappedLon       *float64 `json:"snapped_lon,omitempty"`
	SnappedLat       *float64 `json:"snapped_lat,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`
}

// Progress carries the producer's stream position after each batch.
type Progress struct {
	Streamed int `json:"streamed"`
	Total    int `json:"total"`
	Segments int `json:"segments"`
}

// Frame is one parsed inbound message. Exactly one payload pointer is
// set for the payload-bearing kinds; Message is set for KindError.
type Frame struct {
	Kind     Kind
	Segment  *Segment
	Event    *Event
	Progress *Progress
	Message  string
}

// wireFrame is the flat on-the-wire shape; which fields are populated
// depends on Type.
type wireFrame struct {
	Type string `json:"type"`

	// segment
	SegmentID  string         `json:"segment_id,omitempty"`
	DisplayKey string         `json:"display_segment_key,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Geometry   *LineString    `json:"geometry,omitempty"`

	// event
	Event *Event `json:"event,omitempty"`

	// progress
	Streamed *int `json:"streamed,omitempty"`
	Total    *int `json:"total,omitempty"`
	Segments *int `json:"segments,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// Parse decodes one inbound frame. Text and binary transport messages
// both arrive here as raw bytes, so this is the single normalization
// point ahead of dispatch. Unknown kinds parse successfully and are
// left for the dispatcher to ignore.
func Parse(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyFrame
	}

	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if w.Type == "" {
		return Frame{}, ErrMissingKind
	}

	f := Frame{Kind: Kind(w.Type)}
	switch f.Kind {
	case KindSegment:
		if w.Geometry == nil {
			return Frame{}, fmt.Errorf("segment frame %q has no geometry", w.SegmentID)
		}
		f.Segment = &Segment{
			SegmentID:  w.SegmentID,
			DisplayKey: w.DisplayKey,
			Properties: w.Properties,
			Geometry:   *w.Geometry,
		}
	case KindEvent:
		if w.Event == nil {
			return Frame{}, errors.New("event frame has no event payload")
		}
		f.Event = w.Event
	case KindProgress:
		if w.Streamed == nil || w.Total == nil || w.Segments == nil {
			return Frame{}, errors.New("progress frame is missing counts")
		}
		f.Progress = &Progress{Streamed: *w.Streamed, Total: *w.Total, Segments: *w.Segments}
	case KindError:
		f.Message = w.Message
	}
	return f, nil
}

// EncodeSegment marshals a segment frame.
func EncodeSegment(s Segment) ([]byte, error) {
	return json.Marshal(wireFrame{
		Type:       string(KindSegment),
		SegmentID:  s.SegmentID,
		DisplayKey: s.DisplayKey,
		Properties: s.Properties,
		Geometry:   &s.Geometry,
	})
}

// EncodeEvent marshals an event frame.
func EncodeEvent(e Event) ([]byte, error) {
	return json.Marshal(wireFrame{Type: string(KindEvent), Event: &e})
}

// EncodeProgress marshals a progress frame.
func EncodeProgress(p Progress) ([]byte, error) {
	return json.Marshal(wireFrame{
		Type:     string(KindProgress),
		Streamed: &p.Streamed,
		Total:    &p.Total,
		Segments: &p.Segments,
	})
}

// EncodeComplete marshals the end-of-stream frame.
func EncodeComplete() ([]byte, error) {
	return json.Marshal(wireFrame{Type: string(KindComplete)})
}

// EncodeError marshals a server-reported error frame.
func EncodeError(msg string) ([]byte, error) {
	return json.Marshal(wireFrame{Type: string(KindError), Message: msg})
}
