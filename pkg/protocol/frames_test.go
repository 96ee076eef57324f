package protocol

import (
	"testing"
)

func TestParse_SegmentFrame(t *testing.T) {
	data := []byte(`{"type":"segment","segment_id":"seg-9","display_segment_key":"disp-4",` +
		`"properties":{"name":"A100","class":"motorway"},` +
		`"geometry":{"type":"LineString","coordinates":[[13.37,52.49],[13.38,52.50]]}}`)

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Kind != KindSegment || f.Segment == nil {
		t.Fatalf("want segment frame, got %+v", f)
	}
	if f.Segment.SegmentID != "seg-9" || f.Segment.DisplayKey != "disp-4" {
		t.Fatalf("ids wrong: %+v", f.Segment)
	}
	if len(f.Segment.Geometry.Coordinates) != 2 {
		t.Fatalf("geometry wrong: %+v", f.Segment.Geometry)
	}
	if f.Segment.Properties["class"] != "motorway" {
		t.Fatalf("properties wrong: %+v", f.Segment.Properties)
	}
}

func TestParse_EventFrame(t *testing.T) {
	data := []byte(`{"type":"event","event":{"event_id":"evt-1","lon":13.4,"lat":52.5,` +
		`"event_type":"Roadworks","matched":true,"matched_segment_id":"seg-9",` +
		`"display_segment_key":"disp-4","match_distance_m":12.5,"snapped_lon":13.41,"snapped_lat":52.51,` +
		`"timestamp":"2024-06-01T10:00:00Z"}}`)

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Kind != KindEvent || f.Event == nil {
		t.Fatalf("want event frame, got %+v", f)
	}
	ev := f.Event
	if ev.EventID != "evt-1" || !ev.Matched || ev.MatchedSegmentID != "seg-9" {
		t.Fatalf("event fields wrong: %+v", ev)
	}
	if ev.MatchDistanceM == nil || *ev.MatchDistanceM != 12.5 {
		t.Fatalf("match distance wrong: %+v", ev.MatchDistanceM)
	}
	if ev.SnappedLon == nil || ev.SnappedLat == nil {
		t.Fatalf("snapped coordinates missing")
	}
}

func TestParse_EventFrameOptionalFieldsAbsent(t *testing.T) {
	data := []byte(`{"type":"event","event":{"event_id":"evt-2","lon":1,"lat":2,"event_type":"Roadworks","matched":false}}`)

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ev := f.Event
	if ev.Matched || ev.MatchedSegmentID != "" || ev.MatchDistanceM != nil || ev.Timestamp != "" {
		t.Fatalf("optional fields should be zero: %+v", ev)
	}
}

func TestParse_ProgressCompleteError(t *testing.T) {
	f, err := Parse([]byte(`{"type":"progress","streamed":150,"total":2000,"segments":12}`))
	if err != nil {
		t.Fatalf("parse progress: %v", err)
	}
	if f.Kind != KindProgress || *f.Progress != (Progress{Streamed: 150, Total: 2000, Segments: 12}) {
		t.Fatalf("progress wrong: %+v", f.Progress)
	}

	f, err = Parse([]byte(`{"type":"complete"}`))
	if err != nil || f.Kind != KindComplete {
		t.Fatalf("parse complete: %v %+v", err, f)
	}

	f, err = Parse([]byte(`{"type":"error","message":"roads not loaded"}`))
	if err != nil || f.Kind != KindError || f.Message != "roads not loaded" {
		t.Fatalf("parse error frame: %v %+v", err, f)
	}
}

func TestParse_UnknownKindSurvivesParsing(t *testing.T) {
	f, err := Parse([]byte(`{"type":"heartbeat","seq":4}`))
	if err != nil {
		t.Fatalf("unknown kind should parse: %v", err)
	}
	if f.Kind != "heartbeat" {
		t.Fatalf("kind wrong: %v", f.Kind)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{"type":`},
		{name: "empty", data: ``},
		{name: "no type", data: `{"streamed":1}`},
		{name: "segment without geometry", data: `{"type":"segment","segment_id":"s"}`},
		{name: "event without payload", data: `{"type":"event"}`},
		{name: "progress without counts", data: `{"type":"progress","streamed":5}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Fatalf("expected parse error")
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	dist := 7.25
	payload, err := EncodeEvent(Event{EventID: "evt-5", Lon: 9.9, Lat: 48.4, EventType: "Roadworks", Matched: true, MatchDistanceM: &dist})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := Parse(payload)
	if err != nil {
		t.Fatalf("parse own encoding: %v", err)
	}
	if f.Kind != KindEvent || f.Event.EventID != "evt-5" || *f.Event.MatchDistanceM != 7.25 {
		t.Fatalf("round trip wrong: %+v", f.Event)
	}

	payload, err = EncodeProgress(Progress{Streamed: 0, Total: 0, Segments: 0})
	if err != nil {
		t.Fatalf("encode progress: %v", err)
	}
	// Zero counts must survive encoding; they are real values, not
	// absent fields.
	f, err = Parse(payload)
	if err != nil {
		t.Fatalf("parse zero progress: %v", err)
	}
	if f.Kind != KindProgress {
		t.Fatalf("want progress, got %v", f.Kind)
	}
}
