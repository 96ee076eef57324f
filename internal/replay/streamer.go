// Package replay paces a pre-matched dataset over one stream
// connection: batches of events per tick, each segment's geometry sent
// once before the first event that references it, progress after every
// batch and a complete frame at the end of the data.
package replay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roadstream/roadstream/internal/dataset"
	"github.com/roadstream/roadstream/pkg/protocol"
)

// Pacing bounds enforced on set_speed requests; the client only
// proposes values.
const (
	MinBatchSize = 1
	MaxBatchSize = 500
	MinTickMS    = 10
	MaxTickMS    = 1000

	DefaultBatchSize = 50
	DefaultTickMS    = 50
)

// SendFunc delivers one encoded frame to the peer.
type SendFunc func(ctx context.Context, payload []byte) error

// Streamer replays one dataset over one connection. It is driven by a
// single Run goroutine; controls arrive on a channel owned by the
// connection's read loop.
type Streamer struct {
	events    []protocol.Event
	segments  map[string]protocol.Segment
	batchSize int
	tickMS    int
	send      SendFunc
	log       *zap.Logger
}

func NewStreamer(ds dataset.Dataset, batchSize, tickMS int, send SendFunc, log *zap.Logger) *Streamer {
	return &Streamer{
		events:    ds.Roadworks,
		segments:  ds.Segments,
		batchSize: clamp(batchSize, MinBatchSize, MaxBatchSize),
		tickMS:    clamp(tickMS, MinTickMS, MaxTickMS),
		send:      send,
		log:       log,
	}
}

// Run streams until ctx is canceled or a send fails. After the data is
// exhausted the loop stays alive so a later restart control can replay
// from the beginning.
func (s *Streamer) Run(ctx context.Context, controls <-chan protocol.Control) error {
	var (
		idx    int
		paused bool
		done   bool
		sent   = make(map[string]bool)
	)

	ticker := time.NewTicker(time.Duration(s.tickMS) * time.Millisecond)
	defer ticker.Stop()

	if len(s.events) == 0 {
		if err := s.sendComplete(ctx); err != nil {
			return err
		}
		done = true
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ctl, ok := <-controls:
			if !ok {
				return nil
			}
			switch ctl.Action {
			case protocol.ActionPause:
				paused = true

			case protocol.ActionResume:
				paused = false

			case protocol.ActionSetSpeed:
				if ctl.BatchSize > 0 {
					s.batchSize = clamp(ctl.BatchSize, MinBatchSize, MaxBatchSize)
				}
				if ctl.TickMS > 0 {
					s.tickMS = clamp(ctl.TickMS, MinTickMS, MaxTickMS)
					ticker.Reset(time.Duration(s.tickMS) * time.Millisecond)
				}
				s.log.Debug("pacing changed",
					zap.Int("batch_size", s.batchSize),
					zap.Int("tick_ms", s.tickMS))

			case protocol.ActionRestart:
				idx = 0
				done = false
				clear(sent)
				if len(s.events) == 0 {
					if err := s.sendComplete(ctx); err != nil {
						return err
					}
					done = true
				}

			default:
				s.log.Debug("ignoring control", zap.String("action", ctl.Action))
			}

		case <-ticker.C:
			if paused || done {
				continue
			}

			end := min(idx+s.batchSize, len(s.events))
			for i := idx; i < end; i++ {
				if err := s.emit(ctx, s.events[i], sent); err != nil {
					return err
				}
			}
			idx = end

			progress, err := protocol.EncodeProgress(protocol.Progress{
				Streamed: idx,
				Total:    len(s.events),
				Segments: len(sent),
			})
			if err != nil {
				return err
			}
			if err := s.send(ctx, progress); err != nil {
				return err
			}

			if idx >= len(s.events) {
				if err := s.sendComplete(ctx); err != nil {
					return err
				}
				done = true
			}
		}
	}
}

// emit sends one event frame, preceded by its segment geometry the
// first time that segment shows up. Segments without known geometry
// are never counted as sent.
func (s *Streamer) emit(ctx context.Context, ev protocol.Event, sent map[string]bool) error {
	if ev.Matched && ev.MatchedSegmentID != "" && !sent[ev.MatchedSegmentID] {
		if seg, ok := s.segments[ev.MatchedSegmentID]; ok {
			payload, err := protocol.EncodeSegment(seg)
			if err != nil {
				return err
			}
			if err := s.send(ctx, payload); err != nil {
				return err
			}
			sent[ev.MatchedSegmentID] = true
		}
	}

	payload, err := protocol.EncodeEvent(ev)
	if err != nil {
		return err
	}
	return s.send(ctx, payload)
}

func (s *Streamer) sendComplete(ctx context.Context) error {
	payload, err := protocol.EncodeComplete()
	if err != nil {
		return err
	}
	return s.send(ctx, payload)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
