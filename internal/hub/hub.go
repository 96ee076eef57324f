// Package hub holds the replay server's current dataset behind a
// single owner goroutine. Uploads swap the dataset wholesale; each
// streaming connection takes its own reference at accept time and is
// unaffected by later swaps.
package hub

import (
	"context"

	"github.com/roadstream/roadstream/internal/dataset"
)

type Msg interface{ isHubMsg() }

// Swap replaces the current dataset and reports the new counts.
type Swap struct {
	DS    dataset.Dataset
	Reply chan Stats
}

// Get fetches the current dataset.
type Get struct {
	Reply chan dataset.Dataset
}

// GetStats fetches the current counts without copying event slices.
type GetStats struct {
	Reply chan Stats
}

type Shutdown struct{}

func (Swap) isHubMsg()     {}
func (Get) isHubMsg()      {}
func (GetStats) isHubMsg() {}
func (Shutdown) isHubMsg() {}

// Stats summarizes the loaded dataset.
type Stats struct {
	Roadworks   int
	Enforcement int
	Segments    int
}

type Hub struct {
	inbox  chan Msg
	ds     dataset.Dataset
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, initial dataset.Dataset) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan Msg, 64),
		ds:     initial,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

// Dataset is a convenience wrapper around Get.
func (h *Hub) Dataset() dataset.Dataset {
	reply := make(chan dataset.Dataset, 1)
	h.Inbox() <- Get{Reply: reply}
	return <-reply
}

// Stats is a convenience wrapper around GetStats.
func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	h.Inbox() <- GetStats{Reply: reply}
	return <-reply
}

func (h *Hub) stats() Stats {
	return Stats{
		Roadworks:   len(h.ds.Roadworks),
		Enforcement: len(h.ds.Enforcement),
		Segments:    len(h.ds.Segments),
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Swap:
				h.ds = msg.DS
				msg.Reply <- h.stats()

			case Get:
				msg.Reply <- h.ds

			case GetStats:
				msg.Reply <- h.stats()

			case Shutdown:
				h.cancel()
				return
			}
		}
	}
}
