package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roadstream/roadstream/internal/hub"
	"github.com/roadstream/roadstream/internal/replay"
	"github.com/roadstream/roadstream/pkg/protocol"
)

const writeTimeout = 3 * time.Second

// Handler accepts a stream connection, snapshots the current dataset
// and replays it. The read loop only carries control frames; all data
// frames flow the other way from the streamer goroutine.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchSize, ok := queryInt(r, "batch_size", replay.DefaultBatchSize)
		if !ok || batchSize < replay.MinBatchSize || batchSize > replay.MaxBatchSize {
			http.Error(w, "invalid batch_size", http.StatusBadRequest)
			return
		}
		tickMS, ok := queryInt(r, "tick_ms", replay.DefaultTickMS)
		if !ok || tickMS < replay.MinTickMS || tickMS > replay.MaxTickMS {
			http.Error(w, "invalid tick_ms", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		lg := log.With(zap.String("stream_id", uuid.NewString()))
		ds := h.Dataset()
		lg.Info("stream session open",
			zap.Int("events", len(ds.Roadworks)),
			zap.Int("segments", len(ds.Segments)),
			zap.Int("batch_size", batchSize),
			zap.Int("tick_ms", tickMS))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		send := func(ctx context.Context, payload []byte) error {
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			defer wcancel()
			return conn.Write(wctx, websocket.MessageText, payload)
		}

		controls := make(chan protocol.Control, 8)
		st := replay.NewStreamer(ds, batchSize, tickMS, send, lg)
		go func() {
			if err := st.Run(ctx, controls); err != nil && ctx.Err() == nil {
				lg.Warn("streamer stopped", zap.Error(err))
			}
		}()

		// Reader loop: controls only.
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					lg.Info("stream session closed")
				default:
					if ctx.Err() == nil {
						lg.Warn("stream session dropped", zap.Error(err))
					}
				}
				return
			}

			ctl, err := protocol.ParseControl(data)
			if err != nil {
				lg.Warn("dropping bad control frame", zap.Error(err))
				continue
			}

			select {
			case controls <- ctl:
			case <-ctx.Done():
				return
			}
		}
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
