package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/roadstream/roadstream/internal/dataset"
	"github.com/roadstream/roadstream/internal/hub"
)

const maxUploadBytes = 80 << 20

func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "roadstream-replay",
	})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Health(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := h.Stats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"roadworks_count":   stats.Roadworks,
			"enforcement_count": stats.Enforcement,
			"segment_count":     stats.Segments,
		})
	}
}

// Upload replaces the whole dataset from a multipart file. The reply
// carries the new partition counts; on failure the body is
// {"error": ...} so callers always have a message to surface.
func Upload(h *hub.Hub, enforcementType string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "file too large, maximum size is 80MB")
				return
			}
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		ds, err := dataset.Decode(file, enforcementType)
		if err != nil {
			log.Warn("upload rejected", zap.String("filename", header.Filename), zap.Error(err))
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		reply := make(chan hub.Stats, 1)
		h.Inbox() <- hub.Swap{DS: ds, Reply: reply}
		stats := <-reply

		log.Info("dataset replaced",
			zap.String("filename", header.Filename),
			zap.Int("roadworks", stats.Roadworks),
			zap.Int("enforcement", stats.Enforcement),
			zap.Int("segments", stats.Segments))

		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"message":           fmt.Sprintf("Loaded %d roadworks events", stats.Roadworks),
			"roadworks_count":   stats.Roadworks,
			"enforcement_count": stats.Enforcement,
		})
	}
}

// Enforcement serves the non-replayed partition as a static GeoJSON
// overlay of point features.
func Enforcement(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := h.Dataset()

		features := make([]map[string]any, 0, len(ds.Enforcement))
		for _, ev := range ds.Enforcement {
			props := map[string]any{
				"event_id":   ev.EventID,
				"event_type": ev.EventType,
			}
			if ev.Timestamp != "" {
				props["timestamp"] = ev.Timestamp
			}
			features = append(features, map[string]any{
				"type":       "Feature",
				"properties": props,
				"geometry": map[string]any{
					"type":        "Point",
					"coordinates": [2]float64{ev.Lon, ev.Lat},
				},
			})
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "FeatureCollection",
			"features": features,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
