// Package overlay talks to the replay server's REST surface: the
// one-shot dataset upload and the static enforcement overlay. Both are
// side channels next to the stream; neither touches session state.
package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// UploadSummary is the only part of the upload response this side
// consumes.
type UploadSummary struct {
	RoadworksCount   int `json:"roadworks_count"`
	EnforcementCount int `json:"enforcement_count"`
}

// PointFeature is one enforcement observation from the overlay.
type PointFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   struct {
		Type        string     `json:"type"`
		Coordinates [2]float64 `json:"coordinates"`
	} `json:"geometry"`
}

// FeatureCollection is the enforcement overlay payload.
type FeatureCollection struct {
	Type     string         `json:"type"`
	Features []PointFeature `json:"features"`
}

// EventType reads properties.event_type, empty when absent.
func (f PointFeature) EventType() string {
	if v, ok := f.Properties["event_type"].(string); ok {
		return v
	}
	return ""
}

type Client struct {
	baseURL string
	hc      *http.Client
}

// New builds a client for the server at baseURL. A nil hc falls back
// to http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), hc: hc}
}

// Upload posts a dataset file and returns the server's event counts.
// Failures are fully recoverable: the caller can fix the file and
// retry. Any non-2xx response becomes an error carrying the server's
// message when it sent one.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (UploadSummary, error) {
	var body strings.Builder
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadSummary{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadSummary{}, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadSummary{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", strings.NewReader(body.String()))
	if err != nil {
		return UploadSummary{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return UploadSummary{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadSummary{}, fmt.Errorf("upload failed: %s", errorMessage(resp))
	}

	var summary UploadSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return UploadSummary{}, fmt.Errorf("decode upload response: %w", err)
	}
	return summary, nil
}

// Enforcement fetches the enforcement overlay.
func (c *Client) Enforcement(ctx context.Context) (FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/enforcement.geojson", nil)
	if err != nil {
		return FeatureCollection{}, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return FeatureCollection{}, fmt.Errorf("fetch enforcement overlay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FeatureCollection{}, fmt.Errorf("fetch enforcement overlay: %s", errorMessage(resp))
	}

	var fc FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return FeatureCollection{}, fmt.Errorf("decode enforcement overlay: %w", err)
	}
	return fc, nil
}

// errorMessage pulls {"error": ...} out of a failure response, falling
// back to the HTTP status when the body carries nothing usable.
func errorMessage(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return resp.Status
}
