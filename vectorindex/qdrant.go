// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const qdrantDefaultTimeout = 10 * time.Second

// Qdrant implements Index against the Qdrant REST API.
type Qdrant struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

var _ Index = (*Qdrant)(nil)

// QdrantOption configures a Qdrant index client.
type QdrantOption func(*Qdrant)

// WithAPIKey sets the api-key header sent with every request.
func WithAPIKey(key string) QdrantOption {
	return func(q *Qdrant) {
		q.apiKey = key
	}
}

// WithTimeout bounds individual HTTP requests.
func WithTimeout(d time.Duration) QdrantOption {
	return func(q *Qdrant) {
		q.client.Timeout = d
	}
}

// NewQdrant creates a Qdrant index client for the given base URL.
//
// Returns the Index interface to enforce abstraction.
func NewQdrant(baseURL string, opts ...QdrantOption) (Index, error) {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("qdrant: base URL is required")
	}

	q := &Qdrant{
		client:  &http.Client{Timeout: qdrantDefaultTimeout},
		baseURL: base,
		logger:  slog.Default().With("component", "qdrant"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// EnsureCollection creates the collection with cosine distance if missing.
// Qdrant treats the PUT as idempotent, so no existence check is needed.
func (q *Qdrant) EnsureCollection(ctx context.Context, name string, vectorSize int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := q.doRequest(ctx, http.MethodPut, "/collections/"+name, body, nil)
	if err != nil {
		// Recreating an existing collection with identical parameters is a
		// conflict on some Qdrant versions; probe before treating as fatal.
		if probeErr := q.doRequest(ctx, http.MethodGet, "/collections/"+name, nil, nil); probeErr == nil {
			return nil
		}
		return err
	}
	q.logger.Debug("ensured collection", "collection", name, "size", vectorSize)
	return nil
}

// Upsert inserts or overwrites points by id in a single call.
func (q *Qdrant) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	payload := make([]map[string]any, 0, len(points))
	for i := range points {
		payload = append(payload, map[string]any{
			"id":      points[i].ID,
			"vector":  points[i].Vector,
			"payload": points[i].Payload,
		})
	}

	body := map[string]any{"points": payload}
	return q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", collection), body, nil)
}

// qdrantHit captures the fields returned by Qdrant search responses.
type qdrantHit struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector"`
}

// Search performs nearest-neighbor search with exact-match payload filters.
func (q *Qdrant) Search(ctx context.Context, collection string, vector []float32, params SearchParams) ([]Hit, error) {
	request := map[string]any{
		"vector":       vector,
		"limit":        params.Limit,
		"with_payload": true,
		"with_vector":  params.WithVectors,
	}
	if filter := buildFilter(params.Filter); filter != nil {
		request["filter"] = filter
	}

	var response struct {
		Result []qdrantHit `json:"result"`
	}
	searchPath := fmt.Sprintf("/collections/%s/points/search", collection)
	if err := q.doRequest(ctx, http.MethodPost, searchPath, request, &response); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(response.Result))
	for _, res := range response.Result {
		hit := Hit{
			ID:      fmt.Sprint(res.ID),
			Score:   res.Score,
			Payload: res.Payload,
		}
		if params.WithVectors {
			hit.Vector = res.Vector
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close is a no-op; the underlying http.Client holds no resources that
// need explicit release.
func (q *Qdrant) Close() error {
	return nil
}

// buildFilter builds the must/match filter payload for Qdrant operations.
func buildFilter(filters map[string]string) map[string]any {
	if len(filters) == 0 {
		return nil
	}
	must := make([]any, 0, len(filters))
	for key, val := range filters {
		must = append(must, map[string]any{
			"key":   key,
			"match": map[string]any{"value": val},
		})
	}
	return map[string]any{"must": must}
}

func (q *Qdrant) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("qdrant: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("qdrant: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("qdrant: decode response: %w", err)
		}
	}
	return nil
}
