package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SourceFallback labels URLs obtained through the public fallback API.
const SourceFallback = "fallback-api"

// FallbackResolver queries an unauthenticated third-party endpoint keyed only
// by the numeric track id. The returned audio is trusted as-is; there is no
// verification that it matches the requested track.
type FallbackResolver struct {
	// endpoint is a printf template with one %s verb for the track id.
	endpoint string
	client   *http.Client
}

// NewFallbackResolver creates a resolver for the templated public endpoint.
func NewFallbackResolver(endpoint string, client *http.Client) *FallbackResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &FallbackResolver{endpoint: endpoint, client: client}
}

// Name implements Resolver.
func (r *FallbackResolver) Name() string { return SourceFallback }

// Resolve implements Resolver. Credentials are ignored; the endpoint is
// public. Network errors, unparseable bodies and a missing url field all
// collapse into a single failure.
func (r *FallbackResolver) Resolve(ctx context.Context, trackID string, _ Credentials) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(r.endpoint, trackID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if payload.URL == "" {
		return "", fmt.Errorf("no url in payload for track %s", trackID)
	}
	return payload.URL, nil
}
