package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// SourceNetease labels URLs obtained through the authenticated Netease API.
const SourceNetease = "netease-vip"

const vipBitrate = "320000"

// NeteaseResolver asks the authenticated Netease API service for a
// bitrate-selected direct URL, forwarding the caller's merged cookie bundle.
type NeteaseResolver struct {
	base   string
	client *http.Client
}

// NewNeteaseResolver creates a resolver against the given API base URL.
func NewNeteaseResolver(base string, client *http.Client) *NeteaseResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &NeteaseResolver{base: base, client: client}
}

// Name implements Resolver.
func (r *NeteaseResolver) Name() string { return SourceNetease }

// Resolve implements Resolver. Success requires a non-empty url in the first
// element of the payload's data array; anything else is a failure.
func (r *NeteaseResolver) Resolve(ctx context.Context, trackID string, creds Credentials) (string, error) {
	endpoint := fmt.Sprintf("%s/song/url?id=%s&br=%s", r.base, url.QueryEscape(trackID), vipBitrate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if cookie := creds.CookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
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
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(payload.Data) == 0 || payload.Data[0].URL == "" {
		return "", fmt.Errorf("no url in payload for track %s", trackID)
	}
	return payload.Data[0].URL, nil
}
