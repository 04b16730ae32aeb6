// Package proxy reaches upstream audio origins on behalf of browser clients,
// spoofing the headers those origins require to avoid hotlink rejection.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrTooManyRedirects is returned when a redirect chain exceeds the hop cap.
var ErrTooManyRedirects = errors.New("too many redirects")

// DefaultMaxRedirects matches the upstream meting endpoint's typical chain
// length with room to spare.
const DefaultMaxRedirects = 10

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

// FetchResult is the terminal point of a followed redirect chain.
type FetchResult struct {
	FinalURL   string
	StatusCode int
}

// Fetcher issues outbound requests with a browser user agent and a fixed
// referer.
type Fetcher struct {
	client       *http.Client
	referer      string
	maxRedirects int
}

// NewFetcher creates a Fetcher. maxRedirects bounds FollowRedirects; values
// below 1 fall back to DefaultMaxRedirects.
func NewFetcher(client *http.Client, referer string, maxRedirects int) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxRedirects < 1 {
		maxRedirects = DefaultMaxRedirects
	}
	return &Fetcher{client: client, referer: referer, maxRedirects: maxRedirects}
}

// FollowRedirects issues GETs starting at rawURL, following Location headers
// manually so the hop count stays bounded, and returns the final URL and
// status. Exceeding the cap fails with ErrTooManyRedirects.
func (f *Fetcher) FollowRedirects(ctx context.Context, rawURL string) (*FetchResult, error) {
	client := *f.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	current := rawURL
	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		f.setHeaders(req, f.referer)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		location := resp.Header.Get("Location")
		redirected := resp.StatusCode >= 300 && resp.StatusCode < 400 && location != ""
		if !redirected {
			resp.Body.Close()
			return &FetchResult{FinalURL: current, StatusCode: resp.StatusCode}, nil
		}
		resp.Body.Close()

		if hops >= f.maxRedirects {
			return nil, ErrTooManyRedirects
		}

		// Location may be relative; resolve it against the request URL.
		next, err := req.URL.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid redirect location %q: %w", location, err)
		}
		current = next.String()
	}
}

// Open starts a GET against an already-resolved audio URL and returns the
// response with its body unread, for streaming to the caller. The caller owns
// the body. Redirects here follow the client's own policy.
func (f *Fetcher) Open(ctx context.Context, rawURL, referer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	f.setHeaders(req, referer)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (f *Fetcher) setHeaders(req *http.Request, referer string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
}
