// Package resolver maps track ids to directly fetchable audio URLs.
//
// Resolvers implement one shared interface and are tried in order by Chain;
// the first non-empty URL wins. Individual resolver failures are absorbed,
// never propagated.
package resolver

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned by Chain when every resolver has failed.
var ErrNotFound = errors.New("no resolver produced a playable url")

// Credentials is a cookie-pair credential bundle forwarded to resolvers that
// talk to authenticated upstreams.
type Credentials map[string]string

// ParseCookies parses a Cookie header value into a credential bundle.
// Malformed pairs are dropped.
func ParseCookies(raw string) Credentials {
	creds := Credentials{}
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		crack := strings.Index(pair, "=")
		if crack < 1 || crack == len(pair)-1 {
			continue
		}
		name, nameErr := url.QueryUnescape(strings.TrimSpace(pair[:crack]))
		value, valueErr := url.QueryUnescape(strings.TrimSpace(pair[crack+1:]))
		if nameErr != nil || valueErr != nil || name == "" {
			continue
		}
		creds[name] = value
	}
	return creds
}

// Merge overlays override onto base without mutating either. The caller's own
// cookies win over the operator-configured VIP set.
func Merge(base, override Credentials) Credentials {
	merged := make(Credentials, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// CookieHeader renders the bundle as a Cookie header value with a stable
// pair order.
func (c Credentials) CookieHeader() string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+c[name])
	}
	return strings.Join(pairs, "; ")
}

// ResolvedURL is a successful resolution: the playable URL and which resolver
// produced it. It is ephemeral and never persisted.
type ResolvedURL struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Resolver maps one track id to a playable URL through a single upstream.
type Resolver interface {
	// Name identifies the resolver in responses and logs.
	Name() string
	// Resolve returns a non-empty URL or an error. Implementations must not
	// panic past this boundary; any failure is an error return.
	Resolve(ctx context.Context, trackID string, creds Credentials) (string, error)
}

// Chain tries its resolvers in order and returns the first success. Each
// resolver gets exactly one attempt per call, bounded by the per-call timeout.
type Chain struct {
	resolvers []Resolver
	timeout   time.Duration
	logger    *log.Logger
}

// NewChain builds a chain over the given resolvers. A non-positive timeout
// disables the per-call bound.
func NewChain(logger *log.Logger, timeout time.Duration, resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers, timeout: timeout, logger: logger}
}

// Resolve runs the chain for one track. It returns ErrNotFound when every
// resolver fails; individual failures are logged and swallowed.
func (ch *Chain) Resolve(ctx context.Context, trackID string, creds Credentials) (*ResolvedURL, error) {
	for _, r := range ch.resolvers {
		callCtx := ctx
		cancel := func() {}
		if ch.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, ch.timeout)
		}

		audioURL, err := r.Resolve(callCtx, trackID, creds)
		cancel()
		if err != nil || audioURL == "" {
			ch.logger.Debug("resolver failed", "source", r.Name(), "track", trackID, "err", err)
			continue
		}

		ch.logger.Info("resolved track url", "source", r.Name(), "track", trackID)
		return &ResolvedURL{URL: audioURL, Source: r.Name()}, nil
	}
	return nil, ErrNotFound
}
