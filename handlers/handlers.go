// Package handlers implements the HTTP surface of the gateway: the music URL
// resolution and download endpoints, and the authenticated playlist API.
package handlers

import (
	"github.com/charmbracelet/log"

	"github.com/etsusei/NeteaseCloudMusicApi2/config"
	"github.com/etsusei/NeteaseCloudMusicApi2/proxy"
	"github.com/etsusei/NeteaseCloudMusicApi2/resolver"
	"github.com/etsusei/NeteaseCloudMusicApi2/store"
)

// Handler bundles the collaborators every route handler needs.
type Handler struct {
	cfg       *config.Config
	logger    *log.Logger
	users     *store.UserStore
	playlists *store.PlaylistStore
	chain     *resolver.Chain
	fetcher   *proxy.Fetcher
}

// New constructs a Handler with explicit dependencies.
func New(cfg *config.Config, logger *log.Logger, users *store.UserStore,
	playlists *store.PlaylistStore, chain *resolver.Chain, fetcher *proxy.Fetcher) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		users:     users,
		playlists: playlists,
		chain:     chain,
		fetcher:   fetcher,
	}
}
