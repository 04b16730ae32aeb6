package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func cacheTestApp() (*fiber.App, *int) {
	hits := 0
	app := fiber.New()
	app.Use(cacheMiddleware(nil)) // nil storage falls back to in-memory

	app.Get("/music/url", func(c *fiber.Ctx) error {
		hits++
		return c.SendString("url-for-" + c.Query("id"))
	})
	app.Get("/api/playlists", func(c *fiber.Ctx) error {
		hits++
		return c.SendString("playlists")
	})
	return app, &hits
}

func get(t *testing.T, app *fiber.App, target string) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body)
}

func TestCacheMiddleware(t *testing.T) {
	t.Run("Entries Are Keyed By Track Id", func(t *testing.T) {
		app, _ := cacheTestApp()

		if got := get(t, app, "/music/url?id=111"); got != "url-for-111" {
			t.Errorf("expected url-for-111, got %q", got)
		}
		// A second track must never be served the first track's entry.
		if got := get(t, app, "/music/url?id=222"); got != "url-for-222" {
			t.Errorf("expected url-for-222, got %q", got)
		}
	})

	t.Run("Repeated Lookup Is Served From Cache", func(t *testing.T) {
		app, hits := cacheTestApp()

		get(t, app, "/music/url?id=111")
		get(t, app, "/music/url?id=111")
		if *hits != 1 {
			t.Errorf("expected 1 handler hit, got %d", *hits)
		}
	})

	t.Run("User Api Is Never Cached", func(t *testing.T) {
		app, hits := cacheTestApp()

		get(t, app, "/api/playlists")
		get(t, app, "/api/playlists")
		if *hits != 2 {
			t.Errorf("expected 2 handler hits, got %d", *hits)
		}
	})
}
