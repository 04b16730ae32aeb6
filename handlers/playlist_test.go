package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/etsusei/NeteaseCloudMusicApi2/config"
	"github.com/etsusei/NeteaseCloudMusicApi2/middleware"
	"github.com/etsusei/NeteaseCloudMusicApi2/models"
	"github.com/etsusei/NeteaseCloudMusicApi2/store"
)

func playlistApp(t *testing.T, db *fakeDB) (*fiber.App, string) {
	t.Helper()
	cfg := config.Default()
	logger := log.New(io.Discard)
	playlists := store.NewPlaylistStore(db)
	h := New(cfg, logger, nil, playlists, nil, nil)

	app := fiber.New()
	pl := app.Group("/api/playlists", middleware.AuthRequired(cfg.Auth.JWTSecret))
	pl.Delete("/:id", h.DeletePlaylist)

	token, err := middleware.GenerateToken(cfg.Auth.JWTSecret, &models.User{ID: 7, Username: "bob"})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return app, token
}

func deletePlaylist(t *testing.T, app *fiber.App, token, id string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, "/api/playlists/"+id, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestDeletePlaylist(t *testing.T) {
	t.Run("Someone Elses Playlist Is Not Found", func(t *testing.T) {
		// The owner-scoped DELETE touches zero rows; the caller must see a
		// plain 404, indistinguishable from a playlist that never existed.
		app, token := playlistApp(t, &fakeDB{execTag: pgconn.CommandTag("DELETE 0")})

		resp := deletePlaylist(t, app, token, uuid.NewString())
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		body := decodeBody(t, resp)
		if body["msg"] != "歌单不存在" {
			t.Errorf("unexpected msg %v", body["msg"])
		}
	})

	t.Run("Owned Playlist Is Deleted", func(t *testing.T) {
		app, token := playlistApp(t, &fakeDB{execTag: pgconn.CommandTag("DELETE 1")})

		resp := deletePlaylist(t, app, token, uuid.NewString())
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Invalid Id", func(t *testing.T) {
		app, token := playlistApp(t, &fakeDB{})

		resp := deletePlaylist(t, app, token, "not-a-uuid")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}
