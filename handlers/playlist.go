package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/etsusei/NeteaseCloudMusicApi2/middleware"
	"github.com/etsusei/NeteaseCloudMusicApi2/models"
	"github.com/etsusei/NeteaseCloudMusicApi2/store"
)

// ListPlaylists returns the authenticated user's playlists with entry counts.
func (h *Handler) ListPlaylists(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	playlists, err := h.playlists.ListByOwner(c.UserContext(), claims.ID)
	if err != nil {
		h.logger.Error("playlist list failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	return c.JSON(fiber.Map{"code": 200, "data": playlists})
}

// CreatePlaylist creates an empty playlist owned by the authenticated user.
func (h *Handler) CreatePlaylist(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	var body struct {
		Name  string  `json:"name"`
		Cover *string `json:"cover"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "歌单名称不能为空"})
	}

	playlist, err := h.playlists.Create(c.UserContext(), claims.ID, body.Name, body.Cover)
	if err != nil {
		h.logger.Error("playlist create failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}
	return c.JSON(fiber.Map{"code": 200, "msg": "创建成功", "data": playlist})
}

// DeletePlaylist removes the authenticated user's playlist. A playlist owned
// by someone else is reported as missing.
func (h *Handler) DeletePlaylist(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	playlistID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "无效的歌单ID"})
	}

	err = h.playlists.Delete(c.UserContext(), claims.ID, playlistID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": 404, "msg": "歌单不存在"})
	}
	if err != nil {
		h.logger.Error("playlist delete failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}
	return c.JSON(fiber.Map{"code": 200, "msg": "删除成功"})
}

// PlaylistSongs returns the entries of one of the authenticated user's
// playlists.
func (h *Handler) PlaylistSongs(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	playlistID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "无效的歌单ID"})
	}

	songs, err := h.playlists.Songs(c.UserContext(), claims.ID, playlistID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": 404, "msg": "歌单不存在"})
	}
	if err != nil {
		h.logger.Error("playlist songs query failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}
	if songs == nil {
		songs = []models.PlaylistSong{}
	}
	return c.JSON(fiber.Map{"code": 200, "data": songs})
}

// AddPlaylistSong adds one song to the authenticated user's playlist.
// Adding a song that is already present succeeds without creating a row.
func (h *Handler) AddPlaylistSong(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	playlistID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "无效的歌单ID"})
	}

	var body struct {
		SongID   string  `json:"song_id"`
		SongName string  `json:"song_name"`
		Artist   string  `json:"artist"`
		Album    string  `json:"album"`
		Cover    *string `json:"cover"`
	}
	if err := c.BodyParser(&body); err != nil || body.SongID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "歌曲ID不能为空"})
	}

	song := models.ExportSong{
		SongID:   body.SongID,
		SongName: body.SongName,
		Artist:   body.Artist,
		Album:    body.Album,
		Cover:    body.Cover,
	}
	err = h.playlists.AddSong(c.UserContext(), claims.ID, playlistID, song)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": 404, "msg": "歌单不存在"})
	}
	if err != nil {
		h.logger.Error("playlist song add failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}
	return c.JSON(fiber.Map{"code": 200, "msg": "添加成功"})
}

// RemovePlaylistSong deletes one song from the authenticated user's playlist.
func (h *Handler) RemovePlaylistSong(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	playlistID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "无效的歌单ID"})
	}

	err = h.playlists.RemoveSong(c.UserContext(), claims.ID, playlistID, c.Params("songId"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": 404, "msg": "歌单不存在"})
	}
	if err != nil {
		h.logger.Error("playlist song delete failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}
	return c.JSON(fiber.Map{"code": 200, "msg": "删除成功"})
}
