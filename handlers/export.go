package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/etsusei/NeteaseCloudMusicApi2/middleware"
	"github.com/etsusei/NeteaseCloudMusicApi2/models"
)

const exportVersion = "1.0"

// ExportPlaylists returns all of the authenticated user's playlists as a
// portable document that ImportPlaylists accepts back.
func (h *Handler) ExportPlaylists(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	user, err := h.users.GetByID(c.UserContext(), claims.ID)
	if err != nil {
		h.logger.Error("export user query failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "导出失败"})
	}

	playlists, err := h.playlists.ExportAll(c.UserContext(), claims.ID)
	if err != nil {
		h.logger.Error("export query failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "导出失败"})
	}
	if playlists == nil {
		playlists = []models.ExportPlaylist{}
	}

	doc := models.ExportDocument{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Username:   user.Username,
		Playlists:  playlists,
	}
	return c.JSON(fiber.Map{"code": 200, "data": doc})
}

// ImportPlaylists creates every playlist in the posted document for the
// authenticated user in one all-or-nothing transaction.
func (h *Handler) ImportPlaylists(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	var body struct {
		Playlists []models.ExportPlaylist `json:"playlists"`
	}
	if err := c.BodyParser(&body); err != nil || body.Playlists == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "无效的导入数据"})
	}

	imported, err := h.playlists.Import(c.UserContext(), claims.ID, body.Playlists)
	if err != nil {
		h.logger.Error("import failed", "user", claims.ID, "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "导入失败"})
	}

	h.logger.Info("playlists imported", "user", claims.ID, "count", imported)
	return c.JSON(fiber.Map{"code": 200, "msg": fmt.Sprintf("成功导入 %d 个歌单", imported)})
}
