package handlers

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/etsusei/NeteaseCloudMusicApi2/middleware"
)

// audioReferer is required by the audio origin to avoid hotlink rejection.
const audioReferer = "https://music.163.com/"

// MusicURL resolves a track id to a playable URL through the resolver chain
// and returns it without proxying any audio.
func (h *Handler) MusicURL(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code": 400, "msg": "Missing id parameter", "data": nil,
		})
	}

	resolved, err := h.chain.Resolve(c.UserContext(), id, middleware.RequestCredentials(c))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": 404, "msg": "无法获取歌曲链接", "data": nil,
		})
	}

	return c.JSON(fiber.Map{
		"code": 200,
		"msg":  "success",
		"data": fiber.Map{"url": resolved.URL, "id": id, "source": resolved.Source},
	})
}

// MusicDownload resolves a track and streams the audio through to the caller
// as a browser download. Bytes are relayed as they arrive; once streaming has
// begun, upstream failures terminate the connection instead of producing JSON.
func (h *Handler) MusicDownload(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "Missing id parameter"})
	}

	resolved, err := h.chain.Resolve(c.UserContext(), id, middleware.RequestCredentials(c))
	if err != nil {
		h.logger.Info("download resolution failed", "track", id)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": 404, "msg": "无法获取歌曲链接"})
	}

	resp, err := h.fetcher.Open(c.UserContext(), resolved.URL, audioReferer)
	if err != nil {
		h.logger.Error("audio fetch failed", "track", id, "source", resolved.Source, "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "下载失败"})
	}

	filename := id + ".mp3"
	if name := c.Query("name"); name != "" {
		filename = name + ".mp3"
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename*=UTF-8''"+url.PathEscape(filename))

	h.logger.Info("streaming download", "track", id, "source", resolved.Source)
	if size, err := strconv.Atoi(resp.Header.Get(fiber.HeaderContentLength)); err == nil && size >= 0 {
		return c.SendStream(resp.Body, size)
	}
	return c.SendStream(resp.Body)
}

// Proxy resolves the meting redirect chain for a track id and returns the
// final URL. Unlike MusicURL this does no two-tier resolution; it exists for
// frontends that only need the redirect target.
func (h *Handler) Proxy(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code": 400, "msg": "Missing id parameter", "url": nil,
		})
	}

	result, err := h.fetcher.FollowRedirects(c.UserContext(), fmt.Sprintf(h.cfg.Netease.ProxyTarget, id))
	if err != nil {
		h.logger.Error("proxy fetch failed", "track", id, "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": 500, "msg": err.Error(), "url": nil,
		})
	}

	return c.JSON(fiber.Map{"code": result.StatusCode, "url": result.FinalURL, "id": id})
}
