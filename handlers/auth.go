package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/etsusei/NeteaseCloudMusicApi2/middleware"
	"github.com/etsusei/NeteaseCloudMusicApi2/store"
)

// Login verifies username and password and issues a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil || body.Username == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "用户名和密码不能为空"})
	}

	user, err := h.users.GetByUsername(c.UserContext(), body.Username)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"code": 401, "msg": "用户名或密码错误"})
	}
	if err != nil {
		h.logger.Error("login query failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"code": 401, "msg": "用户名或密码错误"})
	}

	token, err := middleware.GenerateToken(h.cfg.Auth.JWTSecret, user)
	if err != nil {
		h.logger.Error("token generation failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}

	return c.JSON(fiber.Map{
		"code": 200,
		"msg":  "登录成功",
		"data": fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":       user.ID,
				"username": user.Username,
				"is_admin": user.IsAdmin,
			},
		},
	})
}

// Me returns the authenticated user's row.
func (h *Handler) Me(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	user, err := h.users.GetByID(c.UserContext(), claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": 404, "msg": "用户不存在"})
	}
	if err != nil {
		h.logger.Error("user query failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}

	return c.JSON(fiber.Map{"code": 200, "data": user})
}

// UpdateProfile changes the username and/or password of the authenticated
// user, gated on the current password.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	claims := middleware.CurrentUser(c)

	var body struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "无效的请求数据"})
	}

	user, err := h.users.GetByID(c.UserContext(), claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": 404, "msg": "用户不存在"})
	}
	if err != nil {
		h.logger.Error("user query failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"code": 401, "msg": "当前密码错误"})
	}

	if body.Username != "" && body.Username != user.Username {
		taken, err := h.users.UsernameTaken(c.UserContext(), body.Username, user.ID)
		if err != nil {
			h.logger.Error("username check failed", "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
		}
		if taken {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"code": 400, "msg": "用户名已被使用"})
		}
		if err := h.users.UpdateUsername(c.UserContext(), user.ID, body.Username); err != nil {
			h.logger.Error("username update failed", "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
		}
	}

	if body.NewPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			h.logger.Error("password hash failed", "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
		}
		if err := h.users.UpdatePassword(c.UserContext(), user.ID, string(hash)); err != nil {
			h.logger.Error("password update failed", "err", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"code": 500, "msg": "服务器错误"})
		}
	}

	return c.JSON(fiber.Map{"code": 200, "msg": "更新成功"})
}
