package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/etsusei/NeteaseCloudMusicApi2/models"
)

const tokenLifetime = 7 * 24 * time.Hour

const claimsKey = "claims"

// Claims is the decoded bearer token payload.
type Claims struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// GenerateToken signs a bearer token for the user, valid for seven days.
func GenerateToken(secret string, user *models.User) (string, error) {
	claims := Claims{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// AuthRequired verifies the Authorization bearer token and stores the decoded
// claims for the handler chain. Requests without a valid token get 401.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"code": 401, "msg": "未登录"})
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"code": 401, "msg": "登录已过期"})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// CurrentUser returns the claims stored by AuthRequired, or nil when the
// request never passed through it.
func CurrentUser(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(claimsKey).(*Claims)
	return claims
}
