package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/etsusei/NeteaseCloudMusicApi2/models"
)

const testSecret = "test-secret"

func authApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/protected", AuthRequired(secret), func(c *fiber.Ctx) error {
		claims := CurrentUser(c)
		return c.JSON(fiber.Map{"id": claims.ID, "username": claims.Username, "is_admin": claims.IsAdmin})
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := authApp(testSecret)
	user := &models.User{ID: 42, Username: "alice", IsAdmin: true}

	t.Run("Valid Token", func(t *testing.T) {
		token, err := GenerateToken(testSecret, user)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var body struct {
			ID       int    `json:"id"`
			Username string `json:"username"`
			IsAdmin  bool   `json:"is_admin"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body.ID != 42 || body.Username != "alice" || !body.IsAdmin {
			t.Errorf("claims not round-tripped: %+v", body)
		}
	})

	t.Run("Missing Header", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Malformed Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, err := GenerateToken("other-secret", user)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		claims := Claims{
			ID:       user.ID,
			Username: user.Username,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestCookieContext(t *testing.T) {
	app := fiber.New()
	vip := map[string]string{"MUSIC_U": "vip-token", "os": "pc"}
	app.Use(CookieContext(vip))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(RequestCredentials(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Cookie", "MUSIC_U=caller-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var merged map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&merged); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if merged["MUSIC_U"] != "caller-token" {
		t.Errorf("caller cookie should override VIP cookie, got %q", merged["MUSIC_U"])
	}
	if merged["os"] != "pc" {
		t.Errorf("VIP-only cookie should survive the merge, got %q", merged["os"])
	}
}
