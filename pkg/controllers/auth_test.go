package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/logging"
	"github.com/stretchr/testify/assert"
)

func newAuthTestApp() *fiber.App {
	appCnf := &config.AppConfig{
		Logger: logging.NewTestLogger(),
		Client: config.ClientInfo{
			ApiKey: "testapikey",
			Secret: "testsecretvalue",
		},
	}
	ac := NewAuthController(appCnf)

	app := fiber.New()
	auth := app.Group("/auth", ac.HandleAuthHeaderCheck)
	auth.Post("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestAuthHeaderCheck_ValidSignature(t *testing.T) {
	app := newAuthTestApp()
	body := []byte(`{"hello":"world"}`)

	req := httptest.NewRequest("POST", "/auth/ping", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-KEY", "testapikey")
	req.Header.Set("HASH-SIGNATURE", signBody("testsecretvalue", body))

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthHeaderCheck_WrongApiKey(t *testing.T) {
	app := newAuthTestApp()
	body := []byte(`{}`)

	req := httptest.NewRequest("POST", "/auth/ping", bytes.NewReader(body))
	req.Header.Set("API-KEY", "wrongkey")
	req.Header.Set("HASH-SIGNATURE", signBody("testsecretvalue", body))

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHeaderCheck_MissingSignature(t *testing.T) {
	app := newAuthTestApp()

	req := httptest.NewRequest("POST", "/auth/ping", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("API-KEY", "testapikey")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHeaderCheck_TamperedBody(t *testing.T) {
	app := newAuthTestApp()
	body := []byte(`{"episode_id":"abc"}`)

	req := httptest.NewRequest("POST", "/auth/ping", bytes.NewReader([]byte(`{"episode_id":"xyz"}`)))
	req.Header.Set("API-KEY", "testapikey")
	req.Header.Set("HASH-SIGNATURE", signBody("testsecretvalue", body))

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
