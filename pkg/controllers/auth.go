package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
	"github.com/listenup/listenup-server/pkg/config"
)

// AuthController guards the maintenance API.
type AuthController struct {
	app *config.AppConfig
}

// NewAuthController creates a new AuthController.
func NewAuthController(app *config.AppConfig) *AuthController {
	return &AuthController{
		app: app,
	}
}

// HandleAuthHeaderCheck is a middleware to check API-KEY & HASH-SIGNATURE.
// The signature is the hex HMAC-SHA256 of the raw request body, keyed with
// the shared secret.
func (ac *AuthController) HandleAuthHeaderCheck(c *fiber.Ctx) error {
	apiKey := c.Get("API-KEY", "")
	signature := c.Get("HASH-SIGNATURE", "")
	body := c.Body()

	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(ac.app.Client.ApiKey)) != 1 {
		return sendError(c, fiber.StatusUnauthorized, "invalid API key")
	}
	if signature == "" {
		return sendError(c, fiber.StatusUnauthorized, "hash signature value required")
	}

	mac := hmac.New(sha256.New, []byte(ac.app.Client.Secret))
	mac.Write(body)
	expectedSignature := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(expectedSignature), []byte(signature)) != 1 {
		return sendError(c, fiber.StatusUnauthorized, "can't verify provided information")
	}

	return c.Next()
}

// sendError writes the common error envelope every API consumer expects.
func sendError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
