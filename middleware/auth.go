package middleware

import (
	"crypto/subtle"
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Authorizer decides whether a submitted secret unlocks the recording
// endpoint. It is injected so a deployment can swap the shared-secret
// gate for real auth without touching the tracker logic.
type Authorizer interface {
	Authorize(secret string) bool
}

// SharedSecretAuthorizer compares against a single group password. Fine
// for a small trusted playgroup; not a security boundary.
type SharedSecretAuthorizer struct {
	secret string
}

func NewSharedSecretAuthorizer(secret string) *SharedSecretAuthorizer {
	return &SharedSecretAuthorizer{secret: secret}
}

// NewSharedSecretAuthorizerFromEnv reads GROUP_SECRET.
func NewSharedSecretAuthorizerFromEnv() *SharedSecretAuthorizer {
	secret := os.Getenv("GROUP_SECRET")
	if secret == "" {
		log.Fatal("❌ GROUP_SECRET is not set — recording endpoint cannot be gated")
	}
	return NewSharedSecretAuthorizer(secret)
}

func (a *SharedSecretAuthorizer) Authorize(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(secret), []byte(a.secret)) == 1
}

// GroupGateMiddleware guards write routes. The secret comes from the
// X-Group-Secret header, or a Bearer Authorization header as fallback.
func GroupGateMiddleware(auth Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Get("X-Group-Secret")
		if secret == "" {
			header := c.Get("Authorization")
			secret = strings.TrimPrefix(header, "Bearer ")
			if secret == header {
				secret = ""
			}
		}

		if secret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "group secret missing",
			})
		}
		if !auth.Authorize(secret) {
			log.Printf("🚫 [GATE] wrong group secret for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "wrong group secret",
			})
		}
		return c.Next()
	}
}
