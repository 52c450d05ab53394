package auth

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/grievance-portal/internal/domain"
	apperrors "github.com/civicdesk/grievance-portal/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// Username returns the caller's username, or "" for anonymous callers.
func (p *Principal) Username() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Username
}

// Authenticator checks a username and password pair.
type Authenticator interface {
	VerifyLogin(ctx context.Context, username, password string) (*domain.User, error)
}

// AuthMiddleware checks HTTP Basic credentials on every request; no session
// or token outlives the request.
type AuthMiddleware struct {
	authenticator Authenticator
	realm         string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authenticator Authenticator, realm string) *AuthMiddleware {
	if realm == "" {
		realm = "grievance-portal"
	}
	return &AuthMiddleware{authenticator: authenticator, realm: realm}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="`+m.realm+`"`)
		return apperrors.NewUnauthorized("missing authorization header")
	}
	return m.authenticate(c)
}

// Optional attaches a principal when credentials are supplied and lets
// anonymous requests through. Bad credentials are still rejected.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		return c.Next()
	}
	return m.authenticate(c)
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) error {
	username, password, ok := parseBasicAuth(c.Get(fiber.HeaderAuthorization))
	if !ok {
		c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="`+m.realm+`"`)
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	user, err := m.authenticator.VerifyLogin(c.UserContext(), username, password)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnauthorized) {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="`+m.realm+`"`)
		}
		return err
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

func parseBasicAuth(header string) (username, password string, ok bool) {
	scheme, encoded, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", "", false
	}
	username, password, found = strings.Cut(string(raw), ":")
	if !found || username == "" {
		return "", "", false
	}
	return username, password, true
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
