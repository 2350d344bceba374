package middleware

import (
	"errors"
	"fmt"

	"coursemarket/backend/models"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

var errMissingToken = fmt.Errorf("%w: missing bearer token", services.ErrUnauthenticated)

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

func authenticate(c *fiber.Ctx, auth *services.AuthService) (*models.User, error) {
	token := utils.ExtractBearerToken(c)
	if token == "" {
		return nil, errMissingToken
	}
	return auth.Authenticate(c.UserContext(), token)
}

func reject(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrForbidden) {
		return utils.Forbidden(c, err.Error())
	}
	if errors.Is(err, services.ErrUnauthenticated) {
		return utils.Unauthorized(c, err.Error())
	}
	return utils.InternalServerError(c, "could not authenticate request")
}

// AuthMiddleware requires a valid access token of an active user.
func AuthMiddleware(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := authenticate(c, auth)
		if err != nil {
			return reject(c, err)
		}
		c.Locals(userKey, user)
		return c.Next()
	}
}

// OptionalAuth attaches the user when a token is present. A bad token is
// still rejected so that clients notice an expired session.
func OptionalAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if utils.ExtractBearerToken(c) == "" {
			return c.Next()
		}
		user, err := authenticate(c, auth)
		if err != nil {
			return reject(c, err)
		}
		c.Locals(userKey, user)
		return c.Next()
	}
}

// RequireRoles must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return utils.Unauthorized(c, "authentication required")
		}
		for _, role := range roles {
			if user.Role == role {
				return c.Next()
			}
		}
		return utils.Forbidden(c, "insufficient role")
	}
}

func AdminMiddleware() fiber.Handler {
	return RequireRoles(models.RoleAdmin)
}
