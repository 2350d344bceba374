package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/backend/models"
)

func TestRequireRoles(t *testing.T) {
	app := fiber.New()
	withUser := func(role models.Role) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if role != "" {
				c.Locals(userKey, &models.User{ID: 1, Role: role})
			}
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	gate := RequireRoles(models.RoleInstructor, models.RoleAdmin)

	app.Get("/anon", withUser(""), gate, ok)
	app.Get("/student", withUser(models.RoleStudent), gate, ok)
	app.Get("/instructor", withUser(models.RoleInstructor), gate, ok)
	app.Get("/admin", withUser(models.RoleAdmin), AdminMiddleware(), ok)

	for path, want := range map[string]int{
		"/anon":       http.StatusUnauthorized,
		"/student":    http.StatusForbidden,
		"/instructor": http.StatusOK,
		"/admin":      http.StatusOK,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestRequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	app := fiber.New()
	app.Use(RequestIDMiddleware(time.Second))
	app.Use(LoggingMiddleware(log))
	app.Get("/deadline", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		if !ok {
			return c.SendStatus(http.StatusInternalServerError)
		}
		return c.SendString(RequestID(c))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/deadline", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", string(body))
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))
	assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
	assert.Contains(t, buf.String(), `"level":"info"`)

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
	assert.Contains(t, buf.String(), `"level":"warning"`)
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Get("/", RateLimit("test", 2, time.Minute, nil), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
