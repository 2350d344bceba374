package middleware

import (
	"errors"
	"strconv"
	"time"

	"coursemarket/backend/metrics"

	"github.com/gofiber/fiber/v2"
)

func asFiberError(err error, target **fiber.Error) bool {
	return errors.As(err, target)
}

// MetricsMiddleware observes request latency labelled by the matched route
// pattern, so path parameters do not explode the label set.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if err != nil && asFiberError(err, &fe) {
			status = fe.Code
		}
		route := c.Route().Path
		if route == "" || route == "/" && c.Path() != "/" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
