package controllers

import (
	"context"
	"errors"
	"strconv"

	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var errBadBody = errors.New("cannot parse request body")

type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	return "request validation failed"
}

// handleError writes the response for an error returned by a service.
// Unknown errors are logged and reported as 500 without details.
func handleError(c *fiber.Ctx, log *logrus.Logger, err error) error {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		return utils.ValidationError(c, verr.fields)
	case errors.Is(err, errBadBody):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrValidation):
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	case errors.Is(err, services.ErrUnauthenticated):
		return utils.Unauthorized(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return utils.Error(c, fiber.StatusServiceUnavailable, errors.New("request timed out"))
	}

	entry := log.WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.RequestID(c),
		"method":     c.Method(),
		"path":       c.Path(),
	})
	if user := middleware.CurrentUser(c); user != nil {
		entry = entry.WithField("user_id", user.ID)
	}
	entry.Error("Unhandled error")
	return utils.InternalServerError(c, "internal server error")
}

// parseBody decodes the JSON body into out and validates it.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errBadBody
	}
	if fields := utils.ValidateStruct(out); fields != nil {
		return &validationError{fields: fields}
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &validationError{fields: map[string]string{name: "must be a positive integer"}}
	}
	return uint(id), nil
}

// parseQuery decodes query parameters into out and validates them.
func parseQuery(c *fiber.Ctx, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		return &validationError{fields: map[string]string{"query": err.Error()}}
	}
	if fields := utils.ValidateStruct(out); fields != nil {
		return &validationError{fields: fields}
	}
	return nil
}
