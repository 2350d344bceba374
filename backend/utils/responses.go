package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"coursemarket/backend/repository"
)

// HeaderRequestID carries the request id on both the request and the response.
const HeaderRequestID = "X-Request-ID"

// SuccessResponse структура для успешных ответов
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse структура для ошибок
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	Message   string      `json:"message,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// PaginatedResponse is a page of a numbered listing.
type PaginatedResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Pages    int         `json:"pages"`
}

// WindowResponse is a limit/offset slice of a listing.
type WindowResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

func Success(c *fiber.Ctx, status int, data interface{}, meta ...interface{}) error {
	response := SuccessResponse{Success: true, Data: data}
	if len(meta) > 0 {
		response.Meta = meta[0]
	}
	return c.Status(status).JSON(response)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return Success(c, fiber.StatusOK, data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return Success(c, fiber.StatusCreated, data)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func Paginate(c *fiber.Ctx, data interface{}, total int64, p Pagination) error {
	pages := 0
	if p.PageSize > 0 {
		pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return c.JSON(PaginatedResponse{
		Success:  true,
		Data:     data,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
		Pages:    pages,
	})
}

func Window(c *fiber.Ctx, data interface{}, total int64, page repository.Page) error {
	return c.JSON(WindowResponse{
		Success: true,
		Data:    data,
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
}

// Error создает JSON ответ с ошибкой и возвращает клиенту request id запроса.
func Error(c *fiber.Ctx, status int, err error, details ...interface{}) error {
	return fail(c, status, err.Error(), details...)
}

func fail(c *fiber.Ctx, status int, message string, details ...interface{}) error {
	response := ErrorResponse{
		Success:   false,
		Error:     http.StatusText(status),
		Message:   message,
		RequestID: c.GetRespHeader(HeaderRequestID),
	}
	if len(details) > 0 {
		response.Details = details[0]
	}
	return c.Status(status).JSON(response)
}

// ValidationError reports per-field failures with 422.
func ValidationError(c *fiber.Ctx, fields map[string]string) error {
	return fail(c, fiber.StatusUnprocessableEntity, "request validation failed", fields)
}

func NotFound(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusNotFound, message)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusBadRequest, message)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusUnauthorized, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusForbidden, message)
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusInternalServerError, message)
}

func TooManyRequests(c *fiber.Ctx, message string) error {
	return fail(c, fiber.StatusTooManyRequests, message)
}
