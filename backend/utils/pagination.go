package utils

import (
	"coursemarket/backend/config"
	"coursemarket/backend/repository"

	"github.com/gofiber/fiber/v2"
)

type Pagination struct {
	Page     int
	PageSize int
}

// GetPagination читает page и page_size из query с ограничениями из конфига
func GetPagination(c *fiber.Ctx, cfg *config.Config) Pagination {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size := c.QueryInt("page_size", cfg.DefaultPageSize)
	if size < 1 {
		size = cfg.DefaultPageSize
	}
	if size > cfg.MaxPageSize {
		size = cfg.MaxPageSize
	}
	return Pagination{Page: page, PageSize: size}
}

func (p Pagination) Window() repository.Page {
	return repository.Page{Limit: p.PageSize, Offset: (p.Page - 1) * p.PageSize}
}
