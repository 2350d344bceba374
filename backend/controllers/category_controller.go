package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CategoryController struct {
	Categories *services.CategoryService
	Log        *logrus.Logger
}

func NewCategoryController(categories *services.CategoryService, log *logrus.Logger) *CategoryController {
	return &CategoryController{Categories: categories, Log: log}
}

// ListCategories returns active categories; ?all=true includes inactive ones.
func (cc *CategoryController) ListCategories(c *fiber.Ctx) error {
	categories, err := cc.Categories.List(c.UserContext(), !c.QueryBool("all", false))
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, categories)
}

func (cc *CategoryController) GetCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}

	category, err := cc.Categories.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, category)
}

func (cc *CategoryController) GetCategoryBySlug(c *fiber.Ctx) error {
	category, err := cc.Categories.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, category)
}

func (cc *CategoryController) CreateCategory(c *fiber.Ctx) error {
	var input services.CategoryInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, cc.Log, err)
	}

	category, err := cc.Categories.Create(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.Created(c, category)
}

func (cc *CategoryController) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	var patch services.CategoryPatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, cc.Log, err)
	}

	category, err := cc.Categories.Update(c.UserContext(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, category)
}

func (cc *CategoryController) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}

	if err := cc.Categories.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.NoContent(c)
}
