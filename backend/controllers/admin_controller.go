package controllers

import (
	"coursemarket/backend/config"
	"coursemarket/backend/middleware"
	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AdminController struct {
	Admin   *services.AdminService
	Courses *services.CourseService
	Cfg     *config.Config
	Log     *logrus.Logger
}

func NewAdminController(svc *services.Services, cfg *config.Config, log *logrus.Logger) *AdminController {
	return &AdminController{Admin: svc.Admin, Courses: svc.Courses, Cfg: cfg, Log: log}
}

type userQuery struct {
	Role     string `query:"role" json:"role" validate:"omitempty,oneof=student instructor admin"`
	IsActive *bool  `query:"is_active" json:"is_active"`
	Search   string `query:"search" json:"search"`
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Param role query string false "student|instructor|admin"
// @Param is_active query bool false "Filter by status"
// @Param search query string false "Email, username or name"
// @Success 200 {object} utils.PaginatedResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (ac *AdminController) ListUsers(c *fiber.Ctx) error {
	var q userQuery
	if err := parseQuery(c, &q); err != nil {
		return handleError(c, ac.Log, err)
	}

	p := utils.GetPagination(c, ac.Cfg)
	users, total, err := ac.Admin.ListUsers(c.UserContext(), middleware.CurrentUser(c), repository.UserFilter{
		Role:     models.Role(q.Role),
		IsActive: q.IsActive,
		Search:   q.Search,
		Page:     p.Window(),
	})
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.Paginate(c, users, total, p)
}

func (ac *AdminController) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ac.Log, err)
	}

	user, err := ac.Admin.GetUser(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.OK(c, user)
}

type roleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=student instructor admin"`
}

func (ac *AdminController) ChangeRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	var input roleRequest
	if err := parseBody(c, &input); err != nil {
		return handleError(c, ac.Log, err)
	}

	user, err := ac.Admin.ChangeRole(c.UserContext(), middleware.CurrentUser(c), id, input.Role)
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.OK(c, user)
}

type statusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (ac *AdminController) SetStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	var input statusRequest
	if err := parseBody(c, &input); err != nil {
		return handleError(c, ac.Log, err)
	}

	user, err := ac.Admin.SetActive(c.UserContext(), middleware.CurrentUser(c), id, *input.IsActive)
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.OK(c, user)
}

type verifyRequest struct {
	IsVerified *bool `json:"is_verified" validate:"required"`
}

func (ac *AdminController) SetVerified(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	var input verifyRequest
	if err := parseBody(c, &input); err != nil {
		return handleError(c, ac.Log, err)
	}

	user, err := ac.Admin.SetVerified(c.UserContext(), middleware.CurrentUser(c), id, *input.IsVerified)
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.OK(c, user)
}

func (ac *AdminController) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ac.Log, err)
	}

	if err := ac.Admin.DeleteUser(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.NoContent(c)
}

// ListCourses shows courses in any status.
func (ac *AdminController) ListCourses(c *fiber.Ctx) error {
	var q courseQuery
	if err := parseQuery(c, &q); err != nil {
		return handleError(c, ac.Log, err)
	}

	p := utils.GetPagination(c, ac.Cfg)
	courses, total, err := ac.Courses.AdminList(c.UserContext(), middleware.CurrentUser(c), q.filter(p))
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.Paginate(c, courses, total, p)
}

type moderateRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject archive"`
}

func (ac *AdminController) ModerateCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	var input moderateRequest
	if err := parseBody(c, &input); err != nil {
		return handleError(c, ac.Log, err)
	}

	course, err := ac.Courses.Moderate(c.UserContext(), middleware.CurrentUser(c), id, input.Action)
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.OK(c, course)
}

func (ac *AdminController) Statistics(c *fiber.Ctx) error {
	stats, err := ac.Admin.Statistics(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.OK(c, stats)
}
