package controllers

import (
	"coursemarket/backend/config"
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	Users     *services.UserService
	Courses   *services.CourseService
	Dashboard *services.DashboardService
	Cfg       *config.Config
	Log       *logrus.Logger
}

func NewUserController(svc *services.Services, cfg *config.Config, log *logrus.Logger) *UserController {
	return &UserController{
		Users:     svc.Users,
		Courses:   svc.Courses,
		Dashboard: svc.Dashboard,
		Cfg:       cfg,
		Log:       log,
	}
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Tags users
// @Accept json
// @Produce json
// @Param input body services.ProfilePatch true "Profile fields"
// @Success 200 {object} models.User
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/me [patch]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	var patch services.ProfilePatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, uc.Log, err)
	}

	user, err := uc.Users.UpdateProfile(c.UserContext(), middleware.CurrentUser(c), patch)
	if err != nil {
		return handleError(c, uc.Log, err)
	}
	return utils.OK(c, user)
}

func (uc *UserController) ChangePassword(c *fiber.Ctx) error {
	var input services.PasswordChange
	if err := parseBody(c, &input); err != nil {
		return handleError(c, uc.Log, err)
	}

	if err := uc.Users.ChangePassword(c.UserContext(), middleware.CurrentUser(c), input); err != nil {
		return handleError(c, uc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "password changed"})
}

func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, uc.Log, err)
	}

	profile, err := uc.Users.Profile(c.UserContext(), id)
	if err != nil {
		return handleError(c, uc.Log, err)
	}
	return utils.OK(c, profile)
}

func (uc *UserController) Instructors(c *fiber.Ctx) error {
	p := utils.GetPagination(c, uc.Cfg)
	profiles, total, err := uc.Users.Instructors(c.UserContext(), c.Query("search"), p.Window())
	if err != nil {
		return handleError(c, uc.Log, err)
	}
	return utils.Paginate(c, profiles, total, p)
}

// InstructorCourses lists the published courses of one instructor.
func (uc *UserController) InstructorCourses(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, uc.Log, err)
	}

	p := utils.GetPagination(c, uc.Cfg)
	courses, total, err := uc.Courses.ByInstructor(c.UserContext(), id, p.Window())
	if err != nil {
		return handleError(c, uc.Log, err)
	}
	return utils.Paginate(c, courses, total, p)
}

func (uc *UserController) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := uc.Dashboard.For(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return handleError(c, uc.Log, err)
	}
	return utils.OK(c, dashboard)
}
