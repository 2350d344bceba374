package controllers

import (
	"coursemarket/backend/config"
	"coursemarket/backend/middleware"
	"coursemarket/backend/models"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type EnrollmentController struct {
	Enrollments *services.EnrollmentService
	Cfg         *config.Config
	Log         *logrus.Logger
}

func NewEnrollmentController(enrollments *services.EnrollmentService, cfg *config.Config, log *logrus.Logger) *EnrollmentController {
	return &EnrollmentController{Enrollments: enrollments, Cfg: cfg, Log: log}
}

type enrollRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Enrolls the caller in a published course at its effective price
// @Tags enrollments
// @Accept json
// @Produce json
// @Param input body enrollRequest true "Course to enroll in"
// @Success 201 {object} models.Enrollment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments [post]
func (ec *EnrollmentController) Enroll(c *fiber.Ctx) error {
	var input enrollRequest
	if err := parseBody(c, &input); err != nil {
		return handleError(c, ec.Log, err)
	}

	enrollment, err := ec.Enrollments.Enroll(c.UserContext(), middleware.CurrentUser(c), input.CourseID)
	if err != nil {
		return handleError(c, ec.Log, err)
	}
	return utils.Created(c, enrollment)
}

func (ec *EnrollmentController) MyEnrollments(c *fiber.Ctx) error {
	status := models.EnrollmentStatus(c.Query("status"))
	enrollments, err := ec.Enrollments.ListMine(c.UserContext(), middleware.CurrentUser(c), status)
	if err != nil {
		return handleError(c, ec.Log, err)
	}
	return utils.OK(c, enrollments)
}

func (ec *EnrollmentController) GetEnrollment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ec.Log, err)
	}

	enrollment, err := ec.Enrollments.Get(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, ec.Log, err)
	}
	return utils.OK(c, enrollment)
}

func (ec *EnrollmentController) CheckEnrollment(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, ec.Log, err)
	}

	check, err := ec.Enrollments.Check(c.UserContext(), middleware.CurrentUser(c), courseID)
	if err != nil {
		return handleError(c, ec.Log, err)
	}
	return utils.OK(c, check)
}

func (ec *EnrollmentController) CancelEnrollment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ec.Log, err)
	}

	if err := ec.Enrollments.Cancel(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, ec.Log, err)
	}
	return utils.NoContent(c)
}

func (ec *EnrollmentController) CompleteEnrollment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, ec.Log, err)
	}

	enrollment, err := ec.Enrollments.Complete(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, ec.Log, err)
	}
	return utils.OK(c, enrollment)
}

func (ec *EnrollmentController) CourseStudents(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, ec.Log, err)
	}

	p := utils.GetPagination(c, ec.Cfg)
	enrollments, total, err := ec.Enrollments.CourseStudents(c.UserContext(), middleware.CurrentUser(c), courseID, p.Window())
	if err != nil {
		return handleError(c, ec.Log, err)
	}
	return utils.Paginate(c, enrollments, total, p)
}

func (ec *EnrollmentController) CourseStatistics(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, ec.Log, err)
	}

	stats, err := ec.Enrollments.CourseStatistics(c.UserContext(), middleware.CurrentUser(c), courseID)
	if err != nil {
		return handleError(c, ec.Log, err)
	}
	return utils.OK(c, stats)
}
