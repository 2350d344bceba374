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

type CoursesController struct {
	Courses *services.CourseService
	Cfg     *config.Config
	Log     *logrus.Logger
}

func NewCoursesController(courses *services.CourseService, cfg *config.Config, log *logrus.Logger) *CoursesController {
	return &CoursesController{Courses: courses, Cfg: cfg, Log: log}
}

type courseQuery struct {
	Search     string   `query:"search" json:"search"`
	CategoryID uint     `query:"category_id" json:"category_id"`
	Level      string   `query:"level" json:"level" validate:"omitempty,oneof=beginner intermediate advanced all_levels"`
	IsFree     *bool    `query:"is_free" json:"is_free"`
	MinPrice   *float64 `query:"min_price" json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice   *float64 `query:"max_price" json:"max_price" validate:"omitempty,gte=0"`
	SortBy     string   `query:"sort_by" json:"sort_by" validate:"omitempty,oneof=newest popular rating price_low price_high"`
	Status     string   `query:"status" json:"status" validate:"omitempty,oneof=draft published archived"`
}

func (q courseQuery) filter(p utils.Pagination) repository.CourseFilter {
	return repository.CourseFilter{
		Status:     models.CourseStatus(q.Status),
		CategoryID: q.CategoryID,
		Level:      models.CourseLevel(q.Level),
		Search:     q.Search,
		IsFree:     q.IsFree,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		SortBy:     q.SortBy,
		Page:       p.Window(),
	}
}

// Catalog godoc
// @Summary Public course catalog
// @Description Lists published courses with filters and sorting
// @Tags courses
// @Produce json
// @Param search query string false "Search in title and description"
// @Param category_id query int false "Category"
// @Param level query string false "Level"
// @Param is_free query bool false "Only free or only paid courses"
// @Param sort_by query string false "newest|popular|rating|price_low|price_high"
// @Success 200 {object} utils.PaginatedResponse
// @Router /courses [get]
func (cc *CoursesController) Catalog(c *fiber.Ctx) error {
	var q courseQuery
	if err := parseQuery(c, &q); err != nil {
		return handleError(c, cc.Log, err)
	}

	p := utils.GetPagination(c, cc.Cfg)
	courses, total, err := cc.Courses.Catalog(c.UserContext(), q.filter(p))
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.Paginate(c, courses, total, p)
}

// CreateCourse godoc
// @Summary Create a course
// @Description Creates a draft course owned by the caller
// @Tags courses
// @Accept json
// @Produce json
// @Param input body services.CourseInput true "Course data"
// @Success 201 {object} models.Course
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input services.CourseInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, cc.Log, err)
	}

	course, err := cc.Courses.Create(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.Created(c, course)
}

func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}

	course, err := cc.Courses.Get(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, course)
}

func (cc *CoursesController) GetCourseBySlug(c *fiber.Ctx) error {
	course, err := cc.Courses.GetBySlug(c.UserContext(), middleware.CurrentUser(c), c.Params("slug"))
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, course)
}

// MyCourses lists the caller's own courses in any status.
func (cc *CoursesController) MyCourses(c *fiber.Ctx) error {
	p := utils.GetPagination(c, cc.Cfg)
	courses, total, err := cc.Courses.ListMine(c.UserContext(), middleware.CurrentUser(c), p.Window())
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.Paginate(c, courses, total, p)
}

func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	var patch services.CoursePatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, cc.Log, err)
	}

	course, err := cc.Courses.Update(c.UserContext(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, course)
}

func (cc *CoursesController) PublishCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}

	course, err := cc.Courses.Publish(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, course)
}

func (cc *CoursesController) ArchiveCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}

	course, err := cc.Courses.Archive(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, course)
}

func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}

	if err := cc.Courses.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.NoContent(c)
}
