package controllers

import (
	"coursemarket/backend/config"
	"coursemarket/backend/middleware"
	"coursemarket/backend/repository"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ReviewController struct {
	Reviews *services.ReviewService
	Cfg     *config.Config
	Log     *logrus.Logger
}

func NewReviewController(reviews *services.ReviewService, cfg *config.Config, log *logrus.Logger) *ReviewController {
	return &ReviewController{Reviews: reviews, Cfg: cfg, Log: log}
}

type reviewQuery struct {
	Rating int    `query:"rating" json:"rating" validate:"omitempty,min=1,max=5"`
	SortBy string `query:"sort_by" json:"sort_by" validate:"omitempty,oneof=recent rating_high rating_low"`
}

// CreateReview godoc
// @Summary Review a course
// @Description One review per enrolled student; updates the course rating
// @Tags reviews
// @Accept json
// @Produce json
// @Param input body services.ReviewInput true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /reviews [post]
func (rc *ReviewController) CreateReview(c *fiber.Ctx) error {
	var input services.ReviewInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, rc.Log, err)
	}

	review, err := rc.Reviews.Create(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	return utils.Created(c, review)
}

func (rc *ReviewController) CourseReviews(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	var q reviewQuery
	if err := parseQuery(c, &q); err != nil {
		return handleError(c, rc.Log, err)
	}

	p := utils.GetPagination(c, rc.Cfg)
	reviews, total, err := rc.Reviews.ListByCourse(c.UserContext(), courseID, repository.ReviewFilter{
		Rating: q.Rating,
		SortBy: q.SortBy,
		Page:   p.Window(),
	})
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	return utils.Paginate(c, reviews, total, p)
}

func (rc *ReviewController) CourseStats(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, rc.Log, err)
	}

	stats, err := rc.Reviews.Stats(c.UserContext(), courseID)
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	return utils.OK(c, stats)
}

func (rc *ReviewController) MyCourseReview(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, rc.Log, err)
	}

	review, err := rc.Reviews.Mine(c.UserContext(), middleware.CurrentUser(c), courseID)
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	return utils.OK(c, review)
}

func (rc *ReviewController) MyReviews(c *fiber.Ctx) error {
	reviews, err := rc.Reviews.ListMine(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	return utils.OK(c, reviews)
}

func (rc *ReviewController) GetReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, rc.Log, err)
	}

	review, err := rc.Reviews.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	return utils.OK(c, review)
}

func (rc *ReviewController) UpdateReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	var patch services.ReviewPatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, rc.Log, err)
	}

	review, err := rc.Reviews.Update(c.UserContext(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, rc.Log, err)
	}
	return utils.OK(c, review)
}

func (rc *ReviewController) DeleteReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, rc.Log, err)
	}

	if err := rc.Reviews.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, rc.Log, err)
	}
	return utils.NoContent(c)
}
