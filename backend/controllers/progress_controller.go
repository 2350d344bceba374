package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ProgressController struct {
	Progress *services.ProgressService
	Log      *logrus.Logger
}

func NewProgressController(progress *services.ProgressService, log *logrus.Logger) *ProgressController {
	return &ProgressController{Progress: progress, Log: log}
}

// StartLesson godoc
// @Summary Start a lesson
// @Description Creates the progress record on first visit, refreshes access time afterwards
// @Tags progress
// @Produce json
// @Param lesson_id path int true "Lesson ID"
// @Success 201 {object} models.Progress
// @Success 200 {object} models.Progress
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/lessons/{lesson_id}/start [post]
func (pc *ProgressController) StartLesson(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "lesson_id")
	if err != nil {
		return handleError(c, pc.Log, err)
	}

	progress, created, err := pc.Progress.StartLesson(c.UserContext(), middleware.CurrentUser(c), lessonID)
	if err != nil {
		return handleError(c, pc.Log, err)
	}
	if created {
		return utils.Created(c, progress)
	}
	return utils.OK(c, progress)
}

func (pc *ProgressController) UpdateLesson(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "lesson_id")
	if err != nil {
		return handleError(c, pc.Log, err)
	}
	var update services.ProgressUpdate
	if err := parseBody(c, &update); err != nil {
		return handleError(c, pc.Log, err)
	}

	progress, err := pc.Progress.UpdateLesson(c.UserContext(), middleware.CurrentUser(c), lessonID, update)
	if err != nil {
		return handleError(c, pc.Log, err)
	}
	return utils.OK(c, progress)
}

// CompleteLesson marks the lesson done and returns the refreshed enrollment.
func (pc *ProgressController) CompleteLesson(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "lesson_id")
	if err != nil {
		return handleError(c, pc.Log, err)
	}

	progress, enrollment, err := pc.Progress.CompleteLesson(c.UserContext(), middleware.CurrentUser(c), lessonID)
	if err != nil {
		return handleError(c, pc.Log, err)
	}
	return utils.OK(c, fiber.Map{
		"progress":   progress,
		"enrollment": enrollment,
	})
}

func (pc *ProgressController) CourseProgress(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, pc.Log, err)
	}

	lessons, err := pc.Progress.CourseProgress(c.UserContext(), middleware.CurrentUser(c), courseID)
	if err != nil {
		return handleError(c, pc.Log, err)
	}
	return utils.OK(c, lessons)
}

func (pc *ProgressController) MyCourses(c *fiber.Ctx) error {
	summaries, err := pc.Progress.MyCourses(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return handleError(c, pc.Log, err)
	}
	return utils.OK(c, summaries)
}

func (pc *ProgressController) Statistics(c *fiber.Ctx) error {
	stats, err := pc.Progress.Statistics(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return handleError(c, pc.Log, err)
	}
	return utils.OK(c, stats)
}
