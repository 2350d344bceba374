package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type LessonController struct {
	Lessons  *services.LessonService
	Progress *services.ProgressService
	Log      *logrus.Logger
}

func NewLessonController(svc *services.Services, log *logrus.Logger) *LessonController {
	return &LessonController{Lessons: svc.Lessons, Progress: svc.Progress, Log: log}
}

// AddLesson godoc
// @Summary Add a lesson to a course
// @Description Appends the lesson, or inserts it at the given order and shifts later lessons
// @Tags lessons
// @Accept json
// @Produce json
// @Param input body services.LessonInput true "Lesson data"
// @Success 201 {object} models.Lesson
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons [post]
func (lc *LessonController) AddLesson(c *fiber.Ctx) error {
	var input services.LessonInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, lc.Log, err)
	}

	lesson, err := lc.Lessons.Create(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.Created(c, lesson)
}

type bulkLessonsRequest struct {
	CourseID uint                   `json:"course_id" validate:"required"`
	Lessons  []services.LessonInput `json:"lessons" validate:"required,min=1"`
}

func (lc *LessonController) BulkAddLessons(c *fiber.Ctx) error {
	var input bulkLessonsRequest
	if err := parseBody(c, &input); err != nil {
		return handleError(c, lc.Log, err)
	}
	for i := range input.Lessons {
		input.Lessons[i].CourseID = input.CourseID
		if fields := utils.ValidateStruct(input.Lessons[i]); fields != nil {
			return handleError(c, lc.Log, &validationError{fields: fields})
		}
	}

	lessons, err := lc.Lessons.BulkCreate(c.UserContext(), middleware.CurrentUser(c), input.CourseID, input.Lessons)
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.Created(c, lessons)
}

func (lc *LessonController) GetLesson(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, lc.Log, err)
	}

	lesson, err := lc.Lessons.Get(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.OK(c, lesson)
}

func (lc *LessonController) CourseLessons(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, lc.Log, err)
	}

	lessons, err := lc.Lessons.ListByCourse(c.UserContext(), middleware.CurrentUser(c), courseID)
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.OK(c, lessons)
}

func (lc *LessonController) PreviewLessons(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, lc.Log, err)
	}

	lessons, err := lc.Lessons.Previews(c.UserContext(), courseID)
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.OK(c, lessons)
}

func (lc *LessonController) LessonsWithProgress(c *fiber.Ctx) error {
	courseID, err := paramID(c, "course_id")
	if err != nil {
		return handleError(c, lc.Log, err)
	}

	lessons, err := lc.Progress.CourseProgress(c.UserContext(), middleware.CurrentUser(c), courseID)
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.OK(c, lessons)
}

func (lc *LessonController) UpdateLesson(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	var patch services.LessonPatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, lc.Log, err)
	}

	lesson, err := lc.Lessons.Update(c.UserContext(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.OK(c, lesson)
}

func (lc *LessonController) DeleteLesson(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, lc.Log, err)
	}

	if err := lc.Lessons.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.NoContent(c)
}

type reorderRequest struct {
	NewOrder int `json:"new_order"`
}

func (lc *LessonController) ReorderLesson(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	var input reorderRequest
	if err := parseBody(c, &input); err != nil {
		return handleError(c, lc.Log, err)
	}

	lessons, err := lc.Lessons.Reorder(c.UserContext(), middleware.CurrentUser(c), id, input.NewOrder)
	if err != nil {
		return handleError(c, lc.Log, err)
	}
	return utils.OK(c, lessons)
}
