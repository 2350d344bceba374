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

type QuizController struct {
	Quizzes *services.QuizService
	Cfg     *config.Config
	Log     *logrus.Logger
}

func NewQuizController(quizzes *services.QuizService, cfg *config.Config, log *logrus.Logger) *QuizController {
	return &QuizController{Quizzes: quizzes, Cfg: cfg, Log: log}
}

// CreateQuiz godoc
// @Summary Create a quiz
// @Description Creates a quiz for a lesson, optionally with its questions
// @Tags quizzes
// @Accept json
// @Produce json
// @Param input body services.QuizInput true "Quiz data"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes [post]
func (qc *QuizController) CreateQuiz(c *fiber.Ctx) error {
	var input services.QuizInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, qc.Log, err)
	}

	quiz, err := qc.Quizzes.Create(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.Created(c, quiz)
}

func (qc *QuizController) GetQuiz(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}

	quiz, err := qc.Quizzes.Get(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, quiz)
}

func (qc *QuizController) UpdateQuiz(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	var patch services.QuizPatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, qc.Log, err)
	}

	quiz, err := qc.Quizzes.Update(c.UserContext(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, quiz)
}

func (qc *QuizController) DeleteQuiz(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}

	if err := qc.Quizzes.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.NoContent(c)
}

func (qc *QuizController) LessonQuizzes(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "lesson_id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}

	quizzes, err := qc.Quizzes.ListByLesson(c.UserContext(), middleware.CurrentUser(c), lessonID)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, quizzes)
}

func (qc *QuizController) AddQuestion(c *fiber.Ctx) error {
	quizID, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	var input services.QuestionInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, qc.Log, err)
	}

	question, err := qc.Quizzes.AddQuestion(c.UserContext(), middleware.CurrentUser(c), quizID, input)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.Created(c, question)
}

func (qc *QuizController) UpdateQuestion(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	var patch services.QuestionPatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, qc.Log, err)
	}

	question, err := qc.Quizzes.UpdateQuestion(c.UserContext(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, question)
}

func (qc *QuizController) DeleteQuestion(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}

	if err := qc.Quizzes.DeleteQuestion(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.NoContent(c)
}

func (qc *QuizController) UpdateAnswer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	var patch services.AnswerPatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, qc.Log, err)
	}

	answer, err := qc.Quizzes.UpdateAnswer(c.UserContext(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, answer)
}

// StartQuiz godoc
// @Summary Start a quiz attempt
// @Description Returns the questions without correctness flags
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} models.QuizView
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{id}/start [get]
func (qc *QuizController) StartQuiz(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}

	view, err := qc.Quizzes.Start(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, view)
}

// SubmitQuiz godoc
// @Summary Submit a quiz attempt
// @Description Grades the answers and records the attempt
// @Tags quizzes
// @Accept json
// @Produce json
// @Param input body services.Submission true "Selected answers per question"
// @Success 201 {object} models.AttemptResult
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/submit [post]
func (qc *QuizController) SubmitQuiz(c *fiber.Ctx) error {
	var input services.Submission
	if err := parseBody(c, &input); err != nil {
		return handleError(c, qc.Log, err)
	}

	result, err := qc.Quizzes.Submit(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.Created(c, result)
}

func (qc *QuizController) MyAttempts(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}

	attempts, err := qc.Quizzes.MyAttempts(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, attempts)
}

func (qc *QuizController) GetAttempt(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}

	result, err := qc.Quizzes.GetAttempt(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, result)
}

func (qc *QuizController) Statistics(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}

	stats, err := qc.Quizzes.Statistics(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.OK(c, stats)
}

type windowQuery struct {
	Limit  int `query:"limit" json:"limit" validate:"gte=0"`
	Offset int `query:"offset" json:"offset" validate:"gte=0"`
}

// AllAttempts pages through every attempt with limit/offset.
func (qc *QuizController) AllAttempts(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	var q windowQuery
	if err := parseQuery(c, &q); err != nil {
		return handleError(c, qc.Log, err)
	}
	if q.Limit == 0 {
		q.Limit = qc.Cfg.DefaultPageSize
	}
	if q.Limit > qc.Cfg.MaxPageSize {
		q.Limit = qc.Cfg.MaxPageSize
	}

	page := repository.Page{Limit: q.Limit, Offset: q.Offset}
	attempts, total, err := qc.Quizzes.AllAttempts(c.UserContext(), middleware.CurrentUser(c), id, page)
	if err != nil {
		return handleError(c, qc.Log, err)
	}
	return utils.Window(c, attempts, total, page)
}
