package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type CommentsController struct {
	Comments *services.CommentService
	Log      *logrus.Logger
}

func NewCommentsController(comments *services.CommentService, log *logrus.Logger) *CommentsController {
	return &CommentsController{Comments: comments, Log: log}
}

// AddComment godoc
// @Summary Comment on a lesson
// @Description Adds a comment or a reply; replies to replies attach to the thread root
// @Tags comments
// @Accept json
// @Produce json
// @Param input body services.CommentInput true "Comment data"
// @Success 201 {object} models.Comment
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /comments [post]
func (cc *CommentsController) AddComment(c *fiber.Ctx) error {
	var input services.CommentInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, cc.Log, err)
	}

	comment, err := cc.Comments.Create(c.UserContext(), middleware.CurrentUser(c), input)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.Created(c, comment)
}

func (cc *CommentsController) LessonComments(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "lesson_id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}

	thread, err := cc.Comments.Thread(c.UserContext(), lessonID)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, thread)
}

func (cc *CommentsController) UpdateComment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	var patch services.CommentPatch
	if err := parseBody(c, &patch); err != nil {
		return handleError(c, cc.Log, err)
	}

	comment, err := cc.Comments.Update(c.UserContext(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, comment)
}

func (cc *CommentsController) DeleteComment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return handleError(c, cc.Log, err)
	}

	if err := cc.Comments.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.NoContent(c)
}

func (cc *CommentsController) MyComments(c *fiber.Ctx) error {
	comments, err := cc.Comments.ListMine(c.UserContext(), middleware.CurrentUser(c))
	if err != nil {
		return handleError(c, cc.Log, err)
	}
	return utils.OK(c, comments)
}
