package controllers

import (
	"coursemarket/backend/middleware"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	Auth *services.AuthService
	Log  *logrus.Logger
}

func NewAuthController(auth *services.AuthService, log *logrus.Logger) *AuthController {
	return &AuthController{Auth: auth, Log: log}
}

// Register godoc
// @Summary Register a new user
// @Description Creates a student or instructor account and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "User registration data"
// @Success 201 {object} services.TokenPair
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, ac.Log, err)
	}

	pair, err := ac.Auth.Register(c.UserContext(), input)
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.Created(c, pair)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body services.LoginInput true "Login credentials"
// @Success 200 {object} services.TokenPair
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input services.LoginInput
	if err := parseBody(c, &input); err != nil {
		return handleError(c, ac.Log, err)
	}

	pair, err := ac.Auth.Login(c.UserContext(), input)
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.OK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	var input refreshRequest
	if err := parseBody(c, &input); err != nil {
		return handleError(c, ac.Log, err)
	}

	pair, err := ac.Auth.Refresh(c.UserContext(), input.RefreshToken)
	if err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.OK(c, pair)
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := ac.Auth.Logout(c.UserContext(), middleware.CurrentUser(c)); err != nil {
		return handleError(c, ac.Log, err)
	}
	return utils.NoContent(c)
}

func (ac *AuthController) Me(c *fiber.Ctx) error {
	return utils.OK(c, middleware.CurrentUser(c))
}
