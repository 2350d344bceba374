package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"
)

type AuthService struct {
	store  repository.Store
	tokens RefreshTokenStore
	jwt    *utils.JWTManager
	log    *logrus.Logger
}

func NewAuthService(store repository.Store, tokens RefreshTokenStore, jwt *utils.JWTManager, log *logrus.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, jwt: jwt, log: log}
}

type RegisterInput struct {
	Email     string      `json:"email" validate:"required,email"`
	Username  string      `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password  string      `json:"password" validate:"required,min=8,max=72"`
	FirstName string      `json:"first_name" validate:"max=100"`
	LastName  string      `json:"last_name" validate:"max=100"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=student instructor admin"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates a student or instructor account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenPair, error) {
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role == models.RoleAdmin {
		return nil, forbidden("administrator accounts cannot be self-registered")
	}
	if !role.Valid() {
		return nil, invalidInput("unknown role %q", role)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalidState("email or username is already registered")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return s.issue(ctx, user)
}

// Login checks credentials and issues a fresh token pair, replacing any
// previously issued refresh token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if isMissing(err) {
		return nil, unauthenticated("incorrect email or password")
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.PasswordHash, in.Password) {
		s.log.WithField("user_id", user.ID).Warn("Failed login attempt")
		return nil, unauthenticated("incorrect email or password")
	}
	if !user.IsActive {
		return nil, forbidden("user account is disabled")
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Refresh exchanges the current refresh token for a new pair. Only the most
// recently issued refresh token of a user is accepted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.Parse(refreshToken, utils.RefreshToken)
	if err != nil {
		return nil, unauthenticated("invalid refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, unauthenticated("invalid refresh token")
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if isMissing(err) {
		return nil, unauthenticated("invalid refresh token")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, unauthenticated("user account is disabled")
	}

	stored, err := s.tokens.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if stored == "" || stored != refreshToken {
		return nil, unauthenticated("refresh token has been revoked")
	}
	return s.issue(ctx, user)
}

// Logout revokes the user's refresh token. Access tokens stay valid until
// they expire.
func (s *AuthService) Logout(ctx context.Context, user *models.User) error {
	return s.tokens.Delete(ctx, user.ID)
}

// Authenticate resolves an access token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.jwt.Parse(accessToken, utils.AccessToken)
	if err != nil {
		return nil, unauthenticated("invalid or expired token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, unauthenticated("invalid or expired token")
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if isMissing(err) {
		return nil, unauthenticated("user not found")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, forbidden("user account is disabled")
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, user.ID, refresh, s.jwt.RefreshTTL()); err != nil {
		return nil, err
	}
	user.RefreshToken = refresh
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
		User:         user,
	}, nil
}
