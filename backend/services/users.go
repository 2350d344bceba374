package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type UserService struct {
	store  repository.Store
	tokens RefreshTokenStore
	log    *logrus.Logger
}

func NewUserService(store repository.Store, tokens RefreshTokenStore, log *logrus.Logger) *UserService {
	return &UserService{store: store, tokens: tokens, log: log}
}

type ProfilePatch struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
	Bio       *string `json:"bio" validate:"omitempty,max=2000"`
}

type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, patch ProfilePatch) (*models.User, error) {
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		user.Phone = *patch.Phone
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password and revokes the refresh token so other
// sessions have to sign in again.
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, in PasswordChange) error {
	if !checkPassword(user.PasswordHash, in.CurrentPassword) {
		return invalidState("current password is incorrect")
	}
	if in.CurrentPassword == in.NewPassword {
		return invalidInput("new password must differ from the current one")
	}
	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}
	if err := s.tokens.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.log.WithField("user_id", user.ID).Info("Password changed")
	return nil
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.PublicProfile, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "user")
	}
	if !user.IsActive {
		return nil, notFound("user not found")
	}
	profile := user.Public()
	return &profile, nil
}

// Instructors lists active instructors as public profiles.
func (s *UserService) Instructors(ctx context.Context, search string, page repository.Page) ([]models.PublicProfile, int64, error) {
	active := true
	users, total, err := s.store.Users().List(ctx, repository.UserFilter{
		Role:     models.RoleInstructor,
		IsActive: &active,
		Search:   search,
		Page:     page,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.PublicProfile, len(users))
	for i := range users {
		out[i] = users[i].Public()
	}
	return out, total, nil
}
