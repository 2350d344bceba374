package services

import (
	"context"
	"time"

	"coursemarket/backend/repository"
)

// RefreshTokenStore keeps the single live refresh token of each user.
// Get returns "" when the user has none.
type RefreshTokenStore interface {
	Save(ctx context.Context, userID uint, token string, ttl time.Duration) error
	Get(ctx context.Context, userID uint) (string, error)
	Delete(ctx context.Context, userID uint) error
}

// userTokenStore keeps the token on the users row. Expiry is enforced by the
// token's own exp claim.
type userTokenStore struct {
	store repository.Store
}

func NewUserTokenStore(store repository.Store) RefreshTokenStore {
	return &userTokenStore{store: store}
}

func (s *userTokenStore) Save(ctx context.Context, userID uint, token string, _ time.Duration) error {
	return s.set(ctx, userID, token)
}

func (s *userTokenStore) Get(ctx context.Context, userID uint) (string, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if isMissing(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.RefreshToken, nil
}

func (s *userTokenStore) Delete(ctx context.Context, userID uint) error {
	return s.set(ctx, userID, "")
}

func (s *userTokenStore) set(ctx context.Context, userID uint, token string) error {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.RefreshToken = token
	return s.store.Users().Update(ctx, user)
}
