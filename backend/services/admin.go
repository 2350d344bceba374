package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type AdminService struct {
	store repository.Store
	log   *logrus.Logger
}

func NewAdminService(store repository.Store, log *logrus.Logger) *AdminService {
	return &AdminService{store: store, log: log}
}

const topCoursesLimit = 5

func (s *AdminService) ListUsers(ctx context.Context, admin *models.User, filter repository.UserFilter) ([]models.User, int64, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, 0, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, invalidInput("unknown role %q", filter.Role)
	}
	return s.store.Users().List(ctx, filter)
}

func (s *AdminService) GetUser(ctx context.Context, admin *models.User, id uint) (*models.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, id)
	return user, lookup(err, "user")
}

// modify loads another user, applies fn and saves. Admins cannot modify
// their own account through the admin surface.
func (s *AdminService) modify(ctx context.Context, admin *models.User, id uint, action string, fn func(*models.User) error) (*models.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if admin.ID == id {
		return nil, invalidState("you cannot %s your own account", action)
	}
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "user")
	}
	if err := fn(user); err != nil {
		return nil, err
	}
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "action": action, "by_admin": admin.ID}).Info("User modified")
	return user, nil
}

func (s *AdminService) ChangeRole(ctx context.Context, admin *models.User, id uint, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, invalidInput("unknown role %q", role)
	}
	return s.modify(ctx, admin, id, "change the role of", func(u *models.User) error {
		u.Role = role
		return nil
	})
}

func (s *AdminService) SetActive(ctx context.Context, admin *models.User, id uint, active bool) (*models.User, error) {
	return s.modify(ctx, admin, id, "change the status of", func(u *models.User) error {
		u.IsActive = active
		if !active {
			u.RefreshToken = ""
		}
		return nil
	})
}

func (s *AdminService) SetVerified(ctx context.Context, admin *models.User, id uint, verified bool) (*models.User, error) {
	return s.modify(ctx, admin, id, "verify", func(u *models.User) error {
		u.IsVerified = verified
		return nil
	})
}

// DeleteUser removes an account together with its learning history. An
// instructor who still owns courses cannot be deleted.
func (s *AdminService) DeleteUser(ctx context.Context, admin *models.User, id uint) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if admin.ID == id {
		return invalidState("you cannot delete your own account")
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "user")
		}
		if user.Role == models.RoleInstructor || user.Role == models.RoleAdmin {
			counts, err := tx.Courses().CountByStatus(ctx, id)
			if err != nil {
				return err
			}
			var owned int64
			for _, n := range counts {
				owned += n
			}
			if owned > 0 {
				return invalidState("user still owns %d courses", owned)
			}
		}
		return lookup(tx.Users().Delete(ctx, id), "user")
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "by_admin": admin.ID}).Warn("User deleted")
	return nil
}

// Statistics aggregates platform-wide counters.
func (s *AdminService) Statistics(ctx context.Context, admin *models.User) (*models.PlatformStatistics, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	stats := &models.PlatformStatistics{}

	var err error
	if stats.UsersByRole, err = s.store.Users().CountByRole(ctx); err != nil {
		return nil, err
	}
	for _, n := range stats.UsersByRole {
		stats.TotalUsers += n
	}
	if stats.CoursesByStatus, err = s.store.Courses().CountByStatus(ctx, 0); err != nil {
		return nil, err
	}
	for _, n := range stats.CoursesByStatus {
		stats.TotalCourses += n
	}
	if stats.EnrollmentsByStatus, err = s.store.Enrollments().CountByStatus(ctx, 0); err != nil {
		return nil, err
	}
	for _, n := range stats.EnrollmentsByStatus {
		stats.TotalEnrollments += n
	}
	if stats.TotalEnrollments > 0 {
		completed := stats.EnrollmentsByStatus[models.EnrollmentCompleted]
		stats.AverageCompletionRate = round2(float64(completed) / float64(stats.TotalEnrollments) * 100)
	}
	if stats.TotalReviews, err = s.store.Reviews().Count(ctx); err != nil {
		return nil, err
	}

	attempts, passed, err := s.store.Attempts().CountResults(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalQuizAttempts = attempts
	if attempts > 0 {
		stats.QuizPassRate = round2(float64(passed) / float64(attempts) * 100)
	}

	top, err := s.store.Courses().TopByStudents(ctx, topCoursesLimit)
	if err != nil {
		return nil, err
	}
	stats.TopCourses = make([]models.CourseRanking, len(top))
	for i, c := range top {
		stats.TopCourses[i] = models.CourseRanking{
			ID:            c.ID,
			Title:         c.Title,
			TotalStudents: c.TotalStudents,
			AverageRating: c.AverageRating,
		}
	}
	return stats, nil
}
