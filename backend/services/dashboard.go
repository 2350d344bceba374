package services

import (
	"context"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

const recentAttemptsLimit = 5

type DashboardService struct {
	store    repository.Store
	progress *ProgressService
	admin    *AdminService
}

func NewDashboardService(store repository.Store, progress *ProgressService, admin *AdminService) *DashboardService {
	return &DashboardService{store: store, progress: progress, admin: admin}
}

// For builds the dashboard matching the user's role.
func (s *DashboardService) For(ctx context.Context, user *models.User) (models.Dashboard, error) {
	switch user.Role {
	case models.RoleStudent:
		return s.student(ctx, user)
	case models.RoleInstructor:
		return s.instructor(ctx, user)
	case models.RoleAdmin:
		stats, err := s.admin.Statistics(ctx, user)
		if err != nil {
			return nil, err
		}
		return models.AdminDashboard{Role: models.RoleAdmin, Statistics: *stats}, nil
	}
	return nil, forbidden("no dashboard for role %q", user.Role)
}

func (s *DashboardService) student(ctx context.Context, user *models.User) (models.Dashboard, error) {
	stats, err := s.progress.Statistics(ctx, user)
	if err != nil {
		return nil, err
	}
	courses, err := s.progress.MyCourses(ctx, user)
	if err != nil {
		return nil, err
	}
	active := make([]models.CourseProgressSummary, 0, len(courses))
	for _, c := range courses {
		if c.Status == string(models.EnrollmentActive) {
			active = append(active, c)
		}
	}
	attempts, err := s.store.Attempts().ListRecentByStudent(ctx, user.ID, recentAttemptsLimit)
	if err != nil {
		return nil, err
	}
	return models.StudentDashboard{
		Role:           models.RoleStudent,
		Statistics:     *stats,
		ActiveCourses:  active,
		RecentAttempts: attempts,
	}, nil
}

func (s *DashboardService) instructor(ctx context.Context, user *models.User) (models.Dashboard, error) {
	courses, total, err := s.store.Courses().List(ctx, repository.CourseFilter{
		InstructorID: user.ID,
		SortBy:       repository.SortNewest,
	})
	if err != nil {
		return nil, err
	}

	d := models.InstructorDashboard{
		Role:         models.RoleInstructor,
		TotalCourses: total,
		Courses:      courses,
	}
	var weighted float64
	for _, c := range courses {
		switch c.Status {
		case models.CoursePublished:
			d.Published++
		case models.CourseDraft:
			d.Drafts++
		}
		d.TotalStudents += int64(c.TotalStudents)
		d.TotalReviews += int64(c.TotalReviews)
		weighted += c.AverageRating * float64(c.TotalReviews)
	}
	if d.TotalReviews > 0 {
		d.AverageRating = round2(weighted / float64(d.TotalReviews))
	}
	return d, nil
}
