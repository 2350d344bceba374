// Package services holds the business rules of the marketplace. Handlers
// call into it with the authenticated user; every multi-row change runs in a
// single repository transaction.
package services

import (
	"github.com/sirupsen/logrus"

	"coursemarket/backend/repository"
	"coursemarket/backend/utils"
)

type Services struct {
	Auth        *AuthService
	Users       *UserService
	Admin       *AdminService
	Categories  *CategoryService
	Courses     *CourseService
	Lessons     *LessonService
	Enrollments *EnrollmentService
	Progress    *ProgressService
	Quizzes     *QuizService
	Reviews     *ReviewService
	Comments    *CommentService
	Dashboard   *DashboardService
}

func New(store repository.Store, tokens RefreshTokenStore, jwt *utils.JWTManager, log *logrus.Logger) *Services {
	progress := NewProgressService(store, log)
	admin := NewAdminService(store, log)
	return &Services{
		Auth:        NewAuthService(store, tokens, jwt, log),
		Users:       NewUserService(store, tokens, log),
		Admin:       admin,
		Categories:  NewCategoryService(store, log),
		Courses:     NewCourseService(store, log),
		Lessons:     NewLessonService(store, log),
		Enrollments: NewEnrollmentService(store, log),
		Progress:    progress,
		Quizzes:     NewQuizService(store, log),
		Reviews:     NewReviewService(store, log),
		Comments:    NewCommentService(store, log),
		Dashboard:   NewDashboardService(store, progress, admin),
	}
}
