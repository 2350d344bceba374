package routes

import (
	"errors"

	"coursemarket/backend/config"
	"coursemarket/backend/controllers"
	"coursemarket/backend/metrics"
	"coursemarket/backend/middleware"
	"coursemarket/backend/models"
	"coursemarket/backend/services"
	"coursemarket/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// NewApp builds the fiber application with the global middleware chain.
// limiterStorage may be nil.
func NewApp(cfg *config.Config, log *logrus.Logger, limiterStorage fiber.Storage) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "coursemarket",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.RequestIDMiddleware(cfg.RequestTimeout))
	app.Use(middleware.LoggingMiddleware(log))
	if cfg.EnableMetrics {
		app.Use(middleware.MetricsMiddleware())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + middleware.HeaderRequestID,
		ExposeHeaders: middleware.HeaderRequestID,
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	if cfg.RateLimitMax > 0 {
		app.Use(middleware.RateLimit("global", cfg.RateLimitMax, cfg.RateLimitWindow, limiterStorage))
	}

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return utils.Error(c, status, err)
}

func SetupRoutes(app *fiber.App, svc *services.Services, cfg *config.Config, log *logrus.Logger, limiterStorage fiber.Storage) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	if cfg.EnableMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	}

	// Middleware
	authMiddleware := middleware.AuthMiddleware(svc.Auth)
	optionalAuth := middleware.OptionalAuth(svc.Auth)
	adminMiddleware := middleware.AdminMiddleware()
	authorMiddleware := middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)

	api := app.Group("/api")

	// Auth routes
	authController := controllers.NewAuthController(svc.Auth, log)
	auth := api.Group("/auth")
	authLimit := middleware.RateLimit("auth", cfg.AuthRateLimit, cfg.RateLimitWindow, limiterStorage)
	auth.Post("/register", authLimit, authController.Register)
	auth.Post("/login", authLimit, authController.Login)
	auth.Post("/refresh", authController.Refresh)
	auth.Post("/logout", authMiddleware, authController.Logout)
	auth.Get("/me", authMiddleware, authController.Me)

	// User routes
	userController := controllers.NewUserController(svc, cfg, log)
	users := api.Group("/users")
	users.Get("/instructors", userController.Instructors)
	users.Patch("/me", authMiddleware, userController.UpdateProfile)
	users.Patch("/me/password", authMiddleware, userController.ChangePassword)
	users.Get("/me/dashboard", authMiddleware, userController.GetDashboard)
	users.Get("/:id", userController.GetProfile)
	users.Get("/:id/courses", userController.InstructorCourses)

	// Category routes
	categoryController := controllers.NewCategoryController(svc.Categories, log)
	categories := api.Group("/categories")
	categories.Get("/", categoryController.ListCategories)
	categories.Get("/slug/:slug", categoryController.GetCategoryBySlug)
	categories.Get("/:id", categoryController.GetCategory)
	categories.Post("/", authMiddleware, adminMiddleware, categoryController.CreateCategory)
	categories.Put("/:id", authMiddleware, adminMiddleware, categoryController.UpdateCategory)
	categories.Delete("/:id", authMiddleware, adminMiddleware, categoryController.DeleteCategory)

	// Courses routes
	coursesController := controllers.NewCoursesController(svc.Courses, cfg, log)
	courses := api.Group("/courses")
	courses.Get("/", coursesController.Catalog)
	courses.Post("/", authMiddleware, authorMiddleware, coursesController.CreateCourse)
	courses.Get("/my/instructor", authMiddleware, authorMiddleware, coursesController.MyCourses)
	courses.Get("/slug/:slug", optionalAuth, coursesController.GetCourseBySlug)
	courses.Get("/:id", optionalAuth, coursesController.GetCourse)
	courses.Put("/:id", authMiddleware, coursesController.UpdateCourse)
	courses.Patch("/:id/publish", authMiddleware, coursesController.PublishCourse)
	courses.Patch("/:id/archive", authMiddleware, coursesController.ArchiveCourse)
	courses.Delete("/:id", authMiddleware, coursesController.DeleteCourse)

	// Lesson routes
	lessonController := controllers.NewLessonController(svc, log)
	lessons := api.Group("/lessons")
	lessons.Post("/", authMiddleware, lessonController.AddLesson)
	lessons.Post("/bulk", authMiddleware, lessonController.BulkAddLessons)
	lessons.Get("/course/:course_id", optionalAuth, lessonController.CourseLessons)
	lessons.Get("/course/:course_id/preview", lessonController.PreviewLessons)
	lessons.Get("/course/:course_id/with-progress", authMiddleware, lessonController.LessonsWithProgress)
	lessons.Get("/:id", optionalAuth, lessonController.GetLesson)
	lessons.Put("/:id", authMiddleware, lessonController.UpdateLesson)
	lessons.Delete("/:id", authMiddleware, lessonController.DeleteLesson)
	lessons.Post("/:id/reorder", authMiddleware, lessonController.ReorderLesson)

	// Enrollment routes
	enrollmentController := controllers.NewEnrollmentController(svc.Enrollments, cfg, log)
	enrollments := api.Group("/enrollments", authMiddleware)
	enrollments.Post("/", enrollmentController.Enroll)
	enrollments.Get("/my-courses", enrollmentController.MyEnrollments)
	enrollments.Get("/check/:course_id", enrollmentController.CheckEnrollment)
	enrollments.Get("/course/:course_id/students", enrollmentController.CourseStudents)
	enrollments.Get("/course/:course_id/statistics", enrollmentController.CourseStatistics)
	enrollments.Get("/:id", enrollmentController.GetEnrollment)
	enrollments.Delete("/:id", enrollmentController.CancelEnrollment)
	enrollments.Post("/:id/complete", enrollmentController.CompleteEnrollment)

	// Progress routes
	progressController := controllers.NewProgressController(svc.Progress, log)
	progress := api.Group("/progress", authMiddleware)
	progress.Post("/lessons/:lesson_id/start", progressController.StartLesson)
	progress.Patch("/lessons/:lesson_id", progressController.UpdateLesson)
	progress.Post("/lessons/:lesson_id/complete", progressController.CompleteLesson)
	progress.Get("/courses/:course_id", progressController.CourseProgress)
	progress.Get("/my-courses", progressController.MyCourses)
	progress.Get("/statistics", progressController.Statistics)

	// Quiz routes
	quizController := controllers.NewQuizController(svc.Quizzes, cfg, log)
	quizzes := api.Group("/quizzes", authMiddleware)
	quizzes.Post("/", quizController.CreateQuiz)
	quizzes.Post("/submit", quizController.SubmitQuiz)
	quizzes.Get("/lessons/:lesson_id", quizController.LessonQuizzes)
	quizzes.Get("/attempts/:id", quizController.GetAttempt)
	quizzes.Patch("/questions/:id", quizController.UpdateQuestion)
	quizzes.Delete("/questions/:id", quizController.DeleteQuestion)
	quizzes.Patch("/answers/:id", quizController.UpdateAnswer)
	quizzes.Get("/:id", quizController.GetQuiz)
	quizzes.Patch("/:id", quizController.UpdateQuiz)
	quizzes.Delete("/:id", quizController.DeleteQuiz)
	quizzes.Post("/:id/questions", quizController.AddQuestion)
	quizzes.Get("/:id/start", quizController.StartQuiz)
	quizzes.Get("/:id/attempts", quizController.MyAttempts)
	quizzes.Get("/:id/statistics", quizController.Statistics)
	quizzes.Get("/:id/all-attempts", quizController.AllAttempts)

	// Review routes
	reviewController := controllers.NewReviewController(svc.Reviews, cfg, log)
	reviews := api.Group("/reviews")
	reviews.Post("/", authMiddleware, reviewController.CreateReview)
	reviews.Get("/user/my-reviews", authMiddleware, reviewController.MyReviews)
	reviews.Get("/course/:course_id", reviewController.CourseReviews)
	reviews.Get("/course/:course_id/stats", reviewController.CourseStats)
	reviews.Get("/course/:course_id/my-review", authMiddleware, reviewController.MyCourseReview)
	reviews.Get("/:id", reviewController.GetReview)
	reviews.Put("/:id", authMiddleware, reviewController.UpdateReview)
	reviews.Delete("/:id", authMiddleware, reviewController.DeleteReview)

	// Comment routes
	commentsController := controllers.NewCommentsController(svc.Comments, log)
	comments := api.Group("/comments")
	comments.Post("/", authMiddleware, commentsController.AddComment)
	comments.Get("/my", authMiddleware, commentsController.MyComments)
	comments.Get("/lessons/:lesson_id", commentsController.LessonComments)
	comments.Patch("/:id", authMiddleware, commentsController.UpdateComment)
	comments.Delete("/:id", authMiddleware, commentsController.DeleteComment)

	// Admin routes
	adminController := controllers.NewAdminController(svc, cfg, log)
	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.Get("/users", adminController.ListUsers)
	admin.Get("/users/:id", adminController.GetUser)
	admin.Patch("/users/:id/role", adminController.ChangeRole)
	admin.Patch("/users/:id/status", adminController.SetStatus)
	admin.Patch("/users/:id/verify", adminController.SetVerified)
	admin.Delete("/users/:id", adminController.DeleteUser)
	admin.Get("/courses", adminController.ListCourses)
	admin.Patch("/courses/:id/moderate", adminController.ModerateCourse)
	admin.Get("/statistics", adminController.Statistics)
}
