// Package repository defines the storage contracts of the marketplace and
// their GORM/Postgres implementation.
package repository

import (
	"context"

	"coursemarket/backend/models"
)

// Page is a limit/offset window. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

type UserFilter struct {
	Role     models.Role
	IsActive *bool
	Search   string
	Page     Page
}

const (
	SortNewest    = "newest"
	SortPopular   = "popular"
	SortRating    = "rating"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"

	SortRecent     = "recent"
	SortRatingHigh = "rating_high"
	SortRatingLow  = "rating_low"
)

type CourseFilter struct {
	Status       models.CourseStatus
	InstructorID uint
	CategoryID   uint
	Level        models.CourseLevel
	Search       string
	IsFree       *bool
	MinPrice     *float64
	MaxPrice     *float64
	SortBy       string
	Page         Page
}

type ReviewFilter struct {
	Rating int
	SortBy string
	Page   Page
}

// Store groups the per-entity repositories. Transaction runs fn against a
// Store bound to one transaction; an error from fn rolls everything back.
type Store interface {
	Users() UserRepository
	Categories() CategoryRepository
	Courses() CourseRepository
	Lessons() LessonRepository
	Enrollments() EnrollmentRepository
	Progress() ProgressRepository
	Quizzes() QuizRepository
	Attempts() AttemptRepository
	Reviews() ReviewRepository
	Comments() CommentRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	// Exists reports whether another category already uses name or slug.
	Exists(ctx context.Context, name, slug string, excludeID uint) (bool, error)
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
	CountByStatus(ctx context.Context, instructorID uint) (map[models.CourseStatus]int64, error)
	TopByStudents(ctx context.Context, limit int) ([]models.Course, error)

	// AdjustStudents adds delta to total_students, never going below zero.
	AdjustStudents(ctx context.Context, id uint, delta int) error
	SetLessonCount(ctx context.Context, id uint, total int) error
	SetRating(ctx context.Context, id uint, average float64, total int) error
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uint) error
	ListByCourse(ctx context.Context, courseID uint, publishedOnly bool) ([]models.Lesson, error)
	Count(ctx context.Context, courseID uint, publishedOnly bool) (int64, error)
	// ShiftOrders adds delta to the order of every lesson of the course whose
	// order lies in [from, to].
	ShiftOrders(ctx context.Context, courseID uint, from, to, delta int) error
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id uint) (*models.Enrollment, error)
	Get(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error)
	// GetForUpdate loads the enrollment and holds a row lock on it until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
	ListByStudent(ctx context.Context, studentID uint, status models.EnrollmentStatus) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID uint, page Page) ([]models.Enrollment, int64, error)
	Exists(ctx context.Context, courseID uint) (bool, error)
	// CountByStatus counts enrollments of one course, or of all courses when courseID is 0.
	CountByStatus(ctx context.Context, courseID uint) (map[models.EnrollmentStatus]int64, error)
	AverageProgress(ctx context.Context, courseID uint) (float64, error)
}

type ProgressRepository interface {
	Create(ctx context.Context, progress *models.Progress) error
	Get(ctx context.Context, studentID, lessonID uint) (*models.Progress, error)
	Update(ctx context.Context, progress *models.Progress) error
	ListByCourse(ctx context.Context, studentID, courseID uint) ([]models.Progress, error)
	// CountCompleted counts completed progress rows of the student on published
	// lessons of the course.
	CountCompleted(ctx context.Context, studentID, courseID uint) (int64, error)
	TimeSpent(ctx context.Context, studentID, courseID uint) (int64, error)
	StudentTotals(ctx context.Context, studentID uint) (completed int64, timeSpent int64, err error)
}

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	// GetWithQuestions preloads questions and answers, both in display order.
	GetWithQuestions(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error
	ListByLesson(ctx context.Context, lessonID uint, publishedOnly bool) ([]models.Quiz, error)

	CreateQuestion(ctx context.Context, question *models.QuizQuestion) error
	GetQuestion(ctx context.Context, id uint) (*models.QuizQuestion, error)
	UpdateQuestion(ctx context.Context, question *models.QuizQuestion) error
	DeleteQuestion(ctx context.Context, id uint) error
	GetAnswer(ctx context.Context, id uint) (*models.QuizAnswer, error)
	UpdateAnswer(ctx context.Context, answer *models.QuizAnswer) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	// CountCompleted counts the student's attempts that have completed_at set.
	CountCompleted(ctx context.Context, studentID, quizID uint) (int64, error)
	ListByStudent(ctx context.Context, studentID, quizID uint) ([]models.QuizAttempt, error)
	ListRecentByStudent(ctx context.Context, studentID uint, limit int) ([]models.QuizAttempt, error)
	ListByQuiz(ctx context.Context, quizID uint, page Page) ([]models.QuizAttempt, int64, error)
	Statistics(ctx context.Context, quizID uint) (*models.QuizStatistics, error)
	CountResults(ctx context.Context) (total int64, passed int64, err error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	Get(ctx context.Context, studentID, courseID uint) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uint) error
	ListByCourse(ctx context.Context, courseID uint, filter ReviewFilter) ([]models.Review, int64, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Review, error)
	// Aggregate returns the mean rating and the review count of a course.
	Aggregate(ctx context.Context, courseID uint) (float64, int64, error)
	Distribution(ctx context.Context, courseID uint) (map[int]int64, error)
	Count(ctx context.Context) (int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	// ListRoots returns visible top-level comments of a lesson, newest first.
	ListRoots(ctx context.Context, lessonID uint) ([]models.Comment, error)
	// ListReplies returns visible replies to the given roots, oldest first.
	ListReplies(ctx context.Context, parentIDs []uint) ([]models.Comment, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Comment, error)
	CountVisible(ctx context.Context, lessonID uint) (int64, error)
}
