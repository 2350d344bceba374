package repository

import (
	"context"

	"coursemarket/backend/models"

	"gorm.io/gorm"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository             { return &userRepository{db: s.db} }
func (s *GormStore) Categories() CategoryRepository    { return &categoryRepository{db: s.db} }
func (s *GormStore) Courses() CourseRepository         { return &courseRepository{db: s.db} }
func (s *GormStore) Lessons() LessonRepository         { return &lessonRepository{db: s.db} }
func (s *GormStore) Enrollments() EnrollmentRepository { return &enrollmentRepository{db: s.db} }
func (s *GormStore) Progress() ProgressRepository      { return &progressRepository{db: s.db} }
func (s *GormStore) Quizzes() QuizRepository           { return &quizRepository{db: s.db} }
func (s *GormStore) Attempts() AttemptRepository       { return &attemptRepository{db: s.db} }
func (s *GormStore) Reviews() ReviewRepository         { return &reviewRepository{db: s.db} }
func (s *GormStore) Comments() CommentRepository       { return &commentRepository{db: s.db} }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// AutoMigrate creates or updates every table the marketplace uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Course{},
		&models.Lesson{},
		&models.Enrollment{},
		&models.Progress{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAnswer{},
		&models.QuizAttempt{},
		&models.Review{},
		&models.Comment{},
	)
}

func paginate(q *gorm.DB, page Page) *gorm.DB {
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	return q
}

func first[T any](q *gorm.DB, conds ...interface{}) (*T, error) {
	var out T
	if err := q.First(&out, conds...).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func deleteByID[T any](q *gorm.DB, id uint) error {
	res := q.Delete(new(T), id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
