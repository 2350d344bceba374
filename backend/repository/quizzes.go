package repository

import (
	"context"

	"coursemarket/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type quizRepository struct {
	db *gorm.DB
}

func byDisplayOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return translate(r.db.WithContext(ctx).Create(quiz).Error)
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	return first[models.Quiz](r.db.WithContext(ctx), id)
}

func (r *quizRepository) GetWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	return first[models.Quiz](r.db.WithContext(ctx).
		Preload("Questions", byDisplayOrder).
		Preload("Questions.Answers", byDisplayOrder), id)
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(quiz).Error)
}

func (r *quizRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID[models.Quiz](r.db.WithContext(ctx), id)
}

func (r *quizRepository) ListByLesson(ctx context.Context, lessonID uint, publishedOnly bool) ([]models.Quiz, error) {
	q := r.db.WithContext(ctx).Where("lesson_id = ?", lessonID)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	var quizzes []models.Quiz
	err := q.Order("id ASC").Find(&quizzes).Error
	return quizzes, err
}

// CreateQuestion inserts the question together with its answers.
func (r *quizRepository) CreateQuestion(ctx context.Context, question *models.QuizQuestion) error {
	return translate(r.db.WithContext(ctx).Create(question).Error)
}

func (r *quizRepository) GetQuestion(ctx context.Context, id uint) (*models.QuizQuestion, error) {
	return first[models.QuizQuestion](r.db.WithContext(ctx).Preload("Answers", byDisplayOrder), id)
}

func (r *quizRepository) UpdateQuestion(ctx context.Context, question *models.QuizQuestion) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(question).Error)
}

func (r *quizRepository) DeleteQuestion(ctx context.Context, id uint) error {
	return deleteByID[models.QuizQuestion](r.db.WithContext(ctx), id)
}

func (r *quizRepository) GetAnswer(ctx context.Context, id uint) (*models.QuizAnswer, error) {
	return first[models.QuizAnswer](r.db.WithContext(ctx), id)
}

func (r *quizRepository) UpdateAnswer(ctx context.Context, answer *models.QuizAnswer) error {
	return translate(r.db.WithContext(ctx).Save(answer).Error)
}

type attemptRepository struct {
	db *gorm.DB
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(attempt).Error)
}

func (r *attemptRepository) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	return first[models.QuizAttempt](r.db.WithContext(ctx), id)
}

func (r *attemptRepository) CountCompleted(ctx context.Context, studentID, quizID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ? AND completed_at IS NOT NULL", studentID, quizID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) ListByStudent(ctx context.Context, studentID, quizID uint) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Order("created_at DESC, id DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) ListRecentByStudent(ctx context.Context, studentID uint, limit int) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) ListByQuiz(ctx context.Context, quizID uint, page Page) ([]models.QuizAttempt, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("quiz_id = ?", quizID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var attempts []models.QuizAttempt
	if err := paginate(q, page).Preload("Student").Order("created_at DESC, id DESC").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (r *attemptRepository) Statistics(ctx context.Context, quizID uint) (*models.QuizStatistics, error) {
	var row struct {
		Total       int64
		Passed      int64
		Average     float64
		Best        float64
		Worst       float64
		AverageTime float64
	}
	err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_passed THEN 1 ELSE 0 END), 0) AS passed,
			COALESCE(AVG(percentage), 0) AS average,
			COALESCE(MAX(percentage), 0) AS best,
			COALESCE(MIN(percentage), 0) AS worst,
			COALESCE(AVG(time_spent), 0) AS average_time`).
		Where("quiz_id = ? AND completed_at IS NOT NULL", quizID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &models.QuizStatistics{
		QuizID:           quizID,
		TotalAttempts:    row.Total,
		PassedAttempts:   row.Passed,
		FailedAttempts:   row.Total - row.Passed,
		AverageScore:     row.Average,
		BestScore:        row.Best,
		WorstScore:       row.Worst,
		AverageTimeSpent: int64(row.AverageTime),
	}, nil
}

func (r *attemptRepository) CountResults(ctx context.Context) (int64, int64, error) {
	var row struct {
		Total  int64
		Passed int64
	}
	err := r.db.WithContext(ctx).Model(&models.QuizAttempt{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_passed THEN 1 ELSE 0 END), 0) AS passed").
		Where("completed_at IS NOT NULL").
		Scan(&row).Error
	return row.Total, row.Passed, err
}
