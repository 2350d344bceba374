package repository

import (
	"context"

	"coursemarket/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type enrollmentRepository struct {
	db *gorm.DB
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(enrollment).Error)
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	return first[models.Enrollment](r.db.WithContext(ctx).Preload("Course"), id)
}

func (r *enrollmentRepository) Get(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	return first[models.Enrollment](r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID))
}

func (r *enrollmentRepository) GetForUpdate(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	return first[models.Enrollment](r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND course_id = ?", studentID, courseID))
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(enrollment).Error)
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID uint, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	q := r.db.WithContext(ctx).Preload("Course").Where("student_id = ?", studentID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var enrollments []models.Enrollment
	if err := q.Order("enrolled_at DESC, id DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID uint, page Page) ([]models.Enrollment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var enrollments []models.Enrollment
	if err := paginate(q, page).Preload("Student").Order("enrolled_at DESC, id DESC").Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

func (r *enrollmentRepository) Exists(ctx context.Context, courseID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID).Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepository) CountByStatus(ctx context.Context, courseID uint) (map[models.EnrollmentStatus]int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Enrollment{})
	if courseID != 0 {
		q = q.Where("course_id = ?", courseID)
	}
	var rows []struct {
		Status models.EnrollmentStatus
		Count  int64
	}
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.EnrollmentStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *enrollmentRepository) AverageProgress(ctx context.Context, courseID uint) (float64, error) {
	q := r.db.WithContext(ctx).Model(&models.Enrollment{})
	if courseID != 0 {
		q = q.Where("course_id = ?", courseID)
	}
	var avg float64
	err := q.Select("COALESCE(AVG(progress_percentage), 0)").Scan(&avg).Error
	return avg, err
}

type progressRepository struct {
	db *gorm.DB
}

func (r *progressRepository) Create(ctx context.Context, progress *models.Progress) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(progress).Error)
}

func (r *progressRepository) Get(ctx context.Context, studentID, lessonID uint) (*models.Progress, error) {
	return first[models.Progress](r.db.WithContext(ctx).
		Where("student_id = ? AND lesson_id = ?", studentID, lessonID))
}

func (r *progressRepository) Update(ctx context.Context, progress *models.Progress) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(progress).Error)
}

func (r *progressRepository) inCourse(ctx context.Context, studentID, courseID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Progress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Where("lesson_progress.student_id = ? AND lessons.course_id = ?", studentID, courseID)
}

func (r *progressRepository) ListByCourse(ctx context.Context, studentID, courseID uint) ([]models.Progress, error) {
	var rows []models.Progress
	err := r.inCourse(ctx, studentID, courseID).
		Select("lesson_progress.*").
		Order("lessons.sort_order ASC").
		Find(&rows).Error
	return rows, err
}

func (r *progressRepository) CountCompleted(ctx context.Context, studentID, courseID uint) (int64, error) {
	var count int64
	err := r.inCourse(ctx, studentID, courseID).
		Where("lesson_progress.is_completed = ? AND lessons.is_published = ?", true, true).
		Count(&count).Error
	return count, err
}

func (r *progressRepository) TimeSpent(ctx context.Context, studentID, courseID uint) (int64, error) {
	var total int64
	err := r.inCourse(ctx, studentID, courseID).
		Select("COALESCE(SUM(lesson_progress.time_spent), 0)").
		Scan(&total).Error
	return total, err
}

func (r *progressRepository) StudentTotals(ctx context.Context, studentID uint) (int64, int64, error) {
	var row struct {
		Completed int64
		TimeSpent int64
	}
	err := r.db.WithContext(ctx).Model(&models.Progress{}).
		Select("COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) AS completed, COALESCE(SUM(time_spent), 0) AS time_spent").
		Where("student_id = ?", studentID).
		Scan(&row).Error
	return row.Completed, row.TimeSpent, err
}
