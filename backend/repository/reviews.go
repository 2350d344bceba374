package repository

import (
	"context"

	"coursemarket/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reviewRepository struct {
	db *gorm.DB
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error)
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	return first[models.Review](r.db.WithContext(ctx).Preload("Student"), id)
}

func (r *reviewRepository) Get(ctx context.Context, studentID, courseID uint) (*models.Review, error) {
	return first[models.Review](r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID))
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(review).Error)
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID[models.Review](r.db.WithContext(ctx), id)
}

func (r *reviewRepository) ListByCourse(ctx context.Context, courseID uint, filter ReviewFilter) ([]models.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Review{}).Where("course_id = ?", courseID)
	if filter.Rating != 0 {
		q = q.Where("rating = ?", filter.Rating)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id DESC"
	switch filter.SortBy {
	case SortRatingHigh:
		order = "rating DESC, created_at DESC"
	case SortRatingLow:
		order = "rating ASC, created_at DESC"
	}
	var reviews []models.Review
	if err := paginate(q, filter.Page).Preload("Student").Order(order).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("created_at DESC, id DESC").Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) Aggregate(ctx context.Context, courseID uint) (float64, int64, error) {
	var row struct {
		Average float64
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("course_id = ?", courseID).
		Scan(&row).Error
	return row.Average, row.Total, err
}

func (r *reviewRepository) Distribution(ctx context.Context, courseID uint) (map[int]int64, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]int64, 5)
	for _, row := range rows {
		out[row.Rating] = row.Count
	}
	return out, nil
}

func (r *reviewRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).Count(&count).Error
	return count, err
}
