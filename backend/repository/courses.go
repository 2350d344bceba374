package repository

import (
	"context"
	"strings"

	"coursemarket/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type categoryRepository struct {
	db *gorm.DB
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return first[models.Category](r.db.WithContext(ctx), id)
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return first[models.Category](r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *categoryRepository) Exists(ctx context.Context, name, slug string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("(LOWER(name) = ? OR slug = ?)", strings.ToLower(name), slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := r.db.WithContext(ctx).Order("sort_order ASC, name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var categories []models.Category
	if err := q.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Save(category).Error)
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID[models.Category](r.db.WithContext(ctx), id)
}

type courseRepository struct {
	db *gorm.DB
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error)
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	return first[models.Course](r.db.WithContext(ctx).Preload("Instructor").Preload("Category"), id)
}

func (r *courseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	return first[models.Course](r.db.WithContext(ctx).Preload("Instructor").Preload("Category").Where("slug = ?", slug))
}

func (r *courseRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(course).Error)
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID[models.Course](r.db.WithContext(ctx), id)
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Course{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.InstructorID != 0 {
		q = q.Where("instructor_id = ?", filter.InstructorID)
	}
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if filter.IsFree != nil {
		if *filter.IsFree {
			q = q.Where("price = 0")
		} else {
			q = q.Where("price > 0")
		}
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []models.Course
	err := paginate(q, filter.Page).
		Preload("Instructor").
		Preload("Category").
		Order(courseOrder(filter.SortBy)).
		Find(&courses).Error
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func courseOrder(sortBy string) string {
	switch sortBy {
	case SortPopular:
		return "total_students DESC, id DESC"
	case SortRating:
		return "average_rating DESC, id DESC"
	case SortPriceLow:
		return "price ASC, id ASC"
	case SortPriceHigh:
		return "price DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func (r *courseRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *courseRepository) CountByStatus(ctx context.Context, instructorID uint) (map[models.CourseStatus]int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Course{})
	if instructorID != 0 {
		q = q.Where("instructor_id = ?", instructorID)
	}
	var rows []struct {
		Status models.CourseStatus
		Count  int64
	}
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.CourseStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *courseRepository) TopByStudents(ctx context.Context, limit int) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Order("total_students DESC, id ASC").
		Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepository) AdjustStudents(ctx context.Context, id uint, delta int) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"total_students": gorm.Expr("GREATEST(total_students + ?, 0)", delta),
	})
}

func (r *courseRepository) SetLessonCount(ctx context.Context, id uint, total int) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"total_lessons": total})
}

func (r *courseRepository) SetRating(ctx context.Context, id uint, average float64, total int) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"average_rating": average,
		"total_reviews":  total,
	})
}

func (r *courseRepository) updateColumns(ctx context.Context, id uint, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).UpdateColumns(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type lessonRepository struct {
	db *gorm.DB
}

func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(lesson).Error)
}

func (r *lessonRepository) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	return first[models.Lesson](r.db.WithContext(ctx), id)
}

func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(lesson).Error)
}

func (r *lessonRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID[models.Lesson](r.db.WithContext(ctx), id)
}

func (r *lessonRepository) ListByCourse(ctx context.Context, courseID uint, publishedOnly bool) ([]models.Lesson, error) {
	q := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	var lessons []models.Lesson
	if err := q.Order("sort_order ASC, id ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepository) Count(ctx context.Context, courseID uint, publishedOnly bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *lessonRepository) ShiftOrders(ctx context.Context, courseID uint, from, to, delta int) error {
	if from > to || delta == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ? AND sort_order BETWEEN ? AND ?", courseID, from, to).
		UpdateColumn("sort_order", gorm.Expr("sort_order + ?", delta)).Error
}
