package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type LessonService struct {
	store repository.Store
	log   *logrus.Logger
}

func NewLessonService(store repository.Store, log *logrus.Logger) *LessonService {
	return &LessonService{store: store, log: log}
}

type LessonInput struct {
	CourseID      uint   `json:"course_id" validate:"required"`
	Title         string `json:"title" validate:"required,min=3,max=255"`
	Description   string `json:"description"`
	Content       string `json:"content"`
	VideoURL      string `json:"video_url" validate:"omitempty,url"`
	VideoDuration int    `json:"video_duration" validate:"gte=0"`
	Order         *int   `json:"order" validate:"omitempty,gte=1"`
	IsPublished   bool   `json:"is_published"`
	IsFreePreview bool   `json:"is_free_preview"`
}

type LessonPatch struct {
	Title         *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description   *string `json:"description"`
	Content       *string `json:"content"`
	VideoURL      *string `json:"video_url" validate:"omitempty,url"`
	VideoDuration *int    `json:"video_duration" validate:"omitempty,gte=0"`
	IsPublished   *bool   `json:"is_published"`
	IsFreePreview *bool   `json:"is_free_preview"`
}

// reorderShift returns the range of orders to move and the direction when a
// lesson moves from position from to position to.
func reorderShift(from, to int) (lo, hi, delta int) {
	if to < from {
		return to, from - 1, 1
	}
	return from + 1, to, -1
}

// Create inserts a lesson. Without an explicit order it is appended; with one,
// the lessons at or after that position move down by one.
func (s *LessonService) Create(ctx context.Context, user *models.User, in LessonInput) (*models.Lesson, error) {
	var lesson *models.Lesson
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := managedCourse(ctx, tx, user, in.CourseID); err != nil {
			return err
		}
		var err error
		lesson, err = s.insert(ctx, tx, in)
		if err != nil {
			return err
		}
		return s.afterPublishChange(ctx, tx, in.CourseID)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"lesson_id": lesson.ID, "course_id": lesson.CourseID}).Info("Lesson created")
	return lesson, nil
}

func (s *LessonService) insert(ctx context.Context, tx repository.Store, in LessonInput) (*models.Lesson, error) {
	count, err := tx.Lessons().Count(ctx, in.CourseID, false)
	if err != nil {
		return nil, err
	}
	order := int(count) + 1
	if in.Order != nil {
		if *in.Order < 1 || *in.Order > order {
			return nil, invalidState("order must be between 1 and %d", order)
		}
		if *in.Order < order {
			if err := tx.Lessons().ShiftOrders(ctx, in.CourseID, *in.Order, math.MaxInt32, 1); err != nil {
				return nil, err
			}
		}
		order = *in.Order
	}

	lesson := &models.Lesson{
		CourseID:      in.CourseID,
		Title:         in.Title,
		Description:   in.Description,
		Content:       in.Content,
		VideoURL:      in.VideoURL,
		VideoDuration: in.VideoDuration,
		Order:         order,
		IsPublished:   in.IsPublished,
		IsFreePreview: in.IsFreePreview,
	}
	if err := tx.Lessons().Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// BulkCreate appends several lessons to one course in a single transaction.
func (s *LessonService) BulkCreate(ctx context.Context, user *models.User, courseID uint, inputs []LessonInput) ([]models.Lesson, error) {
	if len(inputs) == 0 {
		return nil, invalidInput("at least one lesson is required")
	}
	created := make([]models.Lesson, 0, len(inputs))
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := managedCourse(ctx, tx, user, courseID); err != nil {
			return err
		}
		for _, in := range inputs {
			in.CourseID = courseID
			in.Order = nil
			lesson, err := s.insert(ctx, tx, in)
			if err != nil {
				return err
			}
			created = append(created, *lesson)
		}
		return s.afterPublishChange(ctx, tx, courseID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// afterPublishChange refreshes the counters that depend on the set of
// published lessons of a course.
func (s *LessonService) afterPublishChange(ctx context.Context, tx repository.Store, courseID uint) error {
	if err := recomputeLessonCount(ctx, tx, courseID); err != nil {
		return err
	}
	return recomputeCourseEnrollments(ctx, tx, courseID, time.Now())
}

// Get returns a lesson with its content. Course authors always see it, free
// previews are public, and everything else needs an active enrollment. user
// may be nil for anonymous callers.
func (s *LessonService) Get(ctx context.Context, user *models.User, id uint) (*models.Lesson, error) {
	lesson, err := s.store.Lessons().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "lesson")
	}
	course, err := s.store.Courses().GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, lookup(err, "course")
	}
	if canManageCourse(user, course) {
		return lesson, nil
	}
	if !lesson.IsPublished {
		return nil, notFound("lesson not found")
	}
	if lesson.IsFreePreview {
		return lesson, nil
	}
	if user == nil {
		return nil, forbidden("enroll in the course to access this lesson")
	}
	if _, err := activeEnrollment(ctx, s.store, user.ID, course.ID); err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListByCourse returns the outline of a course. Authors get every lesson with
// content; everyone else gets published lessons without their bodies.
func (s *LessonService) ListByCourse(ctx context.Context, user *models.User, courseID uint) ([]models.Lesson, error) {
	course, err := s.store.Courses().GetByID(ctx, courseID)
	if err != nil {
		return nil, lookup(err, "course")
	}
	if canManageCourse(user, course) {
		return s.store.Lessons().ListByCourse(ctx, courseID, false)
	}
	lessons, err := s.store.Lessons().ListByCourse(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	for i := range lessons {
		lessons[i] = lessons[i].Outline()
	}
	return lessons, nil
}

// Previews lists the published free-preview lessons of a course in full.
func (s *LessonService) Previews(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	if _, err := s.store.Courses().GetByID(ctx, courseID); err != nil {
		return nil, lookup(err, "course")
	}
	lessons, err := s.store.Lessons().ListByCourse(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	out := lessons[:0]
	for _, l := range lessons {
		if l.IsFreePreview {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *LessonService) Update(ctx context.Context, user *models.User, id uint, patch LessonPatch) (*models.Lesson, error) {
	var lesson *models.Lesson
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		lesson, err = tx.Lessons().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "lesson")
		}
		if _, err := managedCourse(ctx, tx, user, lesson.CourseID); err != nil {
			return err
		}

		wasPublished := lesson.IsPublished
		if patch.Title != nil {
			lesson.Title = *patch.Title
		}
		if patch.Description != nil {
			lesson.Description = *patch.Description
		}
		if patch.Content != nil {
			lesson.Content = *patch.Content
		}
		if patch.VideoURL != nil {
			lesson.VideoURL = *patch.VideoURL
		}
		if patch.VideoDuration != nil {
			lesson.VideoDuration = *patch.VideoDuration
		}
		if patch.IsPublished != nil {
			lesson.IsPublished = *patch.IsPublished
		}
		if patch.IsFreePreview != nil {
			lesson.IsFreePreview = *patch.IsFreePreview
		}
		if err := tx.Lessons().Update(ctx, lesson); err != nil {
			return err
		}
		if wasPublished != lesson.IsPublished {
			return s.afterPublishChange(ctx, tx, lesson.CourseID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// Delete removes a lesson and closes the gap it leaves in the ordering.
func (s *LessonService) Delete(ctx context.Context, user *models.User, id uint) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "lesson")
		}
		if _, err := managedCourse(ctx, tx, user, lesson.CourseID); err != nil {
			return err
		}
		if err := tx.Lessons().Delete(ctx, id); err != nil {
			return lookup(err, "lesson")
		}
		if err := tx.Lessons().ShiftOrders(ctx, lesson.CourseID, lesson.Order+1, math.MaxInt32, -1); err != nil {
			return err
		}
		return s.afterPublishChange(ctx, tx, lesson.CourseID)
	})
}

// Reorder moves a lesson to position newOrder, shifting the lessons in
// between by one so that orders stay a permutation of 1..N.
func (s *LessonService) Reorder(ctx context.Context, user *models.User, id uint, newOrder int) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "lesson")
		}
		if _, err := managedCourse(ctx, tx, user, lesson.CourseID); err != nil {
			return err
		}
		count, err := tx.Lessons().Count(ctx, lesson.CourseID, false)
		if err != nil {
			return err
		}
		if newOrder < 1 || int64(newOrder) > count {
			return invalidState("order must be between 1 and %d", count)
		}

		if newOrder != lesson.Order {
			lo, hi, delta := reorderShift(lesson.Order, newOrder)
			if err := tx.Lessons().ShiftOrders(ctx, lesson.CourseID, lo, hi, delta); err != nil {
				return err
			}
			lesson.Order = newOrder
			if err := tx.Lessons().Update(ctx, lesson); err != nil {
				return err
			}
		}
		lessons, err = tx.Lessons().ListByCourse(ctx, lesson.CourseID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lessons, nil
}
