package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"
)

type CourseService struct {
	store repository.Store
	log   *logrus.Logger
}

func NewCourseService(store repository.Store, log *logrus.Logger) *CourseService {
	return &CourseService{store: store, log: log}
}

type CourseInput struct {
	Title            string             `json:"title" validate:"required,min=3,max=255"`
	ShortDescription string             `json:"short_description" validate:"max=500"`
	Description      string             `json:"description"`
	ThumbnailURL     string             `json:"thumbnail_url" validate:"omitempty,url"`
	PreviewVideoURL  string             `json:"preview_video_url" validate:"omitempty,url"`
	Price            float64            `json:"price" validate:"gte=0"`
	DiscountPrice    *float64           `json:"discount_price" validate:"omitempty,gte=0"`
	Level            models.CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced all_levels"`
	Language         string             `json:"language" validate:"omitempty,max=10"`
	DurationHours    float64            `json:"duration_hours" validate:"gte=0"`
	Requirements     string             `json:"requirements"`
	WhatYouLearn     string             `json:"what_you_will_learn"`
	TargetAudience   string             `json:"target_audience"`
	CategoryID       *uint              `json:"category_id"`
}

type CoursePatch struct {
	Title            *string             `json:"title" validate:"omitempty,min=3,max=255"`
	ShortDescription *string             `json:"short_description" validate:"omitempty,max=500"`
	Description      *string             `json:"description"`
	ThumbnailURL     *string             `json:"thumbnail_url" validate:"omitempty,url"`
	PreviewVideoURL  *string             `json:"preview_video_url" validate:"omitempty,url"`
	Price            *float64            `json:"price" validate:"omitempty,gte=0"`
	DiscountPrice    *float64            `json:"discount_price" validate:"omitempty,gte=0"`
	Level            *models.CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced all_levels"`
	Language         *string             `json:"language" validate:"omitempty,max=10"`
	DurationHours    *float64            `json:"duration_hours" validate:"omitempty,gte=0"`
	Requirements     *string             `json:"requirements"`
	WhatYouLearn     *string             `json:"what_you_will_learn"`
	TargetAudience   *string             `json:"target_audience"`
	CategoryID       *uint               `json:"category_id"`
	IsFeatured       *bool               `json:"is_featured"`
}

// Moderation actions available to admins.
const (
	ModerationApprove = "approve"
	ModerationReject  = "reject"
	ModerationArchive = "archive"
)

func checkPricing(price float64, discount *float64) error {
	if discount != nil && *discount >= price {
		return invalidState("discount price must be lower than the price")
	}
	return nil
}

// uniqueSlug derives a slug from title, suffixing -1, -2, ... until unused.
func uniqueSlug(ctx context.Context, tx repository.Store, title string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "course"
	}
	slug := base
	for i := 1; ; i++ {
		taken, err := tx.Courses().SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func checkCategory(ctx context.Context, tx repository.Store, id *uint) error {
	if id == nil {
		return nil
	}
	_, err := tx.Categories().GetByID(ctx, *id)
	return lookup(err, "category")
}

// Create opens a draft course owned by user.
func (s *CourseService) Create(ctx context.Context, user *models.User, in CourseInput) (*models.Course, error) {
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		return nil, forbidden("only instructors can create courses")
	}
	if err := checkPricing(in.Price, in.DiscountPrice); err != nil {
		return nil, err
	}

	course := &models.Course{
		Title:            in.Title,
		ShortDescription: in.ShortDescription,
		Description:      utils.SanitizeHTML(in.Description),
		ThumbnailURL:     in.ThumbnailURL,
		PreviewVideoURL:  in.PreviewVideoURL,
		Price:            in.Price,
		DiscountPrice:    in.DiscountPrice,
		Level:            in.Level,
		Language:         in.Language,
		DurationHours:    in.DurationHours,
		Requirements:     in.Requirements,
		WhatYouLearn:     in.WhatYouLearn,
		TargetAudience:   in.TargetAudience,
		Status:           models.CourseDraft,
		InstructorID:     user.ID,
		CategoryID:       in.CategoryID,
	}
	if course.Level == "" {
		course.Level = models.LevelBeginner
	}
	if course.Language == "" {
		course.Language = "ru"
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := checkCategory(ctx, tx, in.CategoryID); err != nil {
			return err
		}
		slug, err := uniqueSlug(ctx, tx, in.Title)
		if err != nil {
			return err
		}
		course.Slug = slug
		if err := tx.Courses().Create(ctx, course); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalidState("course slug %q is already taken", slug)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"course_id": course.ID, "instructor_id": user.ID}).Info("Course created")
	return course, nil
}

// visible reports whether user may see a course in its current status.
func visible(user *models.User, course *models.Course) bool {
	return course.Status == models.CoursePublished || canManageCourse(user, course)
}

// Get returns a course. Drafts and archived courses are visible only to
// their authors; user may be nil.
func (s *CourseService) Get(ctx context.Context, user *models.User, id uint) (*models.Course, error) {
	course, err := s.store.Courses().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "course")
	}
	if !visible(user, course) {
		return nil, forbidden("course is not published")
	}
	return course, nil
}

func (s *CourseService) GetBySlug(ctx context.Context, user *models.User, slug string) (*models.Course, error) {
	course, err := s.store.Courses().GetBySlug(ctx, slug)
	if err != nil {
		return nil, lookup(err, "course")
	}
	if !visible(user, course) {
		return nil, forbidden("course is not published")
	}
	return course, nil
}

// Catalog lists published courses.
func (s *CourseService) Catalog(ctx context.Context, filter repository.CourseFilter) ([]models.Course, int64, error) {
	filter.Status = models.CoursePublished
	filter.InstructorID = 0
	return s.store.Courses().List(ctx, filter)
}

// ListMine lists every course of the instructor regardless of status.
func (s *CourseService) ListMine(ctx context.Context, user *models.User, page repository.Page) ([]models.Course, int64, error) {
	return s.store.Courses().List(ctx, repository.CourseFilter{
		InstructorID: user.ID,
		SortBy:       repository.SortNewest,
		Page:         page,
	})
}

// ByInstructor lists the published courses of one instructor.
func (s *CourseService) ByInstructor(ctx context.Context, instructorID uint, page repository.Page) ([]models.Course, int64, error) {
	if _, err := s.store.Users().GetByID(ctx, instructorID); err != nil {
		return nil, 0, lookup(err, "instructor")
	}
	return s.store.Courses().List(ctx, repository.CourseFilter{
		Status:       models.CoursePublished,
		InstructorID: instructorID,
		SortBy:       repository.SortNewest,
		Page:         page,
	})
}

// AdminList lists courses of any status.
func (s *CourseService) AdminList(ctx context.Context, user *models.User, filter repository.CourseFilter) ([]models.Course, int64, error) {
	if err := requireAdmin(user); err != nil {
		return nil, 0, err
	}
	return s.store.Courses().List(ctx, filter)
}

func (s *CourseService) Update(ctx context.Context, user *models.User, id uint, patch CoursePatch) (*models.Course, error) {
	var course *models.Course
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		course, err = managedCourse(ctx, tx, user, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			course.Title = *patch.Title
		}
		if patch.ShortDescription != nil {
			course.ShortDescription = *patch.ShortDescription
		}
		if patch.Description != nil {
			course.Description = utils.SanitizeHTML(*patch.Description)
		}
		if patch.ThumbnailURL != nil {
			course.ThumbnailURL = *patch.ThumbnailURL
		}
		if patch.PreviewVideoURL != nil {
			course.PreviewVideoURL = *patch.PreviewVideoURL
		}
		if patch.Price != nil {
			course.Price = *patch.Price
		}
		if patch.DiscountPrice != nil {
			course.DiscountPrice = patch.DiscountPrice
		}
		if patch.Level != nil {
			course.Level = *patch.Level
		}
		if patch.Language != nil {
			course.Language = *patch.Language
		}
		if patch.DurationHours != nil {
			course.DurationHours = *patch.DurationHours
		}
		if patch.Requirements != nil {
			course.Requirements = *patch.Requirements
		}
		if patch.WhatYouLearn != nil {
			course.WhatYouLearn = *patch.WhatYouLearn
		}
		if patch.TargetAudience != nil {
			course.TargetAudience = *patch.TargetAudience
		}
		if patch.CategoryID != nil {
			if err := checkCategory(ctx, tx, patch.CategoryID); err != nil {
				return err
			}
			course.CategoryID = patch.CategoryID
			course.Category = nil
		}
		if patch.IsFeatured != nil {
			if !isAdmin(user) {
				return forbidden("only administrators can feature courses")
			}
			course.IsFeatured = *patch.IsFeatured
		}
		if err := checkPricing(course.Price, course.DiscountPrice); err != nil {
			return err
		}
		return tx.Courses().Update(ctx, course)
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) setStatus(ctx context.Context, tx repository.Store, course *models.Course, status models.CourseStatus) error {
	course.Status = status
	course.IsPublished = status == models.CoursePublished
	if course.IsPublished && course.PublishedAt == nil {
		now := time.Now()
		course.PublishedAt = &now
	}
	return tx.Courses().Update(ctx, course)
}

// Publish makes a course visible in the catalog and open for enrollment.
func (s *CourseService) Publish(ctx context.Context, user *models.User, id uint) (*models.Course, error) {
	return s.transition(ctx, user, id, models.CoursePublished)
}

func (s *CourseService) Archive(ctx context.Context, user *models.User, id uint) (*models.Course, error) {
	return s.transition(ctx, user, id, models.CourseArchived)
}

func (s *CourseService) transition(ctx context.Context, user *models.User, id uint, status models.CourseStatus) (*models.Course, error) {
	var course *models.Course
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		course, err = managedCourse(ctx, tx, user, id)
		if err != nil {
			return err
		}
		return s.setStatus(ctx, tx, course, status)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"course_id": id, "status": status, "by_user": user.ID}).Info("Course status changed")
	return course, nil
}

// Moderate applies an admin decision: approve publishes, reject sends the
// course back to draft, archive retires it.
func (s *CourseService) Moderate(ctx context.Context, user *models.User, id uint, action string) (*models.Course, error) {
	if err := requireAdmin(user); err != nil {
		return nil, err
	}
	switch action {
	case ModerationApprove:
		return s.transition(ctx, user, id, models.CoursePublished)
	case ModerationReject:
		return s.transition(ctx, user, id, models.CourseDraft)
	case ModerationArchive:
		return s.transition(ctx, user, id, models.CourseArchived)
	}
	return nil, invalidInput("unknown moderation action %q", action)
}

// Delete removes a course that nobody has enrolled in.
func (s *CourseService) Delete(ctx context.Context, user *models.User, id uint) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := managedCourse(ctx, tx, user, id); err != nil {
			return err
		}
		enrolled, err := tx.Enrollments().Exists(ctx, id)
		if err != nil {
			return err
		}
		if enrolled {
			return invalidState("course has enrollments and cannot be deleted, archive it instead")
		}
		return lookup(tx.Courses().Delete(ctx, id), "course")
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"course_id": id, "by_user": user.ID}).Info("Course deleted")
	return nil
}
