package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/utils"
)

type ReviewService struct {
	store repository.Store
	log   *logrus.Logger
}

func NewReviewService(store repository.Store, log *logrus.Logger) *ReviewService {
	return &ReviewService{store: store, log: log}
}

type ReviewInput struct {
	CourseID uint   `json:"course_id" validate:"required"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Title    string `json:"title" validate:"max=255"`
	Comment  string `json:"comment" validate:"max=5000"`
}

type ReviewPatch struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Title   *string `json:"title" validate:"omitempty,max=255"`
	Comment *string `json:"comment" validate:"omitempty,max=5000"`
}

func checkRating(rating int) error {
	if rating < 1 || rating > 5 {
		return invalidInput("rating must be between 1 and 5")
	}
	return nil
}

// Create posts the student's single review of a course they enrolled in.
// The course rating aggregates are refreshed in the same transaction.
func (s *ReviewService) Create(ctx context.Context, student *models.User, in ReviewInput) (*models.Review, error) {
	if err := checkRating(in.Rating); err != nil {
		return nil, err
	}
	review := &models.Review{
		StudentID: student.ID,
		CourseID:  in.CourseID,
		Rating:    in.Rating,
		Title:     utils.SanitizeText(in.Title),
		Comment:   utils.SanitizeText(in.Comment),
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Courses().GetByID(ctx, in.CourseID); err != nil {
			return lookup(err, "course")
		}
		enrolled, err := isEnrolled(ctx, tx, student.ID, in.CourseID)
		if err != nil {
			return err
		}
		if !enrolled {
			return forbidden("only enrolled students can review this course")
		}
		if _, err := tx.Reviews().Get(ctx, student.ID, in.CourseID); err == nil {
			return invalidState("you have already reviewed this course")
		} else if !isMissing(err) {
			return err
		}
		if err := tx.Reviews().Create(ctx, review); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalidState("you have already reviewed this course")
			}
			return err
		}
		return recomputeRating(ctx, tx, in.CourseID)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"course_id":  in.CourseID,
		"student_id": student.ID,
		"rating":     in.Rating,
	}).Info("Review created")
	return review, nil
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*models.Review, error) {
	review, err := s.store.Reviews().GetByID(ctx, id)
	return review, lookup(err, "review")
}

// Update lets the author revise their review.
func (s *ReviewService) Update(ctx context.Context, student *models.User, id uint, patch ReviewPatch) (*models.Review, error) {
	var review *models.Review
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		review, err = tx.Reviews().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "review")
		}
		if review.StudentID != student.ID {
			return forbidden("you can only edit your own review")
		}
		if patch.Rating != nil {
			if err := checkRating(*patch.Rating); err != nil {
				return err
			}
			review.Rating = *patch.Rating
		}
		if patch.Title != nil {
			review.Title = utils.SanitizeText(*patch.Title)
		}
		if patch.Comment != nil {
			review.Comment = utils.SanitizeText(*patch.Comment)
		}
		if err := tx.Reviews().Update(ctx, review); err != nil {
			return err
		}
		return recomputeRating(ctx, tx, review.CourseID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review; allowed for its author and admins.
func (s *ReviewService) Delete(ctx context.Context, user *models.User, id uint) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		review, err := tx.Reviews().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "review")
		}
		if review.StudentID != user.ID && !isAdmin(user) {
			return forbidden("you can only delete your own review")
		}
		if err := tx.Reviews().Delete(ctx, id); err != nil {
			return lookup(err, "review")
		}
		return recomputeRating(ctx, tx, review.CourseID)
	})
}

func (s *ReviewService) ListByCourse(ctx context.Context, courseID uint, filter repository.ReviewFilter) ([]models.Review, int64, error) {
	if _, err := s.store.Courses().GetByID(ctx, courseID); err != nil {
		return nil, 0, lookup(err, "course")
	}
	if filter.Rating != 0 {
		if err := checkRating(filter.Rating); err != nil {
			return nil, 0, err
		}
	}
	return s.store.Reviews().ListByCourse(ctx, courseID, filter)
}

func (s *ReviewService) ListMine(ctx context.Context, student *models.User) ([]models.Review, error) {
	return s.store.Reviews().ListByStudent(ctx, student.ID)
}

// Mine returns the caller's review of a course.
func (s *ReviewService) Mine(ctx context.Context, student *models.User, courseID uint) (*models.Review, error) {
	review, err := s.store.Reviews().Get(ctx, student.ID, courseID)
	if isMissing(err) {
		return nil, notFound("you have not reviewed this course")
	}
	return review, err
}

// Stats reports the rating aggregates and the per-star distribution, with
// every star from 1 to 5 present.
func (s *ReviewService) Stats(ctx context.Context, courseID uint) (*models.ReviewStats, error) {
	if _, err := s.store.Courses().GetByID(ctx, courseID); err != nil {
		return nil, lookup(err, "course")
	}
	avg, total, err := s.store.Reviews().Aggregate(ctx, courseID)
	if err != nil {
		return nil, err
	}
	dist, err := s.store.Reviews().Distribution(ctx, courseID)
	if err != nil {
		return nil, err
	}

	stats := &models.ReviewStats{
		CourseID:           courseID,
		TotalReviews:       total,
		AverageRating:      round2(avg),
		RatingDistribution: make(map[string]int64, 5),
	}
	for star := 1; star <= 5; star++ {
		stats.RatingDistribution[strconv.Itoa(star)] = dist[star]
	}
	return stats, nil
}
