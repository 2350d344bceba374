package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/metrics"
	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type EnrollmentService struct {
	store repository.Store
	log   *logrus.Logger
}

func NewEnrollmentService(store repository.Store, log *logrus.Logger) *EnrollmentService {
	return &EnrollmentService{store: store, log: log}
}

// EnrollmentCheck answers "am I enrolled in this course" for the catalog UI.
type EnrollmentCheck struct {
	IsEnrolled         bool                    `json:"is_enrolled"`
	HasAccess          bool                    `json:"has_access"`
	EnrollmentID       uint                    `json:"enrollment_id,omitempty"`
	Status             models.EnrollmentStatus `json:"status,omitempty"`
	ProgressPercentage float64                 `json:"progress_percentage"`
}

// Enroll creates an active enrollment of student in a published course.
// The student must not already hold an enrollment of any status.
func (s *EnrollmentService) Enroll(ctx context.Context, student *models.User, courseID uint) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		course, err := tx.Courses().GetByID(ctx, courseID)
		if err != nil {
			return lookup(err, "course")
		}
		if course.Status != models.CoursePublished || !course.IsPublished {
			return invalidState("course is not available for enrollment")
		}

		enrolled, err := isEnrolled(ctx, tx, student.ID, courseID)
		if err != nil {
			return err
		}
		if enrolled {
			return invalidState("you are already enrolled in this course")
		}

		now := time.Now()
		enrollment = &models.Enrollment{
			StudentID:      student.ID,
			CourseID:       courseID,
			Status:         models.EnrollmentActive,
			PricePaid:      course.EffectivePrice(),
			IsPaid:         course.Price == 0,
			EnrolledAt:     now,
			LastAccessedAt: &now,
		}
		if err := tx.Enrollments().Create(ctx, enrollment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return invalidState("you are already enrolled in this course")
			}
			return err
		}
		if err := tx.Courses().AdjustStudents(ctx, courseID, 1); err != nil {
			return err
		}
		enrollment.Course = course
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EnrollmentEvents.WithLabelValues("enrolled").Inc()
	s.log.WithFields(logrus.Fields{
		"student_id": student.ID,
		"course_id":  courseID,
	}).Info("Student enrolled")
	return enrollment, nil
}

// Get returns an enrollment visible to its student, the course instructor
// or an admin.
func (s *EnrollmentService) Get(ctx context.Context, user *models.User, id uint) (*models.Enrollment, error) {
	enrollment, err := s.store.Enrollments().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "enrollment")
	}
	if enrollment.StudentID != user.ID && !canManageCourse(user, enrollment.Course) {
		return nil, forbidden("you cannot view this enrollment")
	}
	return enrollment, nil
}

func (s *EnrollmentService) ListMine(ctx context.Context, student *models.User, status models.EnrollmentStatus) ([]models.Enrollment, error) {
	if status != "" && !status.Valid() {
		return nil, invalidInput("unknown enrollment status %q", status)
	}
	return s.store.Enrollments().ListByStudent(ctx, student.ID, status)
}

func (s *EnrollmentService) Check(ctx context.Context, student *models.User, courseID uint) (*EnrollmentCheck, error) {
	enrollment, err := s.store.Enrollments().Get(ctx, student.ID, courseID)
	if isMissing(err) {
		return &EnrollmentCheck{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &EnrollmentCheck{
		IsEnrolled:         true,
		HasAccess:          enrollment.HasAccess(),
		EnrollmentID:       enrollment.ID,
		Status:             enrollment.Status,
		ProgressPercentage: enrollment.ProgressPercentage,
	}, nil
}

// Cancel drops an active enrollment. Allowed for the enrolled student and
// admins.
func (s *EnrollmentService) Cancel(ctx context.Context, user *models.User, id uint) error {
	var enrollment *models.Enrollment
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		enrollment, err = tx.Enrollments().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "enrollment")
		}
		if enrollment.StudentID != user.ID && !isAdmin(user) {
			return forbidden("you cannot cancel this enrollment")
		}
		if enrollment.Status != models.EnrollmentActive {
			return invalidState("only active enrollments can be cancelled")
		}

		enrollment.Status = models.EnrollmentDropped
		enrollment.Course = nil
		if err := tx.Enrollments().Update(ctx, enrollment); err != nil {
			return err
		}
		return tx.Courses().AdjustStudents(ctx, enrollment.CourseID, -1)
	})
	if err != nil {
		return err
	}

	metrics.EnrollmentEvents.WithLabelValues("dropped").Inc()
	s.log.WithFields(logrus.Fields{
		"enrollment_id": id,
		"course_id":     enrollment.CourseID,
		"by_user":       user.ID,
	}).Info("Enrollment cancelled")
	return nil
}

// Complete lets a student close an enrollment whose progress reached 100%.
func (s *EnrollmentService) Complete(ctx context.Context, student *models.User, id uint) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		enrollment, err = tx.Enrollments().GetByID(ctx, id)
		if err != nil {
			return lookup(err, "enrollment")
		}
		if enrollment.StudentID != student.ID {
			return forbidden("you cannot complete this enrollment")
		}
		switch enrollment.Status {
		case models.EnrollmentCompleted:
			return nil
		case models.EnrollmentActive:
		default:
			return invalidState("enrollment is %s", enrollment.Status)
		}
		if enrollment.ProgressPercentage < 100 {
			return invalidState("course progress is %.2f%%, all lessons must be completed first", enrollment.ProgressPercentage)
		}

		now := time.Now()
		enrollment.Status = models.EnrollmentCompleted
		if enrollment.CompletedAt == nil {
			enrollment.CompletedAt = &now
		}
		course := enrollment.Course
		enrollment.Course = nil
		if err := tx.Enrollments().Update(ctx, enrollment); err != nil {
			return err
		}
		enrollment.Course = course
		metrics.EnrollmentEvents.WithLabelValues("completed").Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// CourseStudents lists the enrollments of a course for its instructor.
func (s *EnrollmentService) CourseStudents(ctx context.Context, user *models.User, courseID uint, page repository.Page) ([]models.Enrollment, int64, error) {
	if _, err := managedCourse(ctx, s.store, user, courseID); err != nil {
		return nil, 0, err
	}
	return s.store.Enrollments().ListByCourse(ctx, courseID, page)
}

func (s *EnrollmentService) CourseStatistics(ctx context.Context, user *models.User, courseID uint) (*models.EnrollmentStatistics, error) {
	if _, err := managedCourse(ctx, s.store, user, courseID); err != nil {
		return nil, err
	}
	counts, err := s.store.Enrollments().CountByStatus(ctx, courseID)
	if err != nil {
		return nil, err
	}
	avg, err := s.store.Enrollments().AverageProgress(ctx, courseID)
	if err != nil {
		return nil, err
	}

	stats := &models.EnrollmentStatistics{
		CourseID:          courseID,
		ActiveStudents:    counts[models.EnrollmentActive],
		CompletedStudents: counts[models.EnrollmentCompleted],
		DroppedStudents:   counts[models.EnrollmentDropped],
		AverageProgress:   round2(avg),
	}
	for _, n := range counts {
		stats.TotalEnrollments += n
	}
	if stats.TotalEnrollments > 0 {
		stats.CompletionRate = round2(float64(stats.CompletedStudents) / float64(stats.TotalEnrollments) * 100)
	}
	return stats, nil
}
