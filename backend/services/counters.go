package services

import (
	"context"
	"math"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

// Derived counters are recomputed inside the transaction that changes their
// inputs.

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// progressPercentage is completed/total as a percentage, clamped to 100.
func progressPercentage(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	p := round2(float64(completed) / float64(total) * 100)
	if p > 100 {
		return 100
	}
	return p
}

func recomputeLessonCount(ctx context.Context, tx repository.Store, courseID uint) error {
	total, err := tx.Lessons().Count(ctx, courseID, true)
	if err != nil {
		return err
	}
	return tx.Courses().SetLessonCount(ctx, courseID, int(total))
}

func recomputeRating(ctx context.Context, tx repository.Store, courseID uint) error {
	avg, total, err := tx.Reviews().Aggregate(ctx, courseID)
	if err != nil {
		return err
	}
	return tx.Courses().SetRating(ctx, courseID, round2(avg), int(total))
}

// recomputeEnrollment refreshes completed_lessons and progress_percentage and
// moves an active enrollment to completed once it reaches 100%. It reports
// whether that transition happened.
func recomputeEnrollment(ctx context.Context, tx repository.Store, enrollment *models.Enrollment, now time.Time) (bool, error) {
	total, err := tx.Lessons().Count(ctx, enrollment.CourseID, true)
	if err != nil {
		return false, err
	}
	completed, err := tx.Progress().CountCompleted(ctx, enrollment.StudentID, enrollment.CourseID)
	if err != nil {
		return false, err
	}

	enrollment.CompletedLessons = int(completed)
	enrollment.ProgressPercentage = progressPercentage(completed, total)
	enrollment.LastAccessedAt = &now

	finished := false
	if enrollment.ProgressPercentage >= 100 && enrollment.Status == models.EnrollmentActive {
		enrollment.Status = models.EnrollmentCompleted
		if enrollment.CompletedAt == nil {
			enrollment.CompletedAt = &now
		}
		finished = true
	}
	return finished, tx.Enrollments().Update(ctx, enrollment)
}

// recomputeCourseEnrollments refreshes every enrollment of a course after its
// published lesson set changed.
func recomputeCourseEnrollments(ctx context.Context, tx repository.Store, courseID uint, now time.Time) error {
	enrollments, _, err := tx.Enrollments().ListByCourse(ctx, courseID, repository.Page{})
	if err != nil {
		return err
	}
	for i := range enrollments {
		e := enrollments[i]
		e.Student = nil
		if _, err := recomputeEnrollment(ctx, tx, &e, now); err != nil {
			return err
		}
	}
	return nil
}
