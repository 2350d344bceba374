package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"coursemarket/backend/metrics"
	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type ProgressService struct {
	store repository.Store
	log   *logrus.Logger
}

func NewProgressService(store repository.Store, log *logrus.Logger) *ProgressService {
	return &ProgressService{store: store, log: log}
}

// ProgressUpdate is a partial update of a lesson progress row. Nil fields
// are left untouched.
type ProgressUpdate struct {
	IsCompleted          *bool    `json:"is_completed"`
	CompletionPercentage *float64 `json:"completion_percentage" validate:"omitempty,gte=0,lte=100"`
	TimeSpent            *int     `json:"time_spent" validate:"omitempty,gte=0"`
}

// StartLesson records that the student opened a lesson. The second result is
// true when a new progress row was created; on re-entry only the access time
// is refreshed.
func (s *ProgressService) StartLesson(ctx context.Context, student *models.User, lessonID uint) (*models.Progress, bool, error) {
	var (
		progress *models.Progress
		created  bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByID(ctx, lessonID)
		if err != nil {
			return lookup(err, "lesson")
		}
		if _, err := activeEnrollment(ctx, tx, student.ID, lesson.CourseID); err != nil {
			return err
		}

		now := time.Now()
		progress, err = tx.Progress().Get(ctx, student.ID, lessonID)
		if err == nil {
			progress.LastAccessedAt = now
			return tx.Progress().Update(ctx, progress)
		}
		if !isMissing(err) {
			return err
		}

		progress = &models.Progress{
			StudentID:      student.ID,
			LessonID:       lessonID,
			StartedAt:      now,
			LastAccessedAt: now,
		}
		created = true
		return tx.Progress().Create(ctx, progress)
	})
	if err != nil {
		return nil, false, err
	}
	return progress, created, nil
}

// UpdateLesson applies a partial update to an existing progress row and
// recomputes the enrollment. time_spent never decreases and completed_at is
// stamped only once.
func (s *ProgressService) UpdateLesson(ctx context.Context, student *models.User, lessonID uint, upd ProgressUpdate) (*models.Progress, error) {
	if upd.CompletionPercentage != nil && (*upd.CompletionPercentage < 0 || *upd.CompletionPercentage > 100) {
		return nil, invalidInput("completion_percentage must be between 0 and 100")
	}
	if upd.TimeSpent != nil && *upd.TimeSpent < 0 {
		return nil, invalidInput("time_spent must not be negative")
	}

	var progress *models.Progress
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByID(ctx, lessonID)
		if err != nil {
			return lookup(err, "lesson")
		}
		progress, err = tx.Progress().Get(ctx, student.ID, lessonID)
		if isMissing(err) {
			return notFound("lesson progress not found, start the lesson first")
		}
		if err != nil {
			return err
		}

		now := time.Now()
		wasCompleted := progress.IsCompleted
		if upd.IsCompleted != nil {
			progress.IsCompleted = *upd.IsCompleted
			if progress.IsCompleted && progress.CompletedAt == nil {
				progress.CompletedAt = &now
			}
		}
		if upd.CompletionPercentage != nil {
			progress.CompletionPercentage = *upd.CompletionPercentage
		}
		if upd.TimeSpent != nil && *upd.TimeSpent > progress.TimeSpent {
			progress.TimeSpent = *upd.TimeSpent
		}
		progress.LastAccessedAt = now
		if err := tx.Progress().Update(ctx, progress); err != nil {
			return err
		}
		if progress.IsCompleted && !wasCompleted {
			metrics.LessonCompletions.Inc()
		}
		_, err = s.recompute(ctx, tx, student.ID, lesson.CourseID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// CompleteLesson marks a lesson fully completed, creating the progress row
// when the student never started it. The refreshed enrollment is returned
// alongside.
func (s *ProgressService) CompleteLesson(ctx context.Context, student *models.User, lessonID uint) (*models.Progress, *models.Enrollment, error) {
	var (
		progress   *models.Progress
		enrollment *models.Enrollment
		finished   bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByID(ctx, lessonID)
		if err != nil {
			return lookup(err, "lesson")
		}

		now := time.Now()
		progress, err = tx.Progress().Get(ctx, student.ID, lessonID)
		switch {
		case isMissing(err):
			if _, err := activeEnrollment(ctx, tx, student.ID, lesson.CourseID); err != nil {
				return err
			}
			progress = &models.Progress{
				StudentID: student.ID,
				LessonID:  lessonID,
				StartedAt: now,
			}
		case err != nil:
			return err
		case progress.IsCompleted:
			progress.LastAccessedAt = now
			if err := tx.Progress().Update(ctx, progress); err != nil {
				return err
			}
			enrollment, err = tx.Enrollments().Get(ctx, student.ID, lesson.CourseID)
			if isMissing(err) {
				return nil
			}
			return err
		}

		progress.IsCompleted = true
		progress.CompletionPercentage = 100
		if progress.CompletedAt == nil {
			progress.CompletedAt = &now
		}
		progress.LastAccessedAt = now
		if progress.ID == 0 {
			err = tx.Progress().Create(ctx, progress)
		} else {
			err = tx.Progress().Update(ctx, progress)
		}
		if err != nil {
			return err
		}
		metrics.LessonCompletions.Inc()

		enrollment, err = tx.Enrollments().Get(ctx, student.ID, lesson.CourseID)
		if isMissing(err) {
			return nil
		}
		if err != nil {
			return err
		}
		finished, err = recomputeEnrollment(ctx, tx, enrollment, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if finished {
		metrics.EnrollmentEvents.WithLabelValues("completed").Inc()
		s.log.WithFields(logrus.Fields{
			"student_id": student.ID,
			"course_id":  enrollment.CourseID,
		}).Info("Course completed")
	}
	return progress, enrollment, nil
}

func (s *ProgressService) recompute(ctx context.Context, tx repository.Store, studentID, courseID uint, now time.Time) (*models.Enrollment, error) {
	enrollment, err := tx.Enrollments().Get(ctx, studentID, courseID)
	if isMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	finished, err := recomputeEnrollment(ctx, tx, enrollment, now)
	if err != nil {
		return nil, err
	}
	if finished {
		metrics.EnrollmentEvents.WithLabelValues("completed").Inc()
		s.log.WithFields(logrus.Fields{
			"student_id": studentID,
			"course_id":  courseID,
		}).Info("Course completed")
	}
	return enrollment, nil
}

// RecomputeEnrollment refreshes the derived progress fields of one
// enrollment from the student's lesson progress.
func (s *ProgressService) RecomputeEnrollment(ctx context.Context, studentID, courseID uint) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		enrollment, err = s.recompute(ctx, tx, studentID, courseID, time.Now())
		return err
	})
	return enrollment, err
}

// CourseProgress lists the published lessons of a course with the student's
// progress on each.
func (s *ProgressService) CourseProgress(ctx context.Context, student *models.User, courseID uint) ([]models.LessonProgress, error) {
	course, err := s.store.Courses().GetByID(ctx, courseID)
	if err != nil {
		return nil, lookup(err, "course")
	}
	if !canManageCourse(student, course) {
		enrolled, err := isEnrolled(ctx, s.store, student.ID, courseID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, forbidden("you are not enrolled in this course")
		}
	}

	lessons, err := s.store.Lessons().ListByCourse(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Progress().ListByCourse(ctx, student.ID, courseID)
	if err != nil {
		return nil, err
	}
	byLesson := make(map[uint]models.Progress, len(rows))
	for _, p := range rows {
		byLesson[p.LessonID] = p
	}

	out := make([]models.LessonProgress, 0, len(lessons))
	for _, l := range lessons {
		item := models.LessonProgress{
			LessonID:    l.ID,
			LessonTitle: l.Title,
			LessonOrder: l.Order,
		}
		if p, ok := byLesson[l.ID]; ok {
			accessed := p.LastAccessedAt
			item.IsCompleted = p.IsCompleted
			item.CompletionPercentage = p.CompletionPercentage
			item.TimeSpent = p.TimeSpent
			item.LastAccessedAt = &accessed
		}
		out = append(out, item)
	}
	return out, nil
}

// MyCourses summarizes the progress of every enrollment of the student.
func (s *ProgressService) MyCourses(ctx context.Context, student *models.User) ([]models.CourseProgressSummary, error) {
	enrollments, err := s.store.Enrollments().ListByStudent(ctx, student.ID, "")
	if err != nil {
		return nil, err
	}
	out := make([]models.CourseProgressSummary, 0, len(enrollments))
	for _, e := range enrollments {
		summary, err := s.summarize(ctx, &e)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *ProgressService) summarize(ctx context.Context, e *models.Enrollment) (models.CourseProgressSummary, error) {
	total, err := s.store.Lessons().Count(ctx, e.CourseID, true)
	if err != nil {
		return models.CourseProgressSummary{}, err
	}
	completed, err := s.store.Progress().CountCompleted(ctx, e.StudentID, e.CourseID)
	if err != nil {
		return models.CourseProgressSummary{}, err
	}
	spent, err := s.store.Progress().TimeSpent(ctx, e.StudentID, e.CourseID)
	if err != nil {
		return models.CourseProgressSummary{}, err
	}

	summary := models.CourseProgressSummary{
		CourseID:           e.CourseID,
		TotalLessons:       total,
		CompletedLessons:   completed,
		ProgressPercentage: progressPercentage(completed, total),
		TotalTimeSpent:     spent,
		Status:             string(e.Status),
		LastAccessedAt:     e.LastAccessedAt,
	}
	if e.Course != nil {
		summary.CourseTitle = e.Course.Title
	}
	return summary, nil
}

func (s *ProgressService) Statistics(ctx context.Context, student *models.User) (*models.StudentStatistics, error) {
	enrollments, err := s.store.Enrollments().ListByStudent(ctx, student.ID, "")
	if err != nil {
		return nil, err
	}
	completed, spent, err := s.store.Progress().StudentTotals(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	stats := &models.StudentStatistics{
		TotalEnrolled:         int64(len(enrollments)),
		TotalLessonsCompleted: completed,
		TotalTimeSpent:        spent,
	}
	var sum float64
	for _, e := range enrollments {
		switch e.Status {
		case models.EnrollmentCompleted:
			stats.CompletedCourses++
		case models.EnrollmentActive:
			stats.InProgressCourses++
		}
		sum += e.ProgressPercentage
	}
	if len(enrollments) > 0 {
		stats.AverageProgress = round2(sum / float64(len(enrollments)))
	}
	return stats, nil
}
