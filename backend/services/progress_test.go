package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/backend/models"
)

func TestCompletingLessonsDrivesEnrollmentProgress(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	lessons := f.lessons(t, course.ID, 4, true)
	f.enroll(t, f.student, course.ID)

	for _, l := range lessons[:3] {
		_, _, err := f.svc.Progress.CompleteLesson(f.ctx, f.student, l.ID)
		require.NoError(t, err)
	}
	e := f.enrollment(t, f.student, course.ID)
	assert.Equal(t, 75.0, e.ProgressPercentage)
	assert.Equal(t, 3, e.CompletedLessons)
	assert.Equal(t, models.EnrollmentActive, e.Status)
	assert.Nil(t, e.CompletedAt)

	_, e, err := f.svc.Progress.CompleteLesson(f.ctx, f.student, lessons[3].ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, e.ProgressPercentage)
	assert.Equal(t, models.EnrollmentCompleted, e.Status)
	require.NotNil(t, e.CompletedAt)

	stored := f.enrollment(t, f.student, course.ID)
	assert.Equal(t, models.EnrollmentCompleted, stored.Status)
}

func TestUnpublishedLessonsDoNotCount(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	published := f.lessons(t, course.ID, 2, true)
	f.lessons(t, course.ID, 1, false)
	f.enroll(t, f.student, course.ID)

	assert.Equal(t, 2, f.reload(t, course.ID).TotalLessons)

	for _, l := range published {
		_, _, err := f.svc.Progress.CompleteLesson(f.ctx, f.student, l.ID)
		require.NoError(t, err)
	}
	e := f.enrollment(t, f.student, course.ID)
	assert.Equal(t, 100.0, e.ProgressPercentage)
	assert.Equal(t, models.EnrollmentCompleted, e.Status)
}

func TestCompletedEnrollmentStaysCompleted(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	lessons := f.lessons(t, course.ID, 1, true)
	f.enroll(t, f.student, course.ID)

	_, _, err := f.svc.Progress.CompleteLesson(f.ctx, f.student, lessons[0].ID)
	require.NoError(t, err)

	// a new published lesson lowers the percentage but not the status
	f.lessons(t, course.ID, 1, true)
	e := f.enrollment(t, f.student, course.ID)
	assert.Equal(t, 50.0, e.ProgressPercentage)
	assert.Equal(t, models.EnrollmentCompleted, e.Status)
}

func TestStartLesson(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	lesson := f.lessons(t, course.ID, 1, true)[0]

	_, _, err := f.svc.Progress.StartLesson(f.ctx, f.student, lesson.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	f.enroll(t, f.student, course.ID)
	p, created, err := f.svc.Progress.StartLesson(f.ctx, f.student, lesson.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, p.IsCompleted)

	again, created, err := f.svc.Progress.StartLesson(f.ctx, f.student, lesson.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, again.ID)

	_, _, err = f.svc.Progress.StartLesson(f.ctx, f.student, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLessonProgress(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	lesson := f.lessons(t, course.ID, 2, true)[0]
	f.enroll(t, f.student, course.ID)

	_, err := f.svc.Progress.UpdateLesson(f.ctx, f.student, lesson.ID, ProgressUpdate{TimeSpent: ptr(10)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = f.svc.Progress.StartLesson(f.ctx, f.student, lesson.ID)
	require.NoError(t, err)

	p, err := f.svc.Progress.UpdateLesson(f.ctx, f.student, lesson.ID, ProgressUpdate{TimeSpent: ptr(120), CompletionPercentage: ptr(40.0)})
	require.NoError(t, err)
	assert.Equal(t, 120, p.TimeSpent)
	assert.Equal(t, 40.0, p.CompletionPercentage)

	p, err = f.svc.Progress.UpdateLesson(f.ctx, f.student, lesson.ID, ProgressUpdate{TimeSpent: ptr(60)})
	require.NoError(t, err)
	assert.Equal(t, 120, p.TimeSpent, "time spent never decreases")

	p, err = f.svc.Progress.UpdateLesson(f.ctx, f.student, lesson.ID, ProgressUpdate{IsCompleted: ptr(true)})
	require.NoError(t, err)
	require.NotNil(t, p.CompletedAt)
	first := *p.CompletedAt

	p, err = f.svc.Progress.UpdateLesson(f.ctx, f.student, lesson.ID, ProgressUpdate{IsCompleted: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, first, *p.CompletedAt)

	assert.Equal(t, 50.0, f.enrollment(t, f.student, course.ID).ProgressPercentage)

	_, err = f.svc.Progress.UpdateLesson(f.ctx, f.student, lesson.ID, ProgressUpdate{CompletionPercentage: ptr(120.0)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompleteLessonRequiresActiveEnrollment(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	lesson := f.lessons(t, course.ID, 1, true)[0]

	_, _, err := f.svc.Progress.CompleteLesson(f.ctx, f.student, lesson.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	e := f.enroll(t, f.student, course.ID)
	require.NoError(t, f.svc.Enrollments.Cancel(f.ctx, f.student, e.ID))
	_, _, err = f.svc.Progress.CompleteLesson(f.ctx, f.student, lesson.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestProgressViews(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	lessons := f.lessons(t, course.ID, 3, true)
	f.enroll(t, f.student, course.ID)

	_, _, err := f.svc.Progress.CompleteLesson(f.ctx, f.student, lessons[1].ID)
	require.NoError(t, err)

	items, err := f.svc.Progress.CourseProgress(f.ctx, f.student, course.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.False(t, items[0].IsCompleted)
	assert.True(t, items[1].IsCompleted)
	assert.Equal(t, 2, items[1].LessonOrder)

	summaries, err := f.svc.Progress.MyCourses(f.ctx, f.student)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(3), summaries[0].TotalLessons)
	assert.Equal(t, int64(1), summaries[0].CompletedLessons)
	assert.Equal(t, 33.33, summaries[0].ProgressPercentage)
	assert.Equal(t, "Go Basics", summaries[0].CourseTitle)

	stats, err := f.svc.Progress.Statistics(f.ctx, f.student)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalEnrolled)
	assert.Equal(t, int64(1), stats.InProgressCourses)
	assert.Equal(t, int64(1), stats.TotalLessonsCompleted)

	outsider := f.user(t, models.RoleStudent)
	_, err = f.svc.Progress.CourseProgress(f.ctx, outsider, course.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
