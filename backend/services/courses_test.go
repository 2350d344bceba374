package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

func TestCourseSlugsAreUnique(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Go Basics"})
	require.NoError(t, err)
	second, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Go Basics"})
	require.NoError(t, err)
	third, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Go  basics!"})
	require.NoError(t, err)

	assert.Equal(t, "go-basics", first.Slug)
	assert.Equal(t, "go-basics-1", second.Slug)
	assert.Equal(t, "go-basics-2", third.Slug)
	assert.Equal(t, models.CourseDraft, first.Status)
	assert.False(t, first.IsPublished)
}

func TestCyrillicCourseSlugs(t *testing.T) {
	f := newFixture(t)

	basics, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Основы Python"})
	require.NoError(t, err)
	intro, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Введение в Python"})
	require.NoError(t, err)
	plain, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Программирование"})
	require.NoError(t, err)

	assert.Equal(t, "osnovy-python", basics.Slug)
	assert.Equal(t, "vvedenie-v-python", intro.Slug)
	assert.Equal(t, "programmirovanie", plain.Slug)
}

func TestCreateCourseRules(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Courses.Create(f.ctx, f.student, CourseInput{Title: "Nope"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Pricey", Price: 10, DiscountPrice: ptr(10.0)})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Lost", CategoryID: ptr(uint(404))})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCourseVisibility(t *testing.T) {
	f := newFixture(t)
	draft, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Draft"})
	require.NoError(t, err)

	_, err = f.svc.Courses.Get(f.ctx, nil, draft.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Courses.Get(f.ctx, f.student, draft.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Courses.Get(f.ctx, f.instructor, draft.ID)
	assert.NoError(t, err)

	published, err := f.svc.Courses.Publish(f.ctx, f.instructor, draft.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	require.NotNil(t, published.PublishedAt)

	got, err := f.svc.Courses.GetBySlug(f.ctx, nil, "draft")
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	list, total, err := f.svc.Courses.Catalog(f.ctx, repository.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}

func TestUpdateCourseOwnership(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 10)
	other := f.user(t, models.RoleInstructor)

	_, err := f.svc.Courses.Update(f.ctx, other, course.ID, CoursePatch{Title: ptr("Hijacked")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Courses.Update(f.ctx, f.instructor, course.ID, CoursePatch{DiscountPrice: ptr(15.0)})
	assert.ErrorIs(t, err, ErrInvalidState)

	updated, err := f.svc.Courses.Update(f.ctx, f.admin, course.ID, CoursePatch{Title: ptr("Go Basics 2"), IsFeatured: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Go Basics 2", updated.Title)
	assert.True(t, updated.IsFeatured)
	assert.Equal(t, "go-basics", updated.Slug)
}

func TestDeleteCourseWithEnrollments(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	f.enroll(t, f.student, course.ID)

	assert.ErrorIs(t, f.svc.Courses.Delete(f.ctx, f.instructor, course.ID), ErrInvalidState)

	empty := f.course(t, "Empty", 0)
	require.NoError(t, f.svc.Courses.Delete(f.ctx, f.instructor, empty.ID))
	_, err := f.store.Courses().GetByID(f.ctx, empty.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestModerateCourse(t *testing.T) {
	f := newFixture(t)
	course, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Review me"})
	require.NoError(t, err)

	_, err = f.svc.Courses.Moderate(f.ctx, f.instructor, course.ID, ModerationApprove)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := f.svc.Courses.Moderate(f.ctx, f.admin, course.ID, ModerationApprove)
	require.NoError(t, err)
	assert.Equal(t, models.CoursePublished, approved.Status)

	rejected, err := f.svc.Courses.Moderate(f.ctx, f.admin, course.ID, ModerationReject)
	require.NoError(t, err)
	assert.Equal(t, models.CourseDraft, rejected.Status)
	assert.False(t, rejected.IsPublished)

	_, err = f.svc.Courses.Moderate(f.ctx, f.admin, course.ID, "burn")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Categories.Create(f.ctx, f.instructor, CategoryInput{Name: "Programming"})
	assert.ErrorIs(t, err, ErrForbidden)

	cat, err := f.svc.Categories.Create(f.ctx, f.admin, CategoryInput{Name: "Programming"})
	require.NoError(t, err)
	assert.Equal(t, "programming", cat.Slug)
	assert.True(t, cat.IsActive)

	_, err = f.svc.Categories.Create(f.ctx, f.admin, CategoryInput{Name: "programming"})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Go", CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Categories.Delete(f.ctx, f.admin, cat.ID), ErrInvalidState)
}

func TestLessonOrdering(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	lessons := f.lessons(t, course.ID, 6, true)

	reordered, err := f.svc.Lessons.Reorder(f.ctx, f.instructor, lessons[4].ID, 2)
	require.NoError(t, err)
	titles := make([]string, len(reordered))
	for i, l := range reordered {
		assert.Equal(t, i+1, l.Order)
		titles[i] = l.Title
	}
	assert.Equal(t, []string{"Lesson 1", "Lesson 5", "Lesson 2", "Lesson 3", "Lesson 4", "Lesson 6"}, titles)

	reordered, err = f.svc.Lessons.Reorder(f.ctx, f.instructor, lessons[4].ID, 6)
	require.NoError(t, err)
	assert.Equal(t, "Lesson 5", reordered[5].Title)
	assert.Equal(t, "Lesson 6", reordered[4].Title)

	_, err = f.svc.Lessons.Reorder(f.ctx, f.instructor, lessons[0].ID, 7)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLessonInsertAndDelete(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	lessons := f.lessons(t, course.ID, 3, true)

	first, err := f.svc.Lessons.Create(f.ctx, f.instructor, LessonInput{CourseID: course.ID, Title: "Intro", Order: ptr(1), IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Order)
	assert.Equal(t, 4, f.reload(t, course.ID).TotalLessons)

	require.NoError(t, f.svc.Lessons.Delete(f.ctx, f.instructor, lessons[0].ID))
	all, err := f.svc.Lessons.ListByCourse(f.ctx, f.instructor, course.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, l := range all {
		assert.Equal(t, i+1, l.Order)
	}
	assert.Equal(t, []string{"Intro", "Lesson 2", "Lesson 3"}, []string{all[0].Title, all[1].Title, all[2].Title})
	assert.Equal(t, 3, f.reload(t, course.ID).TotalLessons)

	_, err = f.svc.Lessons.Create(f.ctx, f.instructor, LessonInput{CourseID: course.ID, Title: "Too far", Order: ptr(9)})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLessonAccess(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	preview, err := f.svc.Lessons.Create(f.ctx, f.instructor, LessonInput{CourseID: course.ID, Title: "Preview", Content: "hello", IsPublished: true, IsFreePreview: true})
	require.NoError(t, err)
	paid, err := f.svc.Lessons.Create(f.ctx, f.instructor, LessonInput{CourseID: course.ID, Title: "Paid", Content: "secret", IsPublished: true})
	require.NoError(t, err)

	got, err := f.svc.Lessons.Get(f.ctx, nil, preview.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)

	_, err = f.svc.Lessons.Get(f.ctx, nil, paid.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.Lessons.Get(f.ctx, f.student, paid.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	f.enroll(t, f.student, course.ID)
	got, err = f.svc.Lessons.Get(f.ctx, f.student, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Content)

	outline, err := f.svc.Lessons.ListByCourse(f.ctx, nil, course.ID)
	require.NoError(t, err)
	require.Len(t, outline, 2)
	assert.Empty(t, outline[1].Content)

	previews, err := f.svc.Lessons.Previews(f.ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, preview.ID, previews[0].ID)
}
