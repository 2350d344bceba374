package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

func TestAdminCannotTargetSelf(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Admin.ChangeRole(f.ctx, f.admin, f.admin.ID, models.RoleStudent)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.Admin.SetActive(f.ctx, f.admin, f.admin.ID, false)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, f.svc.Admin.DeleteUser(f.ctx, f.admin, f.admin.ID), ErrInvalidState)

	_, err = f.svc.Admin.ChangeRole(f.ctx, f.instructor, f.student.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminUserManagement(t *testing.T) {
	f := newFixture(t)

	promoted, err := f.svc.Admin.ChangeRole(f.ctx, f.admin, f.student.ID, models.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, promoted.Role)

	verified, err := f.svc.Admin.SetVerified(f.ctx, f.admin, f.student.ID, true)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	users, total, err := f.svc.Admin.ListUsers(f.ctx, f.admin, repository.UserFilter{Role: models.RoleInstructor})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	_, _, err = f.svc.Admin.ListUsers(f.ctx, f.admin, repository.UserFilter{Role: "pirate"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteInstructorWithCourses(t *testing.T) {
	f := newFixture(t)
	f.course(t, "Go Basics", 0)

	assert.ErrorIs(t, f.svc.Admin.DeleteUser(f.ctx, f.admin, f.instructor.ID), ErrInvalidState)

	require.NoError(t, f.svc.Admin.DeleteUser(f.ctx, f.admin, f.student.ID))
	_, err := f.svc.Admin.GetUser(f.ctx, f.admin, f.student.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlatformStatistics(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	_, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: "Draft"})
	require.NoError(t, err)
	f.enroll(t, f.student, course.ID)

	_, err = f.svc.Admin.Statistics(f.ctx, f.student)
	assert.ErrorIs(t, err, ErrForbidden)

	stats, err := f.svc.Admin.Statistics(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.UsersByRole[models.RoleStudent])
	assert.Equal(t, int64(2), stats.TotalCourses)
	assert.Equal(t, int64(1), stats.CoursesByStatus[models.CoursePublished])
	assert.Equal(t, int64(1), stats.TotalEnrollments)
	require.NotEmpty(t, stats.TopCourses)
	assert.Equal(t, course.ID, stats.TopCourses[0].ID)
}

func TestDashboards(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Go Basics", 0)
	f.enroll(t, f.student, course.ID)

	d, err := f.svc.Dashboard.For(f.ctx, f.student)
	require.NoError(t, err)
	student, ok := d.(models.StudentDashboard)
	require.True(t, ok)
	assert.Equal(t, int64(1), student.Statistics.TotalEnrolled)
	assert.Len(t, student.ActiveCourses, 1)

	d, err = f.svc.Dashboard.For(f.ctx, f.instructor)
	require.NoError(t, err)
	instructor, ok := d.(models.InstructorDashboard)
	require.True(t, ok)
	assert.Equal(t, int64(1), instructor.TotalCourses)
	assert.Equal(t, int64(1), instructor.Published)
	assert.Equal(t, int64(1), instructor.TotalStudents)

	d, err = f.svc.Dashboard.For(f.ctx, f.admin)
	require.NoError(t, err)
	_, ok = d.(models.AdminDashboard)
	assert.True(t, ok)
}
