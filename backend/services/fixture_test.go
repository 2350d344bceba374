package services

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"coursemarket/backend/config"
	"coursemarket/backend/models"
	"coursemarket/backend/repository/repotest"
	"coursemarket/backend/utils"
)

type fixture struct {
	ctx        context.Context
	store      *repotest.Store
	svc        *Services
	admin      *models.User
	instructor *models.User
	student    *models.User
	seq        int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := repotest.NewStore()
	jwt := utils.NewJWTManager(&config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})

	f := &fixture{
		ctx:   context.Background(),
		store: store,
		svc:   New(store, NewUserTokenStore(store), jwt, log),
	}
	f.admin = f.user(t, models.RoleAdmin)
	f.instructor = f.user(t, models.RoleInstructor)
	f.student = f.user(t, models.RoleStudent)
	return f
}

func (f *fixture) user(t *testing.T, role models.Role) *models.User {
	t.Helper()
	f.seq++
	u := &models.User{
		Email:        fmt.Sprintf("%s%d@example.com", role, f.seq),
		Username:     fmt.Sprintf("%s%d", role, f.seq),
		PasswordHash: "not-a-hash",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return u
}

// course creates and publishes a course of the fixture instructor.
func (f *fixture) course(t *testing.T, title string, price float64) *models.Course {
	t.Helper()
	c, err := f.svc.Courses.Create(f.ctx, f.instructor, CourseInput{Title: title, Price: price})
	require.NoError(t, err)
	c, err = f.svc.Courses.Publish(f.ctx, f.instructor, c.ID)
	require.NoError(t, err)
	return c
}

func (f *fixture) lessons(t *testing.T, courseID uint, n int, published bool) []models.Lesson {
	t.Helper()
	out := make([]models.Lesson, 0, n)
	for i := 0; i < n; i++ {
		l, err := f.svc.Lessons.Create(f.ctx, f.instructor, LessonInput{
			CourseID:    courseID,
			Title:       fmt.Sprintf("Lesson %d", i+1),
			IsPublished: published,
		})
		require.NoError(t, err)
		out = append(out, *l)
	}
	return out
}

func (f *fixture) enroll(t *testing.T, student *models.User, courseID uint) *models.Enrollment {
	t.Helper()
	e, err := f.svc.Enrollments.Enroll(f.ctx, student, courseID)
	require.NoError(t, err)
	return e
}

func (f *fixture) enrollment(t *testing.T, student *models.User, courseID uint) *models.Enrollment {
	t.Helper()
	e, err := f.store.Enrollments().Get(f.ctx, student.ID, courseID)
	require.NoError(t, err)
	return e
}

func (f *fixture) reload(t *testing.T, courseID uint) *models.Course {
	t.Helper()
	c, err := f.store.Courses().GetByID(f.ctx, courseID)
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }
