package services

import (
	"context"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

// canManageCourse reports whether user may author the course content:
// its own instructor or any admin.
func canManageCourse(user *models.User, course *models.Course) bool {
	if user == nil || course == nil {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	return user.Role == models.RoleInstructor && course.InstructorID == user.ID
}

func isAdmin(user *models.User) bool {
	return user != nil && user.Role == models.RoleAdmin
}

func requireAdmin(user *models.User) error {
	if !isAdmin(user) {
		return forbidden("administrator privileges required")
	}
	return nil
}

// managedCourse loads the course and checks that user may author it.
func managedCourse(ctx context.Context, tx repository.Store, user *models.User, courseID uint) (*models.Course, error) {
	course, err := tx.Courses().GetByID(ctx, courseID)
	if err != nil {
		return nil, lookup(err, "course")
	}
	if !canManageCourse(user, course) {
		return nil, forbidden("only the course instructor can modify this course")
	}
	return course, nil
}

// activeEnrollment returns the student's enrollment if it grants access.
func activeEnrollment(ctx context.Context, tx repository.Store, studentID, courseID uint) (*models.Enrollment, error) {
	enrollment, err := tx.Enrollments().Get(ctx, studentID, courseID)
	if isMissing(err) {
		return nil, forbidden("you are not enrolled in this course")
	}
	if err != nil {
		return nil, err
	}
	if !enrollment.HasAccess() {
		return nil, forbidden("your enrollment in this course is not active")
	}
	return enrollment, nil
}

// isEnrolled reports whether any enrollment, whatever its status, exists.
func isEnrolled(ctx context.Context, tx repository.Store, studentID, courseID uint) (bool, error) {
	_, err := tx.Enrollments().Get(ctx, studentID, courseID)
	if isMissing(err) {
		return false, nil
	}
	return err == nil, err
}
