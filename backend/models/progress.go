package models

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
	// EnrollmentExpired has no transition into it yet; reserved for time-boxed access.
	EnrollmentExpired EnrollmentStatus = "expired"
)

func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentActive, EnrollmentCompleted, EnrollmentDropped, EnrollmentExpired:
		return true
	}
	return false
}

// Enrollment is the single row tying a student to a course.
type Enrollment struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	StudentID          uint             `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID           uint             `gorm:"not null;uniqueIndex:idx_enrollment_student_course;index" json:"course_id"`
	Status             EnrollmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ProgressPercentage float64          `gorm:"not null;default:0" json:"progress_percentage"`
	CompletedLessons   int              `gorm:"not null;default:0" json:"completed_lessons"`
	PricePaid          float64          `gorm:"not null;default:0" json:"price_paid"`
	IsPaid             bool             `gorm:"not null" json:"is_paid"`
	EnrolledAt         time.Time        `gorm:"not null" json:"enrolled_at"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	LastAccessedAt     *time.Time       `json:"last_accessed_at,omitempty"`
	CreatedAt          time.Time        `json:"-"`
	UpdatedAt          time.Time        `json:"-"`

	Student *User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Course  *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}

func (e *Enrollment) HasAccess() bool {
	return e.Status == EnrollmentActive
}

type Progress struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	StudentID            uint       `gorm:"not null;uniqueIndex:idx_progress_student_lesson" json:"student_id"`
	LessonID             uint       `gorm:"not null;uniqueIndex:idx_progress_student_lesson;index" json:"lesson_id"`
	IsCompleted          bool       `gorm:"not null" json:"is_completed"`
	CompletionPercentage float64    `gorm:"not null;default:0" json:"completion_percentage"`
	TimeSpent            int        `gorm:"not null;default:0" json:"time_spent"`
	StartedAt            time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	LastAccessedAt       time.Time  `gorm:"not null" json:"last_accessed_at"`
	CreatedAt            time.Time  `json:"-"`
	UpdatedAt            time.Time  `json:"-"`

	Student *User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Lesson  *Lesson `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Progress) TableName() string {
	return "lesson_progress"
}

// LessonProgress pairs a lesson outline with the caller's progress on it.
type LessonProgress struct {
	LessonID             uint       `json:"lesson_id"`
	LessonTitle          string     `json:"lesson_title"`
	LessonOrder          int        `json:"lesson_order"`
	IsCompleted          bool       `json:"is_completed"`
	CompletionPercentage float64    `json:"completion_percentage"`
	TimeSpent            int        `json:"time_spent"`
	LastAccessedAt       *time.Time `json:"last_accessed_at,omitempty"`
}

type CourseProgressSummary struct {
	CourseID           uint       `json:"course_id"`
	CourseTitle        string     `json:"course_title"`
	TotalLessons       int64      `json:"total_lessons"`
	CompletedLessons   int64      `json:"completed_lessons"`
	ProgressPercentage float64    `json:"progress_percentage"`
	TotalTimeSpent     int64      `json:"total_time_spent"`
	Status             string     `json:"status"`
	LastAccessedAt     *time.Time `json:"last_accessed_at,omitempty"`
}

type StudentStatistics struct {
	TotalEnrolled         int64   `json:"total_enrolled"`
	CompletedCourses      int64   `json:"completed_courses"`
	InProgressCourses     int64   `json:"in_progress_courses"`
	TotalLessonsCompleted int64   `json:"total_lessons_completed"`
	TotalTimeSpent        int64   `json:"total_time_spent"`
	AverageProgress       float64 `json:"average_progress"`
}
