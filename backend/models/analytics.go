package models

type EnrollmentStatistics struct {
	CourseID          uint    `json:"course_id"`
	TotalEnrollments  int64   `json:"total_enrollments"`
	ActiveStudents    int64   `json:"active_students"`
	CompletedStudents int64   `json:"completed_students"`
	DroppedStudents   int64   `json:"dropped_students"`
	CompletionRate    float64 `json:"completion_rate"`
	AverageProgress   float64 `json:"average_progress"`
}

type CourseRanking struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	TotalStudents int     `json:"total_students"`
	AverageRating float64 `json:"average_rating"`
}

type PlatformStatistics struct {
	TotalUsers            int64                      `json:"total_users"`
	UsersByRole           map[Role]int64             `json:"users_by_role"`
	TotalCourses          int64                      `json:"total_courses"`
	CoursesByStatus       map[CourseStatus]int64     `json:"courses_by_status"`
	TotalEnrollments      int64                      `json:"total_enrollments"`
	EnrollmentsByStatus   map[EnrollmentStatus]int64 `json:"enrollments_by_status"`
	AverageCompletionRate float64                    `json:"average_completion_rate"`
	TotalReviews          int64                      `json:"total_reviews"`
	TotalQuizAttempts     int64                      `json:"total_quiz_attempts"`
	QuizPassRate          float64                    `json:"quiz_pass_rate"`
	TopCourses            []CourseRanking            `json:"top_courses"`
}

// Dashboard is one of StudentDashboard, InstructorDashboard or AdminDashboard.
type Dashboard interface {
	dashboardRole() Role
}

type StudentDashboard struct {
	Role           Role                    `json:"role"`
	Statistics     StudentStatistics       `json:"statistics"`
	ActiveCourses  []CourseProgressSummary `json:"active_courses"`
	RecentAttempts []QuizAttempt           `json:"recent_attempts"`
}

func (StudentDashboard) dashboardRole() Role { return RoleStudent }

type InstructorDashboard struct {
	Role          Role     `json:"role"`
	TotalCourses  int64    `json:"total_courses"`
	Published     int64    `json:"published_courses"`
	Drafts        int64    `json:"draft_courses"`
	TotalStudents int64    `json:"total_students"`
	TotalReviews  int64    `json:"total_reviews"`
	AverageRating float64  `json:"average_rating"`
	Courses       []Course `json:"courses"`
}

func (InstructorDashboard) dashboardRole() Role { return RoleInstructor }

type AdminDashboard struct {
	Role       Role               `json:"role"`
	Statistics PlatformStatistics `json:"statistics"`
}

func (AdminDashboard) dashboardRole() Role { return RoleAdmin }
