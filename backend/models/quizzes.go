package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionMultipleSelect QuestionType = "multiple_select"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionMultipleSelect, QuestionTrueFalse, QuestionShortAnswer:
		return true
	}
	return false
}

type Quiz struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	LessonID           uint      `gorm:"not null;index" json:"lesson_id"`
	Title              string    `gorm:"size:255;not null" json:"title"`
	Description        string    `gorm:"type:text" json:"description,omitempty"`
	PassingScore       float64   `gorm:"not null;default:70" json:"passing_score"`
	TimeLimit          *int      `json:"time_limit,omitempty"` // minutes, advisory
	MaxAttempts        int       `gorm:"not null;default:3" json:"max_attempts"`
	ShowCorrectAnswers bool      `gorm:"not null" json:"show_correct_answers"`
	RandomizeQuestions bool      `gorm:"not null" json:"randomize_questions"`
	RandomizeAnswers   bool      `gorm:"not null" json:"randomize_answers"`
	IsPublished        bool      `gorm:"not null" json:"is_published"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	Attempts  []QuizAttempt  `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"-"`
}

// TotalPoints sums the weight of every question in the quiz.
func (q *Quiz) TotalPoints() float64 {
	var total float64
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

type QuizQuestion struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	QuizID       uint         `gorm:"not null;index" json:"quiz_id"`
	QuestionText string       `gorm:"type:text;not null" json:"question_text"`
	QuestionType QuestionType `gorm:"type:varchar(30);not null" json:"question_type"`
	Points       float64      `gorm:"not null;default:1" json:"points"`
	Order        int          `gorm:"column:sort_order;not null;default:0" json:"order"`
	Explanation  string       `gorm:"type:text" json:"explanation,omitempty"`
	ImageURL     string       `gorm:"size:500" json:"image_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	Answers []QuizAnswer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// CorrectAnswerIDs returns the ids of the answers flagged correct.
func (q *QuizQuestion) CorrectAnswerIDs() []uint {
	ids := make([]uint, 0, len(q.Answers))
	for _, a := range q.Answers {
		if a.IsCorrect {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

type QuizAnswer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	AnswerText string    `gorm:"type:text;not null" json:"answer_text"`
	IsCorrect  bool      `gorm:"not null" json:"is_correct"`
	Order      int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// AnswerSheet maps a question id to the answer ids a student selected.
type AnswerSheet map[uint][]uint

type QuizAttempt struct {
	ID          uint                            `gorm:"primaryKey" json:"id"`
	StudentID   uint                            `gorm:"not null;index:idx_attempt_student_quiz" json:"student_id"`
	QuizID      uint                            `gorm:"not null;index:idx_attempt_student_quiz;index" json:"quiz_id"`
	Score       float64                         `gorm:"not null;default:0" json:"score"`
	MaxScore    float64                         `gorm:"not null;default:0" json:"max_score"`
	Percentage  float64                         `gorm:"not null;default:0" json:"percentage"`
	IsPassed    bool                            `gorm:"not null" json:"is_passed"`
	Answers     datatypes.JSONType[AnswerSheet] `gorm:"type:jsonb" json:"answers"`
	TimeSpent   int                             `gorm:"not null;default:0" json:"time_spent"`
	StartedAt   time.Time                       `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time                      `gorm:"index" json:"completed_at,omitempty"`
	CreatedAt   time.Time                       `json:"-"`

	Student *User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// QuizStatistics aggregates the completed attempts of one quiz.
type QuizStatistics struct {
	QuizID           uint    `json:"quiz_id"`
	TotalAttempts    int64   `json:"total_attempts"`
	PassedAttempts   int64   `json:"passed_attempts"`
	FailedAttempts   int64   `json:"failed_attempts"`
	AverageScore     float64 `json:"average_score"`
	BestScore        float64 `json:"best_score"`
	WorstScore       float64 `json:"worst_score"`
	AverageTimeSpent int64   `json:"average_time_spent"`
}

// AnswerOption is an answer as shown to a student taking the quiz.
type AnswerOption struct {
	ID         uint   `json:"id"`
	AnswerText string `json:"answer_text"`
	Order      int    `json:"order"`
}

type QuestionView struct {
	ID           uint           `json:"id"`
	QuestionText string         `json:"question_text"`
	QuestionType QuestionType   `json:"question_type"`
	Order        int            `json:"order"`
	Points       float64        `json:"points"`
	ImageURL     string         `json:"image_url,omitempty"`
	Answers      []AnswerOption `json:"answers"`
}

// QuizView is a quiz with correctness flags stripped from every answer.
type QuizView struct {
	ID                 uint           `json:"id"`
	LessonID           uint           `json:"lesson_id"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	PassingScore       float64        `json:"passing_score"`
	TimeLimit          *int           `json:"time_limit,omitempty"`
	MaxAttempts        int            `json:"max_attempts"`
	ShowCorrectAnswers bool           `json:"show_correct_answers"`
	RandomizeQuestions bool           `json:"randomize_questions"`
	RandomizeAnswers   bool           `json:"randomize_answers"`
	TotalQuestions     int            `json:"total_questions"`
	TotalPoints        float64        `json:"total_points"`
	AttemptsUsed       int64          `json:"attempts_used"`
	Questions          []QuestionView `json:"questions"`
}

type QuestionResult struct {
	QuestionID     uint         `json:"question_id"`
	QuestionText   string       `json:"question_text"`
	QuestionType   QuestionType `json:"question_type"`
	Points         float64      `json:"points"`
	EarnedPoints   float64      `json:"earned_points"`
	IsCorrect      bool         `json:"is_correct"`
	StudentAnswers []uint       `json:"student_answers"`
	CorrectAnswers []uint       `json:"correct_answers"`
	Explanation    string       `json:"explanation,omitempty"`
}

// AttemptResult is the graded outcome of an attempt. Results is empty
// when the quiz hides correct answers from the viewer.
type AttemptResult struct {
	AttemptID         uint             `json:"attempt_id"`
	QuizID            uint             `json:"quiz_id"`
	StudentID         uint             `json:"student_id"`
	Score             float64          `json:"score"`
	MaxScore          float64          `json:"max_score"`
	Percentage        float64          `json:"percentage"`
	IsPassed          bool             `json:"is_passed"`
	PassingScore      float64          `json:"passing_score"`
	TimeSpent         int              `json:"time_spent"`
	StartedAt         time.Time        `json:"started_at"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
	AttemptsRemaining *int             `json:"attempts_remaining,omitempty"`
	Results           []QuestionResult `json:"results"`
}
