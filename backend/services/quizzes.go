package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"coursemarket/backend/metrics"
	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type QuizService struct {
	store   repository.Store
	log     *logrus.Logger
	shuffle func(n int, swap func(i, j int))
}

func NewQuizService(store repository.Store, log *logrus.Logger) *QuizService {
	return &QuizService{store: store, log: log, shuffle: rand.Shuffle}
}

type QuizInput struct {
	LessonID           uint            `json:"lesson_id" validate:"required"`
	Title              string          `json:"title" validate:"required,min=3,max=255"`
	Description        string          `json:"description"`
	PassingScore       *float64        `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	TimeLimit          *int            `json:"time_limit" validate:"omitempty,gt=0"`
	MaxAttempts        *int            `json:"max_attempts" validate:"omitempty,gt=0"`
	ShowCorrectAnswers *bool           `json:"show_correct_answers"`
	RandomizeQuestions bool            `json:"randomize_questions"`
	RandomizeAnswers   bool            `json:"randomize_answers"`
	IsPublished        bool            `json:"is_published"`
	Questions          []QuestionInput `json:"questions" validate:"dive"`
}

type QuizPatch struct {
	Title              *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description        *string  `json:"description"`
	PassingScore       *float64 `json:"passing_score" validate:"omitempty,gte=0,lte=100"`
	TimeLimit          *int     `json:"time_limit" validate:"omitempty,gt=0"`
	MaxAttempts        *int     `json:"max_attempts" validate:"omitempty,gt=0"`
	ShowCorrectAnswers *bool    `json:"show_correct_answers"`
	RandomizeQuestions *bool    `json:"randomize_questions"`
	RandomizeAnswers   *bool    `json:"randomize_answers"`
	IsPublished        *bool    `json:"is_published"`
}

type QuestionInput struct {
	QuestionText string              `json:"question_text" validate:"required"`
	QuestionType models.QuestionType `json:"question_type"`
	Points       *float64            `json:"points" validate:"omitempty,gt=0"`
	Order        *int                `json:"order" validate:"omitempty,gte=0"`
	Explanation  string              `json:"explanation"`
	ImageURL     string              `json:"image_url" validate:"omitempty,url"`
	Answers      []AnswerInput       `json:"answers" validate:"required,min=1,dive"`
}

type QuestionPatch struct {
	QuestionText *string              `json:"question_text" validate:"omitempty,min=1"`
	QuestionType *models.QuestionType `json:"question_type"`
	Points       *float64             `json:"points" validate:"omitempty,gt=0"`
	Order        *int                 `json:"order" validate:"omitempty,gte=0"`
	Explanation  *string              `json:"explanation"`
	ImageURL     *string              `json:"image_url"`
}

type AnswerInput struct {
	AnswerText string `json:"answer_text" validate:"required"`
	IsCorrect  bool   `json:"is_correct"`
	Order      int    `json:"order" validate:"gte=0"`
}

type AnswerPatch struct {
	AnswerText *string `json:"answer_text" validate:"omitempty,min=1"`
	IsCorrect  *bool   `json:"is_correct"`
	Order      *int    `json:"order" validate:"omitempty,gte=0"`
}

type SubmittedAnswer struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	AnswerIDs  []uint `json:"answer_ids"`
}

type Submission struct {
	QuizID    uint              `json:"quiz_id" validate:"required"`
	Answers   []SubmittedAnswer `json:"answers" validate:"dive"`
	TimeSpent int               `json:"time_spent" validate:"gte=0"`
}

func buildQuestion(in QuestionInput, order int) (models.QuizQuestion, error) {
	qt := in.QuestionType
	if qt == "" {
		qt = models.QuestionMultipleChoice
	}
	if !qt.Valid() {
		return models.QuizQuestion{}, invalidInput("unknown question type %q", qt)
	}
	if len(in.Answers) == 0 {
		return models.QuizQuestion{}, invalidInput("question must have at least one answer")
	}

	q := models.QuizQuestion{
		QuestionText: in.QuestionText,
		QuestionType: qt,
		Points:       1,
		Order:        order,
		Explanation:  in.Explanation,
		ImageURL:     in.ImageURL,
	}
	if in.Points != nil {
		q.Points = *in.Points
	}
	if in.Order != nil {
		q.Order = *in.Order
	}

	hasCorrect := false
	for i, a := range in.Answers {
		answerOrder := a.Order
		if answerOrder == 0 {
			answerOrder = i + 1
		}
		q.Answers = append(q.Answers, models.QuizAnswer{
			AnswerText: a.AnswerText,
			IsCorrect:  a.IsCorrect,
			Order:      answerOrder,
		})
		hasCorrect = hasCorrect || a.IsCorrect
	}
	if !hasCorrect {
		return models.QuizQuestion{}, invalidState("question must have at least one correct answer")
	}
	return q, nil
}

// quizCourse resolves the course a quiz belongs to through its lesson.
func quizCourse(ctx context.Context, tx repository.Store, quiz *models.Quiz) (*models.Course, error) {
	lesson, err := tx.Lessons().GetByID(ctx, quiz.LessonID)
	if err != nil {
		return nil, lookup(err, "lesson")
	}
	course, err := tx.Courses().GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, lookup(err, "course")
	}
	return course, nil
}

// managedQuiz loads a quiz and checks that user may author it.
func managedQuiz(ctx context.Context, tx repository.Store, user *models.User, quizID uint) (*models.Quiz, error) {
	quiz, err := tx.Quizzes().GetByID(ctx, quizID)
	if err != nil {
		return nil, lookup(err, "quiz")
	}
	course, err := quizCourse(ctx, tx, quiz)
	if err != nil {
		return nil, err
	}
	if !canManageCourse(user, course) {
		return nil, forbidden("only the course instructor can modify this quiz")
	}
	return quiz, nil
}

func (s *QuizService) Create(ctx context.Context, user *models.User, in QuizInput) (*models.Quiz, error) {
	quiz := &models.Quiz{
		LessonID:           in.LessonID,
		Title:              in.Title,
		Description:        in.Description,
		PassingScore:       70,
		TimeLimit:          in.TimeLimit,
		MaxAttempts:        3,
		ShowCorrectAnswers: true,
		RandomizeQuestions: in.RandomizeQuestions,
		RandomizeAnswers:   in.RandomizeAnswers,
		IsPublished:        in.IsPublished,
	}
	if in.PassingScore != nil {
		quiz.PassingScore = *in.PassingScore
	}
	if in.MaxAttempts != nil {
		quiz.MaxAttempts = *in.MaxAttempts
	}
	if in.ShowCorrectAnswers != nil {
		quiz.ShowCorrectAnswers = *in.ShowCorrectAnswers
	}
	for i, qi := range in.Questions {
		q, err := buildQuestion(qi, i+1)
		if err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, q)
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		lesson, err := tx.Lessons().GetByID(ctx, in.LessonID)
		if err != nil {
			return lookup(err, "lesson")
		}
		if _, err := managedCourse(ctx, tx, user, lesson.CourseID); err != nil {
			return err
		}
		return tx.Quizzes().Create(ctx, quiz)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"quiz_id": quiz.ID, "lesson_id": quiz.LessonID}).Info("Quiz created")
	return quiz, nil
}

// Get returns the full quiz, correct answers included, to its authors.
func (s *QuizService) Get(ctx context.Context, user *models.User, id uint) (*models.Quiz, error) {
	if _, err := managedQuiz(ctx, s.store, user, id); err != nil {
		return nil, err
	}
	quiz, err := s.store.Quizzes().GetWithQuestions(ctx, id)
	return quiz, lookup(err, "quiz")
}

func (s *QuizService) Update(ctx context.Context, user *models.User, id uint, patch QuizPatch) (*models.Quiz, error) {
	var quiz *models.Quiz
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		quiz, err = managedQuiz(ctx, tx, user, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			quiz.Title = *patch.Title
		}
		if patch.Description != nil {
			quiz.Description = *patch.Description
		}
		if patch.PassingScore != nil {
			quiz.PassingScore = *patch.PassingScore
		}
		if patch.TimeLimit != nil {
			quiz.TimeLimit = patch.TimeLimit
		}
		if patch.MaxAttempts != nil {
			quiz.MaxAttempts = *patch.MaxAttempts
		}
		if patch.ShowCorrectAnswers != nil {
			quiz.ShowCorrectAnswers = *patch.ShowCorrectAnswers
		}
		if patch.RandomizeQuestions != nil {
			quiz.RandomizeQuestions = *patch.RandomizeQuestions
		}
		if patch.RandomizeAnswers != nil {
			quiz.RandomizeAnswers = *patch.RandomizeAnswers
		}
		if patch.IsPublished != nil {
			quiz.IsPublished = *patch.IsPublished
		}
		return tx.Quizzes().Update(ctx, quiz)
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Delete(ctx context.Context, user *models.User, id uint) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := managedQuiz(ctx, tx, user, id); err != nil {
			return err
		}
		return lookup(tx.Quizzes().Delete(ctx, id), "quiz")
	})
}

// ListByLesson returns the quizzes of a lesson without their questions.
// Authors see drafts too; students need an active enrollment and only see
// published quizzes.
func (s *QuizService) ListByLesson(ctx context.Context, user *models.User, lessonID uint) ([]models.Quiz, error) {
	lesson, err := s.store.Lessons().GetByID(ctx, lessonID)
	if err != nil {
		return nil, lookup(err, "lesson")
	}
	course, err := s.store.Courses().GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, lookup(err, "course")
	}
	author := canManageCourse(user, course)
	if !author {
		if _, err := activeEnrollment(ctx, s.store, user.ID, course.ID); err != nil {
			return nil, err
		}
	}
	return s.store.Quizzes().ListByLesson(ctx, lessonID, !author)
}

func (s *QuizService) AddQuestion(ctx context.Context, user *models.User, quizID uint, in QuestionInput) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := managedQuiz(ctx, tx, user, quizID); err != nil {
			return err
		}
		full, err := tx.Quizzes().GetWithQuestions(ctx, quizID)
		if err != nil {
			return lookup(err, "quiz")
		}
		question, err = buildQuestion(in, len(full.Questions)+1)
		if err != nil {
			return err
		}
		question.QuizID = quizID
		return tx.Quizzes().CreateQuestion(ctx, &question)
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// managedQuestion loads a question with its answers and checks authorship.
func managedQuestion(ctx context.Context, tx repository.Store, user *models.User, id uint) (*models.QuizQuestion, error) {
	question, err := tx.Quizzes().GetQuestion(ctx, id)
	if err != nil {
		return nil, lookup(err, "question")
	}
	if _, err := managedQuiz(ctx, tx, user, question.QuizID); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) UpdateQuestion(ctx context.Context, user *models.User, id uint, patch QuestionPatch) (*models.QuizQuestion, error) {
	var question *models.QuizQuestion
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		question, err = managedQuestion(ctx, tx, user, id)
		if err != nil {
			return err
		}
		if patch.QuestionText != nil {
			question.QuestionText = *patch.QuestionText
		}
		if patch.QuestionType != nil {
			if !patch.QuestionType.Valid() {
				return invalidInput("unknown question type %q", *patch.QuestionType)
			}
			question.QuestionType = *patch.QuestionType
		}
		if patch.Points != nil {
			question.Points = *patch.Points
		}
		if patch.Order != nil {
			question.Order = *patch.Order
		}
		if patch.Explanation != nil {
			question.Explanation = *patch.Explanation
		}
		if patch.ImageURL != nil {
			question.ImageURL = *patch.ImageURL
		}
		return tx.Quizzes().UpdateQuestion(ctx, question)
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) DeleteQuestion(ctx context.Context, user *models.User, id uint) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := managedQuestion(ctx, tx, user, id); err != nil {
			return err
		}
		return lookup(tx.Quizzes().DeleteQuestion(ctx, id), "question")
	})
}

// UpdateAnswer edits one answer option. An edit that would leave its question
// without any correct answer is rejected; answer edits used to skip this
// check, so this is a deliberate behavior change.
func (s *QuizService) UpdateAnswer(ctx context.Context, user *models.User, id uint, patch AnswerPatch) (*models.QuizAnswer, error) {
	var answer *models.QuizAnswer
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		answer, err = tx.Quizzes().GetAnswer(ctx, id)
		if err != nil {
			return lookup(err, "answer")
		}
		question, err := managedQuestion(ctx, tx, user, answer.QuestionID)
		if err != nil {
			return err
		}

		if patch.IsCorrect != nil && !*patch.IsCorrect && answer.IsCorrect {
			remaining := 0
			for _, other := range question.Answers {
				if other.ID != answer.ID && other.IsCorrect {
					remaining++
				}
			}
			if remaining == 0 {
				return invalidState("question must keep at least one correct answer")
			}
		}
		if patch.AnswerText != nil {
			answer.AnswerText = *patch.AnswerText
		}
		if patch.IsCorrect != nil {
			answer.IsCorrect = *patch.IsCorrect
		}
		if patch.Order != nil {
			answer.Order = *patch.Order
		}
		return tx.Quizzes().UpdateAnswer(ctx, answer)
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// attemptsLeft reports how many attempts remain; nil means unlimited.
func attemptsLeft(quiz *models.Quiz, used int64) *int {
	if quiz.MaxAttempts <= 0 {
		return nil
	}
	left := quiz.MaxAttempts - int(used)
	if left < 0 {
		left = 0
	}
	return &left
}

// checkAttempts enforces the quiz attempt limit for a student.
func checkAttempts(ctx context.Context, tx repository.Store, quiz *models.Quiz, studentID uint) (int64, error) {
	used, err := tx.Attempts().CountCompleted(ctx, studentID, quiz.ID)
	if err != nil {
		return 0, err
	}
	if quiz.MaxAttempts > 0 && used >= int64(quiz.MaxAttempts) {
		return used, forbidden("maximum number of attempts (%d) exceeded", quiz.MaxAttempts)
	}
	return used, nil
}

// Start hands a student the quiz without correctness flags, shuffled when
// the quiz asks for it.
func (s *QuizService) Start(ctx context.Context, student *models.User, quizID uint) (*models.QuizView, error) {
	quiz, err := s.store.Quizzes().GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, lookup(err, "quiz")
	}
	course, err := quizCourse(ctx, s.store, quiz)
	if err != nil {
		return nil, err
	}
	if _, err := activeEnrollment(ctx, s.store, student.ID, course.ID); err != nil {
		return nil, err
	}
	used, err := checkAttempts(ctx, s.store, quiz, student.ID)
	if err != nil {
		return nil, err
	}
	return s.view(quiz, used), nil
}

func (s *QuizService) view(quiz *models.Quiz, used int64) *models.QuizView {
	questions := make([]models.QuestionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers := make([]models.AnswerOption, 0, len(q.Answers))
		for _, a := range q.Answers {
			answers = append(answers, models.AnswerOption{ID: a.ID, AnswerText: a.AnswerText, Order: a.Order})
		}
		if quiz.RandomizeAnswers {
			s.shuffle(len(answers), func(i, j int) { answers[i], answers[j] = answers[j], answers[i] })
		}
		questions = append(questions, models.QuestionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Order:        q.Order,
			Points:       q.Points,
			ImageURL:     q.ImageURL,
			Answers:      answers,
		})
	}
	if quiz.RandomizeQuestions {
		s.shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	}

	return &models.QuizView{
		ID:                 quiz.ID,
		LessonID:           quiz.LessonID,
		Title:              quiz.Title,
		Description:        quiz.Description,
		PassingScore:       quiz.PassingScore,
		TimeLimit:          quiz.TimeLimit,
		MaxAttempts:        quiz.MaxAttempts,
		ShowCorrectAnswers: quiz.ShowCorrectAnswers,
		RandomizeQuestions: quiz.RandomizeQuestions,
		RandomizeAnswers:   quiz.RandomizeAnswers,
		TotalQuestions:     len(questions),
		TotalPoints:        quiz.TotalPoints(),
		AttemptsUsed:       used,
		Questions:          questions,
	}
}

// Submit grades a submission and records it as a completed attempt. The
// enrollment row stays locked while the attempt limit is checked so that
// concurrent submissions cannot exceed it.
func (s *QuizService) Submit(ctx context.Context, student *models.User, sub Submission) (*models.AttemptResult, error) {
	sheet := make(models.AnswerSheet, len(sub.Answers))
	for _, a := range sub.Answers {
		ids := a.AnswerIDs
		if ids == nil {
			ids = []uint{}
		}
		sheet[a.QuestionID] = ids
	}

	var (
		quiz    *models.Quiz
		attempt *models.QuizAttempt
		grade   GradeResult
		used    int64
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		quiz, err = tx.Quizzes().GetWithQuestions(ctx, sub.QuizID)
		if err != nil {
			return lookup(err, "quiz")
		}
		lesson, err := tx.Lessons().GetByID(ctx, quiz.LessonID)
		if err != nil {
			return lookup(err, "lesson")
		}
		enrollment, err := tx.Enrollments().GetForUpdate(ctx, student.ID, lesson.CourseID)
		if isMissing(err) {
			return forbidden("you are not enrolled in this course")
		}
		if err != nil {
			return err
		}
		if !enrollment.HasAccess() {
			return forbidden("your enrollment in this course is not active")
		}
		if used, err = checkAttempts(ctx, tx, quiz, student.ID); err != nil {
			return err
		}

		grade = Grade(quiz.Questions, sheet)
		now := time.Now()
		attempt = &models.QuizAttempt{
			StudentID:   student.ID,
			QuizID:      quiz.ID,
			Score:       grade.Score,
			MaxScore:    grade.MaxScore,
			Percentage:  grade.Percentage,
			IsPassed:    grade.Percentage >= quiz.PassingScore,
			Answers:     datatypes.NewJSONType(sheet),
			TimeSpent:   sub.TimeSpent,
			StartedAt:   now,
			CompletedAt: &now,
		}
		return tx.Attempts().Create(ctx, attempt)
	})
	if err != nil {
		return nil, err
	}

	metrics.QuizAttempts.WithLabelValues(metrics.QuizResult(attempt.IsPassed)).Inc()
	s.log.WithFields(logrus.Fields{
		"quiz_id":    quiz.ID,
		"student_id": student.ID,
		"percentage": attempt.Percentage,
		"passed":     attempt.IsPassed,
	}).Info("Quiz attempt submitted")

	result := attemptResult(quiz, attempt, grade.Results, quiz.ShowCorrectAnswers)
	result.AttemptsRemaining = attemptsLeft(quiz, used+1)
	return result, nil
}

func attemptResult(quiz *models.Quiz, attempt *models.QuizAttempt, results []models.QuestionResult, reveal bool) *models.AttemptResult {
	if !reveal {
		results = []models.QuestionResult{}
	}
	return &models.AttemptResult{
		AttemptID:    attempt.ID,
		QuizID:       attempt.QuizID,
		StudentID:    attempt.StudentID,
		Score:        attempt.Score,
		MaxScore:     attempt.MaxScore,
		Percentage:   attempt.Percentage,
		IsPassed:     attempt.IsPassed,
		PassingScore: quiz.PassingScore,
		TimeSpent:    attempt.TimeSpent,
		StartedAt:    attempt.StartedAt,
		CompletedAt:  attempt.CompletedAt,
		Results:      results,
	}
}

// MyAttempts lists the student's attempts at a quiz, newest first.
func (s *QuizService) MyAttempts(ctx context.Context, student *models.User, quizID uint) ([]models.QuizAttempt, error) {
	if _, err := s.store.Quizzes().GetByID(ctx, quizID); err != nil {
		return nil, lookup(err, "quiz")
	}
	return s.store.Attempts().ListByStudent(ctx, student.ID, quizID)
}

// GetAttempt re-derives the per-question breakdown of an attempt against the
// quiz as it is now. The stored score is reported unchanged.
func (s *QuizService) GetAttempt(ctx context.Context, user *models.User, attemptID uint) (*models.AttemptResult, error) {
	attempt, err := s.store.Attempts().GetByID(ctx, attemptID)
	if err != nil {
		return nil, lookup(err, "attempt")
	}
	quiz, err := s.store.Quizzes().GetWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, lookup(err, "quiz")
	}
	course, err := quizCourse(ctx, s.store, quiz)
	if err != nil {
		return nil, err
	}
	author := canManageCourse(user, course)
	if attempt.StudentID != user.ID && !author {
		return nil, forbidden("you cannot view this attempt")
	}

	grade := Grade(quiz.Questions, attempt.Answers.Data())
	return attemptResult(quiz, attempt, grade.Results, author || quiz.ShowCorrectAnswers), nil
}

func (s *QuizService) Statistics(ctx context.Context, user *models.User, quizID uint) (*models.QuizStatistics, error) {
	if _, err := managedQuiz(ctx, s.store, user, quizID); err != nil {
		return nil, err
	}
	stats, err := s.store.Attempts().Statistics(ctx, quizID)
	if err != nil {
		return nil, err
	}
	stats.QuizID = quizID
	stats.AverageScore = round2(stats.AverageScore)
	return stats, nil
}

// AllAttempts lists every attempt at a quiz for its authors.
func (s *QuizService) AllAttempts(ctx context.Context, user *models.User, quizID uint, page repository.Page) ([]models.QuizAttempt, int64, error) {
	if _, err := managedQuiz(ctx, s.store, user, quizID); err != nil {
		return nil, 0, err
	}
	return s.store.Attempts().ListByQuiz(ctx, quizID, page)
}
