package repotest

import (
	"context"
	"sort"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
)

type quizzes struct{ s *Store }

func (r quizzes) Create(_ context.Context, quiz *models.Quiz) error {
	defer r.s.lock()()
	d := r.s.st.d
	quiz.ID = d.nextID()
	stamp(&quiz.CreatedAt, &quiz.UpdatedAt)
	for i := range quiz.Questions {
		quiz.Questions[i].QuizID = quiz.ID
		r.insertQuestion(d, &quiz.Questions[i])
	}
	row := *quiz
	row.Questions, row.Attempts = nil, nil
	d.quizzes[quiz.ID] = row
	return nil
}

func (r quizzes) insertQuestion(d *data, q *models.QuizQuestion) {
	q.ID = d.nextID()
	stamp(&q.CreatedAt, &q.UpdatedAt)
	for i := range q.Answers {
		a := &q.Answers[i]
		a.ID = d.nextID()
		a.QuestionID = q.ID
		stamp(&a.CreatedAt, &a.UpdatedAt)
		d.answers[a.ID] = *a
	}
	row := *q
	row.Answers = nil
	d.questions[q.ID] = row
}

func (r quizzes) GetByID(_ context.Context, id uint) (*models.Quiz, error) {
	defer r.s.lock()()
	q, ok := r.s.st.d.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (r quizzes) loadAnswers(d *data, q *models.QuizQuestion) {
	q.Answers = values(d.answers, func(a models.QuizAnswer) bool { return a.QuestionID == q.ID })
	sort.Slice(q.Answers, func(i, j int) bool {
		if q.Answers[i].Order != q.Answers[j].Order {
			return q.Answers[i].Order < q.Answers[j].Order
		}
		return q.Answers[i].ID < q.Answers[j].ID
	})
}

func (r quizzes) GetWithQuestions(_ context.Context, id uint) (*models.Quiz, error) {
	defer r.s.lock()()
	d := r.s.st.d
	quiz, ok := d.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	quiz.Questions = values(d.questions, func(q models.QuizQuestion) bool { return q.QuizID == id })
	sort.Slice(quiz.Questions, func(i, j int) bool {
		if quiz.Questions[i].Order != quiz.Questions[j].Order {
			return quiz.Questions[i].Order < quiz.Questions[j].Order
		}
		return quiz.Questions[i].ID < quiz.Questions[j].ID
	})
	for i := range quiz.Questions {
		r.loadAnswers(d, &quiz.Questions[i])
	}
	return &quiz, nil
}

func (r quizzes) Update(_ context.Context, quiz *models.Quiz) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.quizzes[quiz.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&quiz.CreatedAt, &quiz.UpdatedAt)
	row := *quiz
	row.Questions, row.Attempts = nil, nil
	d.quizzes[quiz.ID] = row
	return nil
}

func (r quizzes) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.quizzes[id]; !ok {
		return repository.ErrNotFound
	}
	d.deleteQuiz(id)
	return nil
}

func (r quizzes) ListByLesson(_ context.Context, lessonID uint, publishedOnly bool) ([]models.Quiz, error) {
	defer r.s.lock()()
	list := values(r.s.st.d.quizzes, func(q models.Quiz) bool {
		return q.LessonID == lessonID && (!publishedOnly || q.IsPublished)
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r quizzes) CreateQuestion(_ context.Context, question *models.QuizQuestion) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.quizzes[question.QuizID]; !ok {
		return repository.ErrNotFound
	}
	r.insertQuestion(d, question)
	return nil
}

func (r quizzes) GetQuestion(_ context.Context, id uint) (*models.QuizQuestion, error) {
	defer r.s.lock()()
	d := r.s.st.d
	q, ok := d.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	r.loadAnswers(d, &q)
	return &q, nil
}

func (r quizzes) UpdateQuestion(_ context.Context, question *models.QuizQuestion) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.questions[question.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&question.CreatedAt, &question.UpdatedAt)
	row := *question
	row.Answers = nil
	d.questions[question.ID] = row
	return nil
}

func (r quizzes) DeleteQuestion(_ context.Context, id uint) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.questions[id]; !ok {
		return repository.ErrNotFound
	}
	d.deleteQuestion(id)
	return nil
}

func (r quizzes) GetAnswer(_ context.Context, id uint) (*models.QuizAnswer, error) {
	defer r.s.lock()()
	a, ok := r.s.st.d.answers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r quizzes) UpdateAnswer(_ context.Context, answer *models.QuizAnswer) error {
	defer r.s.lock()()
	d := r.s.st.d
	if _, ok := d.answers[answer.ID]; !ok {
		return repository.ErrNotFound
	}
	stamp(&answer.CreatedAt, &answer.UpdatedAt)
	d.answers[answer.ID] = *answer
	return nil
}

type attempts struct{ s *Store }

func (r attempts) Create(_ context.Context, attempt *models.QuizAttempt) error {
	defer r.s.lock()()
	d := r.s.st.d
	attempt.ID = d.nextID()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = attempt.StartedAt
	}
	row := *attempt
	row.Student = nil
	d.attempts[attempt.ID] = row
	return nil
}

func (r attempts) GetByID(_ context.Context, id uint) (*models.QuizAttempt, error) {
	defer r.s.lock()()
	a, ok := r.s.st.d.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r attempts) CountCompleted(_ context.Context, studentID, quizID uint) (int64, error) {
	defer r.s.lock()()
	var n int64
	for _, a := range r.s.st.d.attempts {
		if a.StudentID == studentID && a.QuizID == quizID && a.CompletedAt != nil {
			n++
		}
	}
	return n, nil
}

func newestAttemptsFirst(list []models.QuizAttempt) {
	sort.Slice(list, func(i, j int) bool {
		return newer(list[i].CreatedAt, list[j].CreatedAt, list[i].ID, list[j].ID)
	})
}

func (r attempts) ListByStudent(_ context.Context, studentID, quizID uint) ([]models.QuizAttempt, error) {
	defer r.s.lock()()
	list := values(r.s.st.d.attempts, func(a models.QuizAttempt) bool {
		return a.StudentID == studentID && a.QuizID == quizID
	})
	newestAttemptsFirst(list)
	return list, nil
}

func (r attempts) ListRecentByStudent(_ context.Context, studentID uint, limit int) ([]models.QuizAttempt, error) {
	defer r.s.lock()()
	list := values(r.s.st.d.attempts, func(a models.QuizAttempt) bool { return a.StudentID == studentID })
	newestAttemptsFirst(list)
	return window(list, repository.Page{Limit: limit}), nil
}

func (r attempts) ListByQuiz(_ context.Context, quizID uint, page repository.Page) ([]models.QuizAttempt, int64, error) {
	defer r.s.lock()()
	d := r.s.st.d
	list := values(d.attempts, func(a models.QuizAttempt) bool { return a.QuizID == quizID })
	newestAttemptsFirst(list)
	total := int64(len(list))
	list = window(list, page)
	for i := range list {
		list[i].Student = d.userRef(list[i].StudentID)
	}
	return list, total, nil
}

func (r attempts) Statistics(_ context.Context, quizID uint) (*models.QuizStatistics, error) {
	defer r.s.lock()()
	stats := &models.QuizStatistics{QuizID: quizID}
	var sum float64
	var spent int64
	for _, a := range r.s.st.d.attempts {
		if a.QuizID != quizID || a.CompletedAt == nil {
			continue
		}
		if stats.TotalAttempts == 0 || a.Percentage > stats.BestScore {
			stats.BestScore = a.Percentage
		}
		if stats.TotalAttempts == 0 || a.Percentage < stats.WorstScore {
			stats.WorstScore = a.Percentage
		}
		stats.TotalAttempts++
		if a.IsPassed {
			stats.PassedAttempts++
		}
		sum += a.Percentage
		spent += int64(a.TimeSpent)
	}
	stats.FailedAttempts = stats.TotalAttempts - stats.PassedAttempts
	if stats.TotalAttempts > 0 {
		stats.AverageScore = sum / float64(stats.TotalAttempts)
		stats.AverageTimeSpent = spent / stats.TotalAttempts
	}
	return stats, nil
}

func (r attempts) CountResults(_ context.Context) (int64, int64, error) {
	defer r.s.lock()()
	var total, passed int64
	for _, a := range r.s.st.d.attempts {
		if a.CompletedAt == nil {
			continue
		}
		total++
		if a.IsPassed {
			passed++
		}
	}
	return total, passed, nil
}
