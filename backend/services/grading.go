package services

import "coursemarket/backend/models"

// GradeResult is the outcome of grading an answer sheet against a quiz.
type GradeResult struct {
	Score      float64
	MaxScore   float64
	Percentage float64
	Results    []models.QuestionResult
}

// Grade scores sheet against questions. A question earns its points only when
// the selected answer set equals the correct answer set exactly; partial
// credit is never given and selections for unknown questions are ignored.
func Grade(questions []models.QuizQuestion, sheet models.AnswerSheet) GradeResult {
	var res GradeResult
	res.Results = make([]models.QuestionResult, 0, len(questions))

	for i := range questions {
		q := &questions[i]
		correct := q.CorrectAnswerIDs()
		selected := sheet[q.ID]
		if selected == nil {
			selected = []uint{}
		}

		ok := sameSet(selected, correct)
		earned := 0.0
		if ok {
			earned = q.Points
		}
		res.MaxScore += q.Points
		res.Score += earned

		res.Results = append(res.Results, models.QuestionResult{
			QuestionID:     q.ID,
			QuestionText:   q.QuestionText,
			QuestionType:   q.QuestionType,
			Points:         q.Points,
			EarnedPoints:   earned,
			IsCorrect:      ok,
			StudentAnswers: selected,
			CorrectAnswers: correct,
			Explanation:    q.Explanation,
		})
	}

	if res.MaxScore > 0 {
		res.Percentage = round2(res.Score / res.MaxScore * 100)
	}
	return res
}

// sameSet compares a and b as sets, ignoring order and duplicates.
func sameSet(a, b []uint) bool {
	left := make(map[uint]struct{}, len(a))
	for _, id := range a {
		left[id] = struct{}{}
	}
	right := make(map[uint]struct{}, len(b))
	for _, id := range b {
		right[id] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for id := range left {
		if _, ok := right[id]; !ok {
			return false
		}
	}
	return true
}
