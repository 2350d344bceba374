package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coursemarket/backend/models"
)

func sampleQuestions() []models.QuizQuestion {
	return []models.QuizQuestion{
		{
			ID: 1, QuestionText: "Capital of France", QuestionType: models.QuestionMultipleChoice, Points: 1,
			Answers: []models.QuizAnswer{
				{ID: 11, IsCorrect: true},
				{ID: 12},
			},
		},
		{
			ID: 2, QuestionText: "Pick the primes", QuestionType: models.QuestionMultipleSelect, Points: 2,
			Answers: []models.QuizAnswer{
				{ID: 21, IsCorrect: true},
				{ID: 22, IsCorrect: true},
				{ID: 23},
			},
		},
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name       string
		sheet      models.AnswerSheet
		score      float64
		percentage float64
	}{
		{"all correct", models.AnswerSheet{1: {11}, 2: {22, 21}}, 3, 100},
		{"duplicates are ignored", models.AnswerSheet{1: {11, 11}, 2: {21, 22, 21}}, 3, 100},
		{"partial selection earns nothing", models.AnswerSheet{1: {11}, 2: {21}}, 1, 33.33},
		{"superset earns nothing", models.AnswerSheet{1: {11}, 2: {21, 22, 23}}, 1, 33.33},
		{"missing answers", models.AnswerSheet{2: {21, 22}}, 2, 66.67},
		{"unknown questions ignored", models.AnswerSheet{99: {1}}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Grade(sampleQuestions(), tt.sheet)
			assert.Equal(t, 3.0, res.MaxScore)
			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.percentage, res.Percentage)
			assert.Len(t, res.Results, 2)
		})
	}
}

func TestGradeBreakdown(t *testing.T) {
	res := Grade(sampleQuestions(), models.AnswerSheet{1: {12}})

	first := res.Results[0]
	assert.False(t, first.IsCorrect)
	assert.Equal(t, []uint{12}, first.StudentAnswers)
	assert.Equal(t, []uint{11}, first.CorrectAnswers)
	assert.Equal(t, 0.0, first.EarnedPoints)

	second := res.Results[1]
	assert.Equal(t, []uint{}, second.StudentAnswers)
	assert.ElementsMatch(t, []uint{21, 22}, second.CorrectAnswers)
}

func TestGradeEmptyQuiz(t *testing.T) {
	res := Grade(nil, models.AnswerSheet{1: {1}})
	assert.Zero(t, res.MaxScore)
	assert.Zero(t, res.Percentage)
	assert.Empty(t, res.Results)
}

func TestProgressPercentage(t *testing.T) {
	assert.Equal(t, 75.0, progressPercentage(3, 4))
	assert.Equal(t, 100.0, progressPercentage(4, 4))
	assert.Equal(t, 33.33, progressPercentage(1, 3))
	assert.Equal(t, 0.0, progressPercentage(0, 0))
	assert.Equal(t, 100.0, progressPercentage(5, 4))
}

func TestReorderShift(t *testing.T) {
	lo, hi, delta := reorderShift(5, 2)
	assert.Equal(t, []int{2, 4, 1}, []int{lo, hi, delta})

	lo, hi, delta = reorderShift(2, 5)
	assert.Equal(t, []int{3, 5, -1}, []int{lo, hi, delta})
}
