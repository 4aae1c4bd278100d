package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learning-progress-hub/internal/domain/learner"
	"github.com/learnhub/learning-progress-hub/internal/domain/mistake"
	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

func newTestHandler() (*SubmitQuizHandler, *learner.Ledger, *mistake.Ledger) {
	progress := learner.NewLedger(nil, nil)
	progress.BindIdentity("user-1")
	mistakes := mistake.NewLedger(nil, nil)
	mistakes.BindIdentity("user-1")
	return NewSubmitQuizHandler(progress, mistakes, nil), progress, mistakes
}

func quizCommand(answers ...AnswerSubmission) SubmitQuizCommand {
	return SubmitQuizCommand{
		QuizID:     "quiz-1",
		SurveyID:   "survey-1",
		SyllabusID: "syllabus-go",
		CourseName: "go-basics",
		Answers:    answers,
	}
}

func correctAnswer(id string) AnswerSubmission {
	return AnswerSubmission{
		QuestionID:    shared.QuestionID(id),
		QuestionType:  mistake.SingleChoice,
		UserAnswer:    "a",
		CorrectAnswer: "a",
	}
}

func wrongAnswer(id string) AnswerSubmission {
	return AnswerSubmission{
		QuestionID:    shared.QuestionID(id),
		QuestionType:  mistake.SingleChoice,
		UserAnswer:    "b",
		CorrectAnswer: "a",
	}
}

func TestSubmitQuiz_Validate(t *testing.T) {
	handler, _, _ := newTestHandler()

	_, err := handler.Handle(context.Background(), SubmitQuizCommand{})
	assert.Error(t, err)

	cmd := quizCommand(correctAnswer("q1"))
	cmd.PassPercent = 150
	_, err = handler.Handle(context.Background(), cmd)
	assert.Error(t, err)
}

func TestSubmitQuiz_PerfectScoreAwardsFirstPassXP(t *testing.T) {
	handler, progress, _ := newTestHandler()

	result, err := handler.Handle(context.Background(), quizCommand(
		correctAnswer("q1"), correctAnswer("q2"),
	))
	require.NoError(t, err)

	assert.Equal(t, 100, result.Percent)
	assert.True(t, result.Passed)
	assert.True(t, result.FirstPass)
	assert.Equal(t, DefaultQuizRewardXP, result.XPAwarded)
	assert.Equal(t, 0, result.HeartsLost)
	assert.Equal(t, DefaultQuizRewardXP, progress.TotalXP())
	assert.Equal(t, DefaultQuizRewardXP, progress.Snapshot().XPBySyllabus["syllabus-go"])
	assert.Equal(t, 1, progress.Streak())
}

func TestSubmitQuiz_RepeatPassEarnsNothing(t *testing.T) {
	handler, progress, _ := newTestHandler()

	_, err := handler.Handle(context.Background(), quizCommand(correctAnswer("q1")))
	require.NoError(t, err)
	xpAfterFirst := progress.TotalXP()

	result, err := handler.Handle(context.Background(), quizCommand(correctAnswer("q1")))
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.False(t, result.FirstPass)
	assert.Equal(t, 0, result.XPAwarded)
	assert.Equal(t, xpAfterFirst, progress.TotalXP())
	assert.Equal(t, 2, progress.QuizStreak())
}

func TestSubmitQuiz_WrongAnswersCostHeartsAndFillBook(t *testing.T) {
	handler, progress, mistakes := newTestHandler()

	result, err := handler.Handle(context.Background(), quizCommand(
		correctAnswer("q1"), wrongAnswer("q2"), wrongAnswer("q3"),
	))
	require.NoError(t, err)

	assert.Equal(t, 33, result.Percent)
	assert.False(t, result.Passed)
	assert.Equal(t, 2, result.HeartsLost)
	assert.Equal(t, 3, result.HeartsLeft)
	assert.Equal(t, 0, progress.QuizStreak())
	assert.Equal(t, 2, mistakes.Len())

	rec, ok := mistakes.Get("survey-1_q2")
	require.True(t, ok)
	assert.Equal(t, "go-basics", rec.CourseName)
	assert.Equal(t, "b", rec.UserAnswer)
}

func TestSubmitQuiz_NoHeartsBlocksSubmission(t *testing.T) {
	handler, progress, _ := newTestHandler()
	for i := 0; i < learner.DefaultMaxHearts; i++ {
		progress.LoseHeart()
	}

	_, err := handler.Handle(context.Background(), quizCommand(correctAnswer("q1")))
	assert.ErrorIs(t, err, ErrNoHearts)
}

func TestSubmitQuiz_CustomThresholdAndReward(t *testing.T) {
	handler, _, _ := newTestHandler()

	cmd := quizCommand(correctAnswer("q1"), wrongAnswer("q2"))
	cmd.PassPercent = 50
	cmd.RewardXP = 35

	result, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.Equal(t, 35, result.XPAwarded)
}
