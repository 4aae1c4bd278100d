// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/learnhub/learning-progress-hub/internal/domain/learner"
	"github.com/learnhub/learning-progress-hub/internal/domain/mistake"
	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ COMMAND
// Grades a quiz submission against its answer key and applies every
// progress consequence in one pass: hearts for wrong answers, the
// wrong-question book, the quiz streak, and first-pass XP.
// ══════════════════════════════════════════════════════════════════════════════

// ErrNoHearts is returned when the learner has no hearts left to attempt
// a quiz. Hearts regenerate over time or can be bought with XP.
var ErrNoHearts = errors.New("submit_quiz: no hearts left")

// DefaultPassPercent is the minimum score to pass a quiz.
const DefaultPassPercent = 70

// DefaultQuizRewardXP is the XP awarded for the first pass of a quiz.
const DefaultQuizRewardXP = 20

// AnswerSubmission is one answered question of the submission.
type AnswerSubmission struct {
	// QuestionID identifies the question within the quiz.
	QuestionID shared.QuestionID

	// QuestionText is the prompt shown to the learner, kept for the
	// wrong-question book.
	QuestionText string

	// QuestionType selects the grading rule.
	QuestionType mistake.QuestionType

	// UserAnswer is the learner's answer.
	UserAnswer string

	// CorrectAnswer is the answer key entry.
	CorrectAnswer string
}

// SubmitQuizCommand contains a graded quiz submission.
type SubmitQuizCommand struct {
	// QuizID identifies the quiz; first-pass rewards are gated on it.
	QuizID shared.QuizID

	// SurveyID scopes wrong-question records.
	SurveyID shared.SurveyID

	// SyllabusID, when set, receives the reward XP in the per-curriculum
	// economy as well.
	SyllabusID shared.SyllabusID

	// CourseName labels wrong-question records for course grouping.
	CourseName string

	// Answers are the graded submissions, one per question.
	Answers []AnswerSubmission

	// PassPercent is the pass threshold; 0 means DefaultPassPercent.
	PassPercent int

	// RewardXP is the first-pass reward; 0 means DefaultQuizRewardXP.
	RewardXP int
}

// Validate validates the command.
func (c SubmitQuizCommand) Validate() error {
	if c.QuizID == "" {
		return errors.New("submit_quiz: quiz_id is required")
	}
	if c.SurveyID == "" {
		return errors.New("submit_quiz: survey_id is required")
	}
	if len(c.Answers) == 0 {
		return errors.New("submit_quiz: answers are required")
	}
	for _, a := range c.Answers {
		if a.QuestionID == "" {
			return errors.New("submit_quiz: question_id is required")
		}
		if !a.QuestionType.IsValid() {
			return fmt.Errorf("submit_quiz: unknown question type: %s", a.QuestionType)
		}
	}
	if c.PassPercent < 0 || c.PassPercent > 100 {
		return errors.New("submit_quiz: pass_percent must be 0-100")
	}
	return nil
}

// SubmitQuizResult contains the outcome of a submission.
type SubmitQuizResult struct {
	// Correct is the number of correctly answered questions.
	Correct int

	// Total is the number of questions in the submission.
	Total int

	// Percent is the rounded score.
	Percent int

	// Passed indicates whether the score met the threshold.
	Passed bool

	// FirstPass indicates this was the first ever pass of the quiz.
	FirstPass bool

	// XPAwarded is the XP granted for this submission. Zero on a repeat
	// pass: rewards are first-pass only.
	XPAwarded int

	// HeartsLost is the number of hearts deducted for wrong answers.
	HeartsLost int

	// HeartsLeft is the heart count after the submission.
	HeartsLeft int
}

// SubmitQuizHandler handles quiz submissions.
type SubmitQuizHandler struct {
	progress *learner.Ledger
	mistakes *mistake.Ledger
	logger   *slog.Logger
}

// NewSubmitQuizHandler creates a quiz submission handler.
func NewSubmitQuizHandler(progress *learner.Ledger, mistakes *mistake.Ledger, logger *slog.Logger) *SubmitQuizHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitQuizHandler{
		progress: progress,
		mistakes: mistakes,
		logger:   logger,
	}
}

// Handle grades the submission and applies its consequences.
//
// Hearts gate the attempt: lazy regeneration runs first, and a learner at
// zero hearts cannot submit. Each wrong answer costs one heart and lands
// in the wrong-question book. XP is awarded only on the first pass of a
// quiz; repeat passes update the streak but earn nothing.
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	h.progress.CheckAndRestoreHearts()
	if h.progress.Hearts() <= 0 {
		return nil, ErrNoHearts
	}

	heartsBefore := h.progress.Hearts()

	correct := 0
	for _, a := range cmd.Answers {
		if mistake.IsCorrect(a.UserAnswer, a.CorrectAnswer, a.QuestionType) {
			correct++
			continue
		}

		h.mistakes.Record(mistake.RecordParams{
			SurveyID:      cmd.SurveyID,
			QuestionID:    a.QuestionID,
			QuestionText:  a.QuestionText,
			QuestionType:  a.QuestionType,
			UserAnswer:    a.UserAnswer,
			CorrectAnswer: a.CorrectAnswer,
			CourseName:    cmd.CourseName,
		})
		h.progress.LoseHeart()
	}

	total := len(cmd.Answers)
	percent := int(math.Round(100 * float64(correct) / float64(total)))

	passPercent := cmd.PassPercent
	if passPercent == 0 {
		passPercent = DefaultPassPercent
	}

	result := &SubmitQuizResult{
		Correct:    correct,
		Total:      total,
		Percent:    percent,
		Passed:     percent >= passPercent,
		HeartsLost: heartsBefore - h.progress.Hearts(),
	}

	if result.Passed {
		h.progress.RecordQuizPass()

		if h.progress.RecordFirstQuizPass(cmd.QuizID) {
			reward := cmd.RewardXP
			if reward == 0 {
				reward = DefaultQuizRewardXP
			}
			h.progress.AddXP(reward)
			h.progress.AddSyllabusXP(cmd.SyllabusID, reward)
			result.FirstPass = true
			result.XPAwarded = reward
		}

		h.progress.UpdateStreak()
	} else {
		h.progress.RecordQuizFail()
	}

	result.HeartsLeft = h.progress.Hearts()

	h.logger.Info("quiz submitted",
		"quiz_id", string(cmd.QuizID),
		"percent", result.Percent,
		"passed", result.Passed,
		"first_pass", result.FirstPass,
		"xp_awarded", result.XPAwarded,
		"hearts_lost", result.HeartsLost,
	)

	return result, nil
}
