// Package mistake contains domain entities and business logic for the
// wrong-question book: per-question miss tracking and resolution state.
// This is a pure domain layer with zero external dependencies.
package mistake

import (
	"errors"
	"strings"
	"time"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
)

// Domain errors for mistake package.
var (
	// ErrRecordNotFound - no wrong-question record with the given id.
	ErrRecordNotFound = errors.New("wrong question record not found")
)

// UncategorizedCourse is the grouping bucket for records without a course name.
const UncategorizedCourse = "uncategorized"

// QuestionType defines the answer format of a question.
type QuestionType string

const (
	// SingleChoice - one correct option letter.
	SingleChoice QuestionType = "single_choice"
	// MultipleChoice - a set of option letters, comma separated.
	MultipleChoice QuestionType = "multiple_choice"
	// FillBlank - free text; correct variants are separated by '|'.
	FillBlank QuestionType = "fill_blank"
)

// IsValid checks that the question type is known.
func (t QuestionType) IsValid() bool {
	switch t {
	case SingleChoice, MultipleChoice, FillBlank:
		return true
	default:
		return false
	}
}

// Record is a single wrong-question entry.
// The id is composite (survey + question) and stable across resubmissions,
// so a repeat miss updates the existing record instead of creating a new one.
type Record struct {
	// ID - composite id, see RecordID.
	ID string `json:"id"`

	// SurveyID and QuestionID identify the missed question.
	SurveyID   shared.SurveyID   `json:"surveyId"`
	QuestionID shared.QuestionID `json:"questionId"`

	// QuestionText - the question as shown to the learner.
	QuestionText string `json:"question"`

	// QuestionType - answer format.
	QuestionType QuestionType `json:"questionType"`

	// UserAnswer - the most recent wrong answer.
	UserAnswer string `json:"userAnswer"`

	// CorrectAnswer - the expected answer (scalar or encoded set, by type).
	CorrectAnswer string `json:"correctAnswer"`

	// CourseName - used for grouping views; may be empty.
	CourseName string `json:"courseName,omitempty"`

	// WrongCount - how many times the question has been missed. Always >= 1.
	WrongCount int `json:"wrongCount"`

	// LastWrongAt - timestamp of the most recent miss.
	LastWrongAt time.Time `json:"lastWrongAt"`

	// IsResolved - manual mastery mark. Forced back to false on a new miss.
	IsResolved bool `json:"isResolved"`
}

// RecordID builds the composite record id for a survey/question pair.
func RecordID(surveyID shared.SurveyID, questionID shared.QuestionID) string {
	return string(surveyID) + "_" + string(questionID)
}

// IsCorrect checks a user answer against the correct answer, mirroring the
// grading rules of the training platform:
//   - single_choice: case-insensitive option letter match
//   - multiple_choice: set equality over comma-separated option letters
//   - fill_blank: case-insensitive match against any '|'-separated variant
func IsCorrect(userAnswer, correctAnswer string, questionType QuestionType) bool {
	switch questionType {
	case SingleChoice:
		return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(correctAnswer))
	case MultipleChoice:
		return answerSet(userAnswer).equals(answerSet(correctAnswer))
	case FillBlank:
		got := strings.ToLower(strings.TrimSpace(userAnswer))
		for _, variant := range strings.Split(correctAnswer, "|") {
			if got == strings.ToLower(strings.TrimSpace(variant)) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

type optionSet map[string]struct{}

func answerSet(answer string) optionSet {
	set := optionSet{}
	for _, part := range strings.Split(strings.ReplaceAll(answer, " ", ""), ",") {
		if part == "" {
			continue
		}
		set[strings.ToUpper(part)] = struct{}{}
	}
	return set
}

func (s optionSet) equals(other optionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}
