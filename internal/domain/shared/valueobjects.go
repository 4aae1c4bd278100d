// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import "strings"

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies a learner. The identity flow is external to this system;
// we only receive the id together with a bearer token.
type UserID string

// IsValid checks that the user id is non-empty and has no whitespace.
func (u UserID) IsValid() bool {
	s := string(u)
	return len(s) > 0 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string form of the user id.
func (u UserID) String() string {
	return string(u)
}

// CourseID identifies a course inside the training catalog.
type CourseID string

// ChapterID identifies a chapter (a unit inside a course).
type ChapterID string

// QuizID identifies a quiz. Quizzes and surveys share the same id space.
type QuizID string

// SurveyID identifies a survey; wrong-question records are keyed per survey.
type SurveyID string

// QuestionID identifies a single question inside a survey.
type QuestionID string

// SyllabusID identifies a curriculum (an ordered sequence of courses).
type SyllabusID string

// AchievementID identifies an unlockable achievement.
type AchievementID string

// ContainsCourse reports whether id is present in ids.
func ContainsCourse(ids []CourseID, id CourseID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// AppendCourse adds id to ids if it is not already present.
// Returns the (possibly grown) slice and whether the id was new.
func AppendCourse(ids []CourseID, id CourseID) ([]CourseID, bool) {
	if ContainsCourse(ids, id) {
		return ids, false
	}
	return append(ids, id), true
}
