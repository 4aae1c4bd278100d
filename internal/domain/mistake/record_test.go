package mistake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCorrect_SingleChoice(t *testing.T) {
	assert.True(t, IsCorrect("a", "A", SingleChoice))
	assert.True(t, IsCorrect(" b ", "b", SingleChoice))
	assert.False(t, IsCorrect("a", "b", SingleChoice))
}

func TestIsCorrect_MultipleChoice(t *testing.T) {
	assert.True(t, IsCorrect("a,c", "C,A", MultipleChoice))
	assert.True(t, IsCorrect("a, c", "a,c", MultipleChoice))
	assert.False(t, IsCorrect("a", "a,c", MultipleChoice))
	assert.False(t, IsCorrect("a,b,c", "a,c", MultipleChoice))
}

func TestIsCorrect_FillBlank(t *testing.T) {
	assert.True(t, IsCorrect("goroutine", "Goroutine|green thread", FillBlank))
	assert.True(t, IsCorrect(" Green Thread ", "goroutine|green thread", FillBlank))
	assert.False(t, IsCorrect("thread", "goroutine|green thread", FillBlank))
}

func TestIsCorrect_UnknownType(t *testing.T) {
	assert.False(t, IsCorrect("a", "a", QuestionType("essay")))
}

func TestQuestionType_IsValid(t *testing.T) {
	assert.True(t, SingleChoice.IsValid())
	assert.True(t, MultipleChoice.IsValid())
	assert.True(t, FillBlank.IsValid())
	assert.False(t, QuestionType("essay").IsValid())
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "s1_q7", RecordID("s1", "q7"))
}
