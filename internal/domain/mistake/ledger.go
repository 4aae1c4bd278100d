package mistake

import (
	"sort"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
	"github.com/learnhub/learning-progress-hub/pkg/timeutil"
)

// Ledger tracks the wrong-question book for the single active learner.
// Like the progress ledger it is an explicit service instance owned by the
// application root; mutations publish events for the sync observer.
type Ledger struct {
	userID  shared.UserID
	records map[string]*Record

	clock     timeutil.Clock
	publisher shared.EventPublisher
}

// NewLedger creates an empty wrong-question ledger.
func NewLedger(publisher shared.EventPublisher, clock timeutil.Clock) *Ledger {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Ledger{
		records:   make(map[string]*Record),
		clock:     clock,
		publisher: publisher,
	}
}

// BindIdentity attaches the ledger to a learner. Empty id means guest state.
func (l *Ledger) BindIdentity(id shared.UserID) {
	l.userID = id
}

func (l *Ledger) publish(t shared.EventType) {
	e := shared.NewBaseEvent(t, l.userID.String())
	e.Timestamp = l.clock.Now()
	_ = l.publisher.Publish(e)
}

// RecordParams describes a missed question.
type RecordParams struct {
	SurveyID      shared.SurveyID
	QuestionID    shared.QuestionID
	QuestionText  string
	QuestionType  QuestionType
	UserAnswer    string
	CorrectAnswer string
	CourseName    string
}

// Record upserts a wrong-question entry.
// First miss creates a record with WrongCount 1. A repeat miss of the same
// question increments WrongCount, refreshes UserAnswer and LastWrongAt, and
// forces IsResolved back to false even if it had been manually resolved:
// a re-missed question is reopened.
func (l *Ledger) Record(params RecordParams) *Record {
	id := RecordID(params.SurveyID, params.QuestionID)
	now := l.clock.Now()

	if existing, ok := l.records[id]; ok {
		existing.WrongCount++
		existing.UserAnswer = params.UserAnswer
		existing.LastWrongAt = now
		existing.IsResolved = false
		l.publish(shared.EventWrongQuestionRecorded)
		return existing
	}

	record := &Record{
		ID:            id,
		SurveyID:      params.SurveyID,
		QuestionID:    params.QuestionID,
		QuestionText:  params.QuestionText,
		QuestionType:  params.QuestionType,
		UserAnswer:    params.UserAnswer,
		CorrectAnswer: params.CorrectAnswer,
		CourseName:    params.CourseName,
		WrongCount:    1,
		LastWrongAt:   now,
	}
	l.records[id] = record
	l.publish(shared.EventWrongQuestionRecorded)
	return record
}

// MarkResolved marks a record as mastered. Manual, independent of quiz
// outcomes; a later miss of the same question reopens it.
func (l *Ledger) MarkResolved(id string) error {
	return l.setResolved(id, true)
}

// MarkUnresolved clears the mastered mark.
func (l *Ledger) MarkUnresolved(id string) error {
	return l.setResolved(id, false)
}

func (l *Ledger) setResolved(id string, resolved bool) error {
	record, ok := l.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	if record.IsResolved == resolved {
		return nil
	}
	record.IsResolved = resolved
	l.publish(shared.EventWrongQuestionResolved)
	return nil
}

// ClearResolved bulk-deletes resolved records only.
// Returns the number of removed records.
func (l *Ledger) ClearResolved() int {
	removed := 0
	for id, record := range l.records {
		if record.IsResolved {
			delete(l.records, id)
			removed++
		}
	}
	if removed > 0 {
		l.publish(shared.EventWrongQuestionResolved)
	}
	return removed
}

// Get returns a record by id.
func (l *Ledger) Get(id string) (*Record, bool) {
	record, ok := l.records[id]
	return record, ok
}

// Records returns all records ordered by most recent miss first.
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, len(l.records))
	for _, record := range l.records {
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastWrongAt.Equal(out[j].LastWrongAt) {
			return out[i].LastWrongAt.After(out[j].LastWrongAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Unresolved returns records not yet marked as mastered.
func (l *Ledger) Unresolved() []Record {
	all := l.Records()
	out := all[:0]
	for _, record := range all {
		if !record.IsResolved {
			out = append(out, record)
		}
	}
	return out
}

// GroupByCourse buckets records by course name.
// Records without a course name fall into the "uncategorized" bucket.
func (l *Ledger) GroupByCourse() map[string][]Record {
	groups := make(map[string][]Record)
	for _, record := range l.Records() {
		course := record.CourseName
		if course == "" {
			course = UncategorizedCourse
		}
		groups[course] = append(groups[course], record)
	}
	return groups
}

// Len returns the number of tracked records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Load replaces the ledger content, used when applying a server snapshot
// or restoring the durable local copy.
func (l *Ledger) Load(records []Record) {
	l.records = make(map[string]*Record, len(records))
	for i := range records {
		record := records[i]
		if record.ID == "" {
			record.ID = RecordID(record.SurveyID, record.QuestionID)
		}
		if record.WrongCount < 1 {
			record.WrongCount = 1
		}
		l.records[record.ID] = &record
	}
}

// Reset drops all records (logout / identity switch).
func (l *Ledger) Reset() {
	l.records = make(map[string]*Record)
	l.publish(shared.EventWrongQuestionResolved)
}
