// Package syllabus contains the per-curriculum progress tracker: the
// ordered-course unlock chain, completion percentage and reconciliation
// against the global completion set.
// This is a pure domain layer with zero external dependencies.
package syllabus

import (
	"math"
	"sort"
	"time"

	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
	"github.com/learnhub/learning-progress-hub/pkg/timeutil"
)

// CourseRef is one entry of a curriculum's ordered course sequence.
// Wire names follow the catalog format (course_sequence).
type CourseRef struct {
	CourseID   shared.CourseID `json:"course_id"`
	Order      int             `json:"order"`
	IsOptional bool            `json:"is_optional"`
}

// SortSequence orders a course sequence by its Order field, in place.
func SortSequence(sequence []CourseRef) {
	sort.SliceStable(sequence, func(i, j int) bool {
		return sequence[i].Order < sequence[j].Order
	})
}

// ProgressRecord is the per-curriculum progress of the learner.
// One record per curriculum the learner has touched, created lazily on
// first interaction.
type ProgressRecord struct {
	SyllabusID       shared.SyllabusID `json:"syllabusId"`
	CompletedCourses []shared.CourseID `json:"completedCourses"`
	StartedCourses   []shared.CourseID `json:"startedCourses"`
	LastAccessedAt   time.Time         `json:"lastAccessedAt"`
}

// Tracker owns the per-curriculum progress records for the active learner.
type Tracker struct {
	userID  shared.UserID
	records map[shared.SyllabusID]*ProgressRecord

	clock     timeutil.Clock
	publisher shared.EventPublisher
}

// NewTracker creates an empty tracker.
func NewTracker(publisher shared.EventPublisher, clock timeutil.Clock) *Tracker {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Tracker{
		records:   make(map[shared.SyllabusID]*ProgressRecord),
		clock:     clock,
		publisher: publisher,
	}
}

// BindIdentity attaches the tracker to a learner.
func (t *Tracker) BindIdentity(id shared.UserID) {
	t.userID = id
}

func (t *Tracker) publish() {
	e := shared.NewBaseEvent(shared.EventSyllabusProgressChanged, t.userID.String())
	e.Timestamp = t.clock.Now()
	_ = t.publisher.Publish(e)
}

// record returns the progress record for a curriculum, creating it lazily.
func (t *Tracker) record(id shared.SyllabusID) *ProgressRecord {
	if rec, ok := t.records[id]; ok {
		return rec
	}
	rec := &ProgressRecord{
		SyllabusID:       id,
		CompletedCourses: []shared.CourseID{},
		StartedCourses:   []shared.CourseID{},
	}
	t.records[id] = rec
	return rec
}

// MarkCourseStarted records that the learner opened a course.
func (t *Tracker) MarkCourseStarted(syllabusID shared.SyllabusID, courseID shared.CourseID) {
	rec := t.record(syllabusID)
	rec.LastAccessedAt = t.clock.Now()

	var added bool
	rec.StartedCourses, added = shared.AppendCourse(rec.StartedCourses, courseID)
	if added {
		t.publish()
	}
}

// MarkCourseCompleted records a course completion.
// Completions are monotonic: there is no removal path except a full reset.
func (t *Tracker) MarkCourseCompleted(syllabusID shared.SyllabusID, courseID shared.CourseID) {
	rec := t.record(syllabusID)
	rec.LastAccessedAt = t.clock.Now()

	var added bool
	rec.CompletedCourses, added = shared.AppendCourse(rec.CompletedCourses, courseID)
	if added {
		t.publish()
	}
}

// IsCourseUnlocked applies the unlock-chain rule to a course of the given
// curriculum sequence:
//   - the first course is always unlocked;
//   - for any later course, scan backward skipping optional courses and
//     test the first non-optional predecessor for completion;
//   - an all-optional prefix counts as unlocked.
//
// Courses not present in the sequence are treated as locked.
func (t *Tracker) IsCourseUnlocked(syllabusID shared.SyllabusID, sequence []CourseRef, courseID shared.CourseID) bool {
	ordered := append([]CourseRef(nil), sequence...)
	SortSequence(ordered)

	idx := -1
	for i, ref := range ordered {
		if ref.CourseID == courseID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		return false
	case idx == 0:
		return true
	}

	completed := t.completedSet(syllabusID)
	for i := idx - 1; i >= 0; i-- {
		if ordered[i].IsOptional {
			continue
		}
		// First non-optional predecessor gates the unlock.
		_, done := completed[ordered[i].CourseID]
		return done
	}
	// Ran off the start: the whole prefix is optional.
	return true
}

// CompletionPercent returns the rounded completion percentage counting
// only required (non-optional) courses. A curriculum with zero required
// courses is defined as 100% complete.
func (t *Tracker) CompletionPercent(syllabusID shared.SyllabusID, sequence []CourseRef) int {
	completed := t.completedSet(syllabusID)

	required := 0
	done := 0
	for _, ref := range sequence {
		if ref.IsOptional {
			continue
		}
		required++
		if _, ok := completed[ref.CourseID]; ok {
			done++
		}
	}

	if required == 0 {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(required)))
}

// SyncFromGlobalProgress reconciles the per-curriculum record with the
// global completion set, repairing drift between the generic course
// tracker and the per-syllabus view. Union only: completions recorded
// here are never removed.
func (t *Tracker) SyncFromGlobalProgress(globalCompleted []shared.CourseID, syllabusID shared.SyllabusID, courseIDs []shared.CourseID) {
	rec := t.record(syllabusID)

	changed := false
	for _, courseID := range courseIDs {
		if !shared.ContainsCourse(globalCompleted, courseID) {
			continue
		}
		var added bool
		rec.CompletedCourses, added = shared.AppendCourse(rec.CompletedCourses, courseID)
		changed = changed || added
	}

	if changed {
		rec.LastAccessedAt = t.clock.Now()
		t.publish()
	}
}

// Progress returns the record for a curriculum, or nil if never touched.
func (t *Tracker) Progress(syllabusID shared.SyllabusID) *ProgressRecord {
	rec, ok := t.records[syllabusID]
	if !ok {
		return nil
	}
	clone := *rec
	clone.CompletedCourses = append([]shared.CourseID(nil), rec.CompletedCourses...)
	clone.StartedCourses = append([]shared.CourseID(nil), rec.StartedCourses...)
	return &clone
}

// Records exports all progress records, ordered by curriculum id.
func (t *Tracker) Records() []ProgressRecord {
	out := make([]ProgressRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *t.Progress(rec.SyllabusID))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SyllabusID < out[j].SyllabusID
	})
	return out
}

// Load replaces tracker content from the durable store.
func (t *Tracker) Load(records []ProgressRecord) {
	t.records = make(map[shared.SyllabusID]*ProgressRecord, len(records))
	for i := range records {
		rec := records[i]
		if rec.CompletedCourses == nil {
			rec.CompletedCourses = []shared.CourseID{}
		}
		if rec.StartedCourses == nil {
			rec.StartedCourses = []shared.CourseID{}
		}
		t.records[rec.SyllabusID] = &rec
	}
}

// Reset drops all records (logout / identity switch).
func (t *Tracker) Reset() {
	t.records = make(map[shared.SyllabusID]*ProgressRecord)
	t.publish()
}

func (t *Tracker) completedSet(syllabusID shared.SyllabusID) map[shared.CourseID]struct{} {
	set := make(map[shared.CourseID]struct{})
	if rec, ok := t.records[syllabusID]; ok {
		for _, id := range rec.CompletedCourses {
			set[id] = struct{}{}
		}
	}
	return set
}
