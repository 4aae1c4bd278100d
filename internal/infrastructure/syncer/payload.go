// Package syncer implements the best-effort synchronization protocol between
// the local ledgers (client cache) and the remote progress store (source of
// truth): debounced background writes, forced writes at teardown, and the
// fire-and-forget fallback transport.
package syncer

import (
	"encoding/json"

	"github.com/learnhub/learning-progress-hub/internal/domain/learner"
	"github.com/learnhub/learning-progress-hub/internal/domain/mistake"
)

// Payload is the single JSON object exchanged with the remote store:
// the progress snapshot fields plus the wrong-question list.
type Payload struct {
	learner.Snapshot
	WrongQuestions []mistake.Record `json:"wrongQuestions"`
}

// NewPayload assembles a payload from ledger state.
func NewPayload(snapshot learner.Snapshot, wrongQuestions []mistake.Record) Payload {
	if wrongQuestions == nil {
		wrongQuestions = []mistake.Record{}
	}
	return Payload{Snapshot: snapshot, WrongQuestions: wrongQuestions}
}

// Marshal serializes the payload. The serialized form doubles as the
// change-detection key of the sync observer.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Normalize repairs nil collections after deserialization.
func (p *Payload) Normalize() {
	p.Snapshot.Normalize()
	if p.WrongQuestions == nil {
		p.WrongQuestions = []mistake.Record{}
	}
}
