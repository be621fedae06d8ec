package model

import (
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type RecordID string

// NewRecordID generates a new unique RecordID
func NewRecordID() RecordID {
	return RecordID(uuid.New().String())
}

type SessionID string

type UserID string

// Speaker identifies which side of the conversation produced a record
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerCompanion Speaker = "companion"
)

// MemoryRecord is a stored interaction fragment. Records are owned by the
// store and read-only to the recall engine; Importance ("gravity") is in [0,1].
type MemoryRecord struct {
	ID         RecordID
	Content    string
	CreatedAt  time.Time
	Importance float64
	Emotion    string // empty means no emotion label
	SessionID  SessionID
	Speaker    Speaker
	Metadata   map[string]any
	Embedding  firestore.Vector32 // nil when the record has no embedding
}

// Verifiable reads the optional "verifiable" metadata flag. Absent or
// malformed values read as false.
func (r *MemoryRecord) Verifiable() bool {
	if r.Metadata == nil {
		return false
	}
	v, ok := r.Metadata["verifiable"].(bool)
	return ok && v
}

// ContainsEntity reports whether the record content mentions the entity as a
// case-insensitive substring.
func (r *MemoryRecord) ContainsEntity(entity string) bool {
	if entity == "" {
		return false
	}
	return strings.Contains(strings.ToLower(r.Content), strings.ToLower(entity))
}
