package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrEmptyQuery  = goerr.New("query text is empty")
	ErrMissingUser = goerr.New("user id is required")
)

// TimeRange is an inclusive time window filter.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range. Zero endpoints are open.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// RecallStrategy is the hint emitted by the integrity provider (or policy)
// about how retrieval should be shaped for the current state.
type RecallStrategy struct {
	TopK           int
	TimeWindow     *TimeRange
	AnchorEntities []string
	PreferredTypes []string
	AnchorBias     bool
}

// ConversationContext carries short-horizon salience from the orchestrator:
// what the conversation is about right now.
type ConversationContext struct {
	RecentEntities  []string
	CurrentEntities []string
	RecentTopics    []string
	DominantEmotion string
}

// SessionTurn is one prior turn of the active session, used for pronoun
// resolution. Read-only.
type SessionTurn struct {
	Speaker Speaker
	Text    string
}

// QueryContext is the fully resolved input to the retrieval pipeline. It is
// created fresh per recall invocation and discarded afterwards.
type QueryContext struct {
	Query     string
	SessionID SessionID
	UserID    UserID

	Entities      []string
	EmotionFilter []string
	TimeRange     *TimeRange

	Strategy     RecallStrategy
	Integrity    IntegrityState
	Gravity      *GravityField
	Conversation ConversationContext
}

// Validate rejects malformed input before any stream runs.
func (q *QueryContext) Validate() error {
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.UserID == "" {
		return ErrMissingUser
	}
	return nil
}
