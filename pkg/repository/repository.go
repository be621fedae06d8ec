package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/halcyonlabs/mnemo/pkg/model"
)

// SemanticMatch pairs a record with its similarity to the query embedding.
type SemanticMatch struct {
	Record     *model.MemoryRecord
	Similarity float64
}

// Store is the read-only query surface the recall engine consumes. Writes
// belong to the ingestion pipeline and are out of scope here. Every method
// must tolerate partial failure per call; the engine recovers stream-locally.
type Store interface {
	// ByImportance returns records at or above the importance floor,
	// ordered by importance descending.
	ByImportance(ctx context.Context, userID model.UserID, floor float64, limit int) ([]*model.MemoryRecord, error)

	// Recent returns the most recent records regardless of importance.
	Recent(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error)

	// BySubstring returns records whose content contains any of the terms
	// (case-insensitive) at or above the importance floor.
	BySubstring(ctx context.Context, userID model.UserID, terms []string, floor float64, limit int) ([]*model.MemoryRecord, error)

	// ByTimeRange returns records created inside the window.
	ByTimeRange(ctx context.Context, userID model.UserID, window model.TimeRange, limit int) ([]*model.MemoryRecord, error)

	// ByEmotion returns records whose emotion label is in the set, at or
	// above the importance floor.
	ByEmotion(ctx context.Context, userID model.UserID, emotions []string, floor float64, limit int) ([]*model.MemoryRecord, error)

	// SessionBuffer returns the most recent records of the session,
	// newest first.
	SessionBuffer(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.MemoryRecord, error)

	// SemanticSearch returns records whose embedding similarity to the
	// query embedding is at or above the threshold, most similar first.
	SemanticSearch(ctx context.Context, userID model.UserID, embedding firestore.Vector32, threshold float64, limit int) ([]*SemanticMatch, error)

	// Patterns returns records from the detected-pattern index.
	Patterns(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error)

	// Arcs returns records from the narrative-arc index.
	Arcs(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error)
}

// GravityStore reads the per-session accumulated importance mass. A missing
// field must be returned as a zero-mass field, not an error.
type GravityStore interface {
	Field(ctx context.Context, sessionID model.SessionID) (*model.GravityField, error)
}
