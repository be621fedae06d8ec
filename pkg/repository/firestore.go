package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionMemories = "memories"
	collectionPatterns = "patterns"
	collectionArcs     = "arcs"
	collectionGravity  = "gravity_fields"

	distanceField = "vector_distance"
)

// Firestore implements Store and GravityStore against Cloud Firestore with
// vector search for the semantic stream.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed store.
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}
	return &Firestore{client: client}, nil
}

// Close releases the underlying client.
func (r *Firestore) Close() error {
	return r.client.Close()
}

// memoryDoc is the Firestore document shape for a memory record.
type memoryDoc struct {
	Content    string             `firestore:"content"`
	CreatedAt  time.Time          `firestore:"created_at"`
	Importance float64            `firestore:"importance"`
	Emotion    string             `firestore:"emotion"`
	SessionID  string             `firestore:"session_id"`
	UserID     string             `firestore:"user_id"`
	Speaker    string             `firestore:"speaker"`
	Metadata   map[string]any     `firestore:"metadata"`
	Embedding  firestore.Vector32 `firestore:"embedding"`

	// Populated only by vector queries.
	VectorDistance float64 `firestore:"vector_distance"`
}

func (d *memoryDoc) toRecord(id string) *model.MemoryRecord {
	return &model.MemoryRecord{
		ID:         model.RecordID(id),
		Content:    d.Content,
		CreatedAt:  d.CreatedAt,
		Importance: d.Importance,
		Emotion:    d.Emotion,
		SessionID:  model.SessionID(d.SessionID),
		Speaker:    model.Speaker(d.Speaker),
		Metadata:   d.Metadata,
		Embedding:  d.Embedding,
	}
}

func drainDocs(it *firestore.DocumentIterator) ([]*model.MemoryRecord, error) {
	defer it.Stop()

	var records []*model.MemoryRecord
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents")
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document", goerr.V("doc", doc.Ref.ID))
		}
		records = append(records, d.toRecord(doc.Ref.ID))
	}
	return records, nil
}

func (r *Firestore) byUser(collection string, userID model.UserID) firestore.Query {
	return r.client.Collection(collection).Where("user_id", "==", string(userID))
}

func (r *Firestore) ByImportance(ctx context.Context, userID model.UserID, floor float64, limit int) ([]*model.MemoryRecord, error) {
	it := r.byUser(collectionMemories, userID).
		Where("importance", ">=", floor).
		OrderBy("importance", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	return drainDocs(it)
}

func (r *Firestore) Recent(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	it := r.byUser(collectionMemories, userID).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	return drainDocs(it)
}

// BySubstring filters client-side: Firestore has no substring operator, so
// recent documents are fetched and matched locally.
func (r *Firestore) BySubstring(ctx context.Context, userID model.UserID, terms []string, floor float64, limit int) ([]*model.MemoryRecord, error) {
	fetch := limit * 10
	if fetch > 1000 {
		fetch = 1000
	}
	candidates, err := r.Recent(ctx, userID, fetch)
	if err != nil {
		return nil, err
	}

	var out []*model.MemoryRecord
	for _, rec := range candidates {
		if rec.Importance < floor {
			continue
		}
		content := strings.ToLower(rec.Content)
		for _, term := range terms {
			if term != "" && strings.Contains(content, strings.ToLower(term)) {
				out = append(out, rec)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *Firestore) ByTimeRange(ctx context.Context, userID model.UserID, window model.TimeRange, limit int) ([]*model.MemoryRecord, error) {
	q := r.byUser(collectionMemories, userID)
	if !window.From.IsZero() {
		q = q.Where("created_at", ">=", window.From)
	}
	if !window.To.IsZero() {
		q = q.Where("created_at", "<=", window.To)
	}
	it := q.OrderBy("created_at", firestore.Desc).Limit(limit).Documents(ctx)
	return drainDocs(it)
}

func (r *Firestore) ByEmotion(ctx context.Context, userID model.UserID, emotions []string, floor float64, limit int) ([]*model.MemoryRecord, error) {
	it := r.byUser(collectionMemories, userID).
		Where("emotion", "in", emotions).
		Where("importance", ">=", floor).
		Limit(limit).
		Documents(ctx)
	return drainDocs(it)
}

func (r *Firestore) SessionBuffer(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.MemoryRecord, error) {
	it := r.client.Collection(collectionMemories).
		Where("session_id", "==", string(sessionID)).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	return drainDocs(it)
}

func (r *Firestore) SemanticSearch(ctx context.Context, userID model.UserID, embedding firestore.Vector32, threshold float64, limit int) ([]*SemanticMatch, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	it := r.byUser(collectionMemories, userID).
		FindNearest("embedding", embedding, limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField}).
		Documents(ctx)
	defer it.Stop()

	var matches []*SemanticMatch
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector query")
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode vector result", goerr.V("doc", doc.Ref.ID))
		}

		// Cosine distance is in [0,2]; similarity mirrors it into [-1,1].
		sim := 1.0 - d.VectorDistance
		if sim < threshold {
			continue
		}
		matches = append(matches, &SemanticMatch{Record: d.toRecord(doc.Ref.ID), Similarity: sim})
	}
	return matches, nil
}

func (r *Firestore) Patterns(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	it := r.byUser(collectionPatterns, userID).Limit(limit).Documents(ctx)
	return drainDocs(it)
}

func (r *Firestore) Arcs(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	it := r.byUser(collectionArcs, userID).Limit(limit).Documents(ctx)
	return drainDocs(it)
}

// gravityDoc is the Firestore document shape for a session's gravity field.
type gravityDoc struct {
	TotalMass     float64            `firestore:"total_mass"`
	EntityAnchors map[string]float64 `firestore:"entity_anchors"`
	RecentPeaks   []string           `firestore:"recent_peaks"`
}

func (r *Firestore) Field(ctx context.Context, sessionID model.SessionID) (*model.GravityField, error) {
	doc, err := r.client.Collection(collectionGravity).Doc(string(sessionID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.ZeroGravityField(sessionID), nil
		}
		return nil, goerr.Wrap(err, "failed to get gravity field", goerr.V("session", sessionID))
	}

	var d gravityDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode gravity field", goerr.V("session", sessionID))
	}

	peaks := make([]model.RecordID, 0, len(d.RecentPeaks))
	for _, id := range d.RecentPeaks {
		peaks = append(peaks, model.RecordID(id))
	}
	return &model.GravityField{
		SessionID:     sessionID,
		TotalMass:     d.TotalMass,
		EntityAnchors: d.EntityAnchors,
		RecentPeaks:   peaks,
	}, nil
}
