package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/viterin/vek/vek32"
)

// Memory is an in-process store used by the repl's memory backend and by
// tests. It implements both Store and GravityStore.
type Memory struct {
	mu       sync.RWMutex
	records  []*model.MemoryRecord
	patterns []*model.MemoryRecord
	arcs     []*model.MemoryRecord
	gravity  map[model.SessionID]*model.GravityField
	users    map[model.RecordID]model.UserID
}

func NewMemory() *Memory {
	return &Memory{
		gravity: make(map[model.SessionID]*model.GravityField),
		users:   make(map[model.RecordID]model.UserID),
	}
}

// Put adds records for a user. Existing records with the same ID are replaced.
func (m *Memory) Put(userID model.UserID, records ...*model.MemoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		replaced := false
		for i, prev := range m.records {
			if prev.ID == rec.ID {
				m.records[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			m.records = append(m.records, rec)
		}
		m.users[rec.ID] = userID
	}
}

// PutPattern adds a record to the detected-pattern index.
func (m *Memory) PutPattern(userID model.UserID, rec *model.MemoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, rec)
	m.users[rec.ID] = userID
}

// PutArc adds a record to the narrative-arc index.
func (m *Memory) PutArc(userID model.UserID, rec *model.MemoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arcs = append(m.arcs, rec)
	m.users[rec.ID] = userID
}

// SetGravity installs the gravity field for a session.
func (m *Memory) SetGravity(field *model.GravityField) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gravity[field.SessionID] = field
}

func (m *Memory) owned(userID model.UserID, rec *model.MemoryRecord) bool {
	return m.users[rec.ID] == userID
}

func (m *Memory) collect(userID model.UserID, limit int, keep func(*model.MemoryRecord) bool) []*model.MemoryRecord {
	var out []*model.MemoryRecord
	for _, rec := range m.records {
		if !m.owned(userID, rec) || !keep(rec) {
			continue
		}
		out = append(out, rec)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *Memory) ByImportance(ctx context.Context, userID model.UserID, floor float64, limit int) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.collect(userID, 0, func(r *model.MemoryRecord) bool { return r.Importance >= floor })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Recent(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.collect(userID, 0, func(*model.MemoryRecord) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) BySubstring(ctx context.Context, userID model.UserID, terms []string, floor float64, limit int) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(userID, limit, func(r *model.MemoryRecord) bool {
		if r.Importance < floor {
			return false
		}
		content := strings.ToLower(r.Content)
		for _, term := range terms {
			if term != "" && strings.Contains(content, strings.ToLower(term)) {
				return true
			}
		}
		return false
	}), nil
}

func (m *Memory) ByTimeRange(ctx context.Context, userID model.UserID, window model.TimeRange, limit int) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(userID, limit, func(r *model.MemoryRecord) bool {
		return window.Contains(r.CreatedAt)
	}), nil
}

func (m *Memory) ByEmotion(ctx context.Context, userID model.UserID, emotions []string, floor float64, limit int) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(userID, limit, func(r *model.MemoryRecord) bool {
		if r.Importance < floor || r.Emotion == "" {
			return false
		}
		for _, e := range emotions {
			if strings.EqualFold(r.Emotion, e) {
				return true
			}
		}
		return false
	}), nil
}

func (m *Memory) SessionBuffer(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.MemoryRecord
	for _, rec := range m.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SemanticSearch(ctx context.Context, userID model.UserID, embedding firestore.Vector32, threshold float64, limit int) ([]*SemanticMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*SemanticMatch
	for _, rec := range m.records {
		if !m.owned(userID, rec) || len(rec.Embedding) != len(embedding) || len(embedding) == 0 {
			continue
		}
		sim := float64(vek32.CosineSimilarity(rec.Embedding, embedding))
		if sim >= threshold {
			matches = append(matches, &SemanticMatch{Record: rec, Similarity: sim})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Memory) Patterns(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.MemoryRecord
	for _, rec := range m.patterns {
		if m.owned(userID, rec) {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Arcs(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.MemoryRecord
	for _, rec := range m.arcs {
		if m.owned(userID, rec) {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Field(ctx context.Context, sessionID model.SessionID) (*model.GravityField, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.gravity[sessionID]; ok {
		return f, nil
	}
	return model.ZeroGravityField(sessionID), nil
}
