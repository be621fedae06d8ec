package repository

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/viterin/vek/vek32"
	_ "modernc.org/sqlite"
)

// SQLite implements Store and GravityStore against a local database, for
// companions running on-device. Vector ranking happens in-process because
// SQLite cannot rank embeddings.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to migrate sqlite schema")
	}
	return s, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		session_id  TEXT NOT NULL,
		content     TEXT NOT NULL,
		speaker     TEXT NOT NULL DEFAULT 'companion',
		importance  REAL NOT NULL DEFAULT 0,
		emotion     TEXT,
		idx         TEXT NOT NULL DEFAULT 'memory',
		created_at  TEXT NOT NULL,
		meta        TEXT,
		embedding   BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id, idx);
	CREATE INDEX IF NOT EXISTS idx_memories_session ON memories(session_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(user_id, importance DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS gravity_fields (
		session_id  TEXT PRIMARY KEY,
		total_mass  REAL NOT NULL DEFAULT 0,
		anchors     TEXT,
		peaks       TEXT
	);`

	_, err := s.db.Exec(schema)
	return err
}

const memoryColumns = "id, user_id, session_id, content, speaker, importance, emotion, created_at, meta, embedding"

func scanRecord(rows *sql.Rows) (*model.MemoryRecord, error) {
	var (
		id, userID, sessionID, content, speaker string
		importance                              float64
		emotion, meta                           sql.NullString
		createdAt                               string
		embedding                               []byte
	)
	if err := rows.Scan(&id, &userID, &sessionID, &content, &speaker, &importance, &emotion, &createdAt, &meta, &embedding); err != nil {
		return nil, goerr.Wrap(err, "failed to scan memory row")
	}

	rec := &model.MemoryRecord{
		ID:         model.RecordID(id),
		Content:    content,
		Importance: importance,
		SessionID:  model.SessionID(sessionID),
		Speaker:    model.Speaker(speaker),
	}
	if emotion.Valid {
		rec.Emotion = emotion.String
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	if meta.Valid && meta.String != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(meta.String), &m); err == nil {
			rec.Metadata = m
		}
	}
	if len(embedding) > 0 {
		rec.Embedding = decodeVector(embedding)
	}
	return rec, nil
}

func drainRows(rows *sql.Rows) ([]*model.MemoryRecord, error) {
	defer rows.Close()
	var out []*model.MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// sqlLimit maps the Store convention of "0 means unlimited" onto SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]*model.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query memories")
	}
	return drainRows(rows)
}

func (s *SQLite) ByImportance(ctx context.Context, userID model.UserID, floor float64, limit int) ([]*model.MemoryRecord, error) {
	return s.query(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE user_id = ? AND idx = 'memory' AND importance >= ? ORDER BY importance DESC LIMIT ?",
		string(userID), floor, sqlLimit(limit))
}

func (s *SQLite) Recent(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	return s.query(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE user_id = ? AND idx = 'memory' ORDER BY created_at DESC LIMIT ?",
		string(userID), sqlLimit(limit))
}

func (s *SQLite) BySubstring(ctx context.Context, userID model.UserID, terms []string, floor float64, limit int) ([]*model.MemoryRecord, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	conds := make([]string, 0, len(terms))
	args := []any{string(userID), floor}
	for _, term := range terms {
		conds = append(conds, "content LIKE ? COLLATE NOCASE")
		args = append(args, "%"+term+"%")
	}
	args = append(args, sqlLimit(limit))

	return s.query(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE user_id = ? AND idx = 'memory' AND importance >= ? AND ("+
			strings.Join(conds, " OR ")+") ORDER BY created_at DESC LIMIT ?",
		args...)
}

func (s *SQLite) ByTimeRange(ctx context.Context, userID model.UserID, window model.TimeRange, limit int) ([]*model.MemoryRecord, error) {
	q := "SELECT " + memoryColumns + " FROM memories WHERE user_id = ? AND idx = 'memory'"
	args := []any{string(userID)}
	if !window.From.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, window.From.UTC().Format(time.RFC3339Nano))
	}
	if !window.To.IsZero() {
		q += " AND created_at <= ?"
		args = append(args, window.To.UTC().Format(time.RFC3339Nano))
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, sqlLimit(limit))
	return s.query(ctx, q, args...)
}

func (s *SQLite) ByEmotion(ctx context.Context, userID model.UserID, emotions []string, floor float64, limit int) ([]*model.MemoryRecord, error) {
	if len(emotions) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(emotions)), ",")
	args := []any{string(userID), floor}
	for _, e := range emotions {
		args = append(args, strings.ToLower(e))
	}
	args = append(args, sqlLimit(limit))

	return s.query(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE user_id = ? AND idx = 'memory' AND importance >= ? AND LOWER(emotion) IN ("+
			placeholders+") LIMIT ?",
		args...)
}

func (s *SQLite) SessionBuffer(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.MemoryRecord, error) {
	return s.query(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE session_id = ? AND idx = 'memory' ORDER BY created_at DESC LIMIT ?",
		string(sessionID), sqlLimit(limit))
}

func (s *SQLite) SemanticSearch(ctx context.Context, userID model.UserID, embedding firestore.Vector32, threshold float64, limit int) ([]*SemanticMatch, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	records, err := s.query(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE user_id = ? AND idx = 'memory' AND embedding IS NOT NULL",
		string(userID))
	if err != nil {
		return nil, err
	}

	var matches []*SemanticMatch
	for _, rec := range records {
		if len(rec.Embedding) != len(embedding) {
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

func (s *SQLite) Patterns(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	return s.query(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE user_id = ? AND idx = 'pattern' ORDER BY created_at DESC LIMIT ?",
		string(userID), sqlLimit(limit))
}

func (s *SQLite) Arcs(ctx context.Context, userID model.UserID, limit int) ([]*model.MemoryRecord, error) {
	return s.query(ctx,
		"SELECT "+memoryColumns+" FROM memories WHERE user_id = ? AND idx = 'arc' ORDER BY created_at DESC LIMIT ?",
		string(userID), sqlLimit(limit))
}

func (s *SQLite) Field(ctx context.Context, sessionID model.SessionID) (*model.GravityField, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT total_mass, anchors, peaks FROM gravity_fields WHERE session_id = ?",
		string(sessionID))

	var (
		totalMass      float64
		anchors, peaks sql.NullString
	)
	if err := row.Scan(&totalMass, &anchors, &peaks); err != nil {
		if err == sql.ErrNoRows {
			return model.ZeroGravityField(sessionID), nil
		}
		return nil, goerr.Wrap(err, "failed to read gravity field", goerr.V("session", sessionID))
	}

	field := &model.GravityField{SessionID: sessionID, TotalMass: totalMass}
	if anchors.Valid && anchors.String != "" {
		_ = json.Unmarshal([]byte(anchors.String), &field.EntityAnchors)
	}
	if peaks.Valid && peaks.String != "" {
		var ids []string
		_ = json.Unmarshal([]byte(peaks.String), &ids)
		for _, id := range ids {
			field.RecentPeaks = append(field.RecentPeaks, model.RecordID(id))
		}
	}
	return field, nil
}

// Seed inserts records for local development and tests. Ingestion proper is
// an external pipeline; this is not part of the Store surface.
func (s *SQLite) Seed(ctx context.Context, userID model.UserID, index string, records ...*model.MemoryRecord) error {
	for _, rec := range records {
		var meta []byte
		if rec.Metadata != nil {
			meta, _ = json.Marshal(rec.Metadata)
		}
		var emb []byte
		if len(rec.Embedding) > 0 {
			emb = encodeVector(rec.Embedding)
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO memories (id, user_id, session_id, content, speaker, importance, emotion, idx, created_at, meta, embedding)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(rec.ID), string(userID), string(rec.SessionID), rec.Content, string(rec.Speaker),
			rec.Importance, rec.Emotion, index, rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(meta), emb)
		if err != nil {
			return goerr.Wrap(err, "failed to seed record", goerr.V("id", rec.ID))
		}
	}
	return nil
}

// SeedGravity installs the gravity field for a session.
func (s *SQLite) SeedGravity(ctx context.Context, field *model.GravityField) error {
	anchors, _ := json.Marshal(field.EntityAnchors)
	peaks, _ := json.Marshal(field.RecentPeaks)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO gravity_fields (session_id, total_mass, anchors, peaks) VALUES (?, ?, ?, ?)`,
		string(field.SessionID), field.TotalMass, string(anchors), string(peaks))
	if err != nil {
		return goerr.Wrap(err, "failed to seed gravity field", goerr.V("session", field.SessionID))
	}
	return nil
}

func encodeVector(v firestore.Vector32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) firestore.Vector32 {
	v := make(firestore.Vector32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
