package model

import "time"

// FusedCandidate wraps a MemoryRecord with the retrieval streams that
// surfaced it and the maximum semantic similarity observed across streams.
// At most one FusedCandidate exists per record id within a recall call.
type FusedCandidate struct {
	Record     *MemoryRecord
	Sources    []string
	Similarity float64
}

// HasSource reports whether the named stream surfaced this candidate.
func (c *FusedCandidate) HasSource(stream string) bool {
	for _, s := range c.Sources {
		if s == stream {
			return true
		}
	}
	return false
}

// AddSource records a stream tag, preserving set semantics.
func (c *FusedCandidate) AddSource(stream string) {
	if !c.HasSource(stream) {
		c.Sources = append(c.Sources, stream)
	}
}

// MetaSourced reports whether a meta stream (pattern or arc) surfaced this
// candidate.
func (c *FusedCandidate) MetaSourced() bool {
	return c.HasSource(StreamPattern) || c.HasSource(StreamArc)
}

// ScoredCandidate is a fused candidate with its final relevance score in
// [0,1]. Breakdown is diagnostic only and never consumed downstream.
type ScoredCandidate struct {
	FusedCandidate
	Score     float64
	Breakdown map[string]float64
}

// Cluster groups selected candidates into a time period.
type Cluster struct {
	Period          string
	Members         []*ScoredCandidate
	DominantEmotion string
	Theme           string
	Coherence       float64
}

// EmotionalJourney summarizes the emotional trajectory of the selection.
type EmotionalJourney struct {
	DominantEmotions []string
	ShiftCount       int
	Stability        float64 // 1 - shifts/(n-1)
}

// RelationshipGraph is the co-occurrence graph between resolved entities
// across the selected records, plus arc-derived clusters.
type RelationshipGraph struct {
	Edges       []RelationshipEdge
	ArcClusters []string
}

type RelationshipEdge struct {
	From  string
	To    string
	Count int
}

// Diagnostics records per-stage counts and the thresholds used, so callers
// can explain an empty or degraded result.
type Diagnostics struct {
	Tier              ComplexityTier
	Entities          []string
	StreamCounts      map[string]int
	StreamErrors      int
	FusedCount        int
	SelectedCount     int
	SemanticThreshold float64
	Degraded          bool
	Elapsed           time.Duration
}

// RecallResult is the single exposed output of the engine.
type RecallResult struct {
	Memories    []*ScoredCandidate
	Clusters    []*Cluster
	Themes      []string
	Journey     EmotionalJourney
	Graph       RelationshipGraph
	Synthesis   string
	Advisory    string // set in locked/high-risk mode
	Diagnostics Diagnostics
}
