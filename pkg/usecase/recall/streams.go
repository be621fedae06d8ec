package recall

import (
	"context"
	"math"
	"sync"

	"github.com/halcyonlabs/mnemo/pkg/adapter"
	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/halcyonlabs/mnemo/pkg/repository"
	"github.com/halcyonlabs/mnemo/pkg/utils/logging"
)

// streamHit is one raw record surfaced by one stream.
type streamHit struct {
	stream     string
	record     *model.MemoryRecord
	similarity float64
}

// streamOutcome is the settled result of one stream operation. A failed
// stream carries its error here and contributes no hits; it never aborts
// the call.
type streamOutcome struct {
	name      string
	hits      []streamHit
	threshold float64 // set by the semantic stream only
	err       error
}

func (u *UseCase) streamCap(tier model.ComplexityTier) int {
	c := int(math.Round(float64(u.tuning.BaseCap) * tier.Multiplier()))
	if c < 1 {
		c = 1
	}
	return c
}

// runStreams dispatches every enabled stream concurrently and collects their
// settled outcomes. No ordering is guaranteed between streams; fusion makes
// the result order-independent.
func (u *UseCase) runStreams(ctx context.Context, qc *model.QueryContext, tier model.ComplexityTier, window *model.TimeRange) []streamOutcome {
	limit := u.streamCap(tier)

	type streamFn func(ctx context.Context) ([]streamHit, float64, error)
	streams := map[string]streamFn{
		model.StreamBaseline: func(ctx context.Context) ([]streamHit, float64, error) {
			floor := u.tuning.ImportanceFloor
			if qc.Integrity.Risk >= model.RiskDisablePattern {
				floor += 0.1
			}
			records, err := u.store.ByImportance(ctx, qc.UserID, floor, limit)
			return plainHits(model.StreamBaseline, records), 0, err
		},
		model.StreamRecency: func(ctx context.Context) ([]streamHit, float64, error) {
			records, err := u.store.Recent(ctx, qc.UserID, limit)
			return plainHits(model.StreamRecency, records), 0, err
		},
		model.StreamSemantic: func(ctx context.Context) ([]streamHit, float64, error) {
			return u.semanticStream(ctx, qc, limit)
		},
		model.StreamKeyword: func(ctx context.Context) ([]streamHit, float64, error) {
			if len(qc.Entities) == 0 {
				return nil, 0, nil
			}
			records, err := u.store.BySubstring(ctx, qc.UserID, qc.Entities, u.tuning.KeywordFloor, limit)
			return plainHits(model.StreamKeyword, records), 0, err
		},
		model.StreamTemporal: func(ctx context.Context) ([]streamHit, float64, error) {
			if window == nil {
				return nil, 0, nil
			}
			records, err := u.store.ByTimeRange(ctx, qc.UserID, *window, limit)
			return plainHits(model.StreamTemporal, records), 0, err
		},
		model.StreamEmotion: func(ctx context.Context) ([]streamHit, float64, error) {
			if len(qc.EmotionFilter) == 0 {
				return nil, 0, nil
			}
			records, err := u.store.ByEmotion(ctx, qc.UserID, qc.EmotionFilter, u.tuning.ImportanceFloor, limit)
			return plainHits(model.StreamEmotion, records), 0, err
		},
		model.StreamPeak: func(ctx context.Context) ([]streamHit, float64, error) {
			records, err := u.store.ByImportance(ctx, qc.UserID, u.tuning.PeakFloor, limit)
			return plainHits(model.StreamPeak, records), 0, err
		},
		model.StreamPattern: func(ctx context.Context) ([]streamHit, float64, error) {
			if qc.Integrity.PatternDisabled() {
				return nil, 0, nil
			}
			records, err := u.store.Patterns(ctx, qc.UserID, limit)
			return plainHits(model.StreamPattern, records), 0, err
		},
		model.StreamArc: func(ctx context.Context) ([]streamHit, float64, error) {
			records, err := u.store.Arcs(ctx, qc.UserID, limit)
			return plainHits(model.StreamArc, records), 0, err
		},
	}

	enabled := tier.Streams()
	outcomes := make([]streamOutcome, len(enabled))

	var wg sync.WaitGroup
	for i, name := range enabled {
		fn := streams[name]
		wg.Add(1)
		go func(i int, name string, fn streamFn) {
			defer wg.Done()

			streamCtx, cancel := context.WithTimeout(ctx, u.tuning.StreamTimeout)
			defer cancel()

			u.counter.Inc("stream.invoked." + name)
			hits, threshold, err := fn(streamCtx)
			if err != nil {
				logging.From(ctx).Warn("stream failed, substituting empty result",
					"stream", name, "error", err)
				u.counter.Inc("stream.failed." + name)
				outcomes[i] = streamOutcome{name: name, threshold: threshold, err: err}
				return
			}
			outcomes[i] = streamOutcome{name: name, hits: hits, threshold: threshold}
		}(i, name, fn)
	}
	wg.Wait()

	return outcomes
}

// semanticStream embeds the query and searches by vector similarity with an
// adaptive threshold: an oversized raw hit count raises the bar for a
// second, stricter pass; a starved one lowers it.
func (u *UseCase) semanticStream(ctx context.Context, qc *model.QueryContext, limit int) ([]streamHit, float64, error) {
	threshold := u.tuning.SemanticThreshold

	if qc.Integrity.SemanticDisabled() || u.embedder == nil {
		return nil, threshold, nil
	}

	embedding, err := u.embedder.Embed(ctx, qc.Query)
	if err != nil {
		// Embedding unavailability degrades to the zero-vector sentinel,
		// which matches nothing.
		logging.From(ctx).Warn("embedding unavailable, using zero vector", "error", err)
		embedding = adapter.ZeroVector(u.embedder.Dims())
	}
	if adapter.IsZeroVector(embedding) {
		return nil, threshold, nil
	}

	probe, err := u.store.SemanticSearch(ctx, qc.UserID, embedding, threshold, u.tuning.SemanticRaiseAt+1)
	if err != nil {
		return nil, threshold, err
	}

	adjusted := threshold
	switch {
	case len(probe) > u.tuning.SemanticRaiseAt:
		adjusted = math.Min(threshold+u.tuning.SemanticStep, u.tuning.SemanticThresholdMax)
	case len(probe) < u.tuning.SemanticLowerAt:
		adjusted = math.Max(threshold-u.tuning.SemanticStep, u.tuning.SemanticThresholdMin)
	}

	matches := probe
	if adjusted != threshold {
		matches, err = u.store.SemanticSearch(ctx, qc.UserID, embedding, adjusted, limit)
		if err != nil {
			return nil, adjusted, err
		}
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return semanticHits(matches), adjusted, nil
}

func plainHits(stream string, records []*model.MemoryRecord) []streamHit {
	hits := make([]streamHit, 0, len(records))
	for _, rec := range records {
		hits = append(hits, streamHit{stream: stream, record: rec})
	}
	return hits
}

func semanticHits(matches []*repository.SemanticMatch) []streamHit {
	hits := make([]streamHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, streamHit{stream: model.StreamSemantic, record: m.Record, similarity: m.Similarity})
	}
	return hits
}

// sessionHits tags the pre-fetched session buffer as its own stream.
func sessionHits(records []*model.MemoryRecord) []streamHit {
	return plainHits(model.StreamSession, records)
}
