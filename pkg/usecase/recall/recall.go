package recall

import (
	"context"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/adapter"
	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/halcyonlabs/mnemo/pkg/repository"
	"github.com/halcyonlabs/mnemo/pkg/service/policy"
	"github.com/halcyonlabs/mnemo/pkg/utils/logging"
	"github.com/halcyonlabs/mnemo/pkg/utils/metrics"
)

// lockedAdvisory replaces memory content when integrity lockdown applies.
const lockedAdvisory = "Memory recall is temporarily limited while the companion is in a protective state."

// UseCase assembles the most relevant subset of a user's memories for a
// query. Everything it produces is created fresh per call; nothing is cached
// across calls.
type UseCase struct {
	store    repository.Store
	gravity  repository.GravityStore
	embedder adapter.Embedder
	gate     *policy.Provider
	counter  metrics.Counter
	tuning   Tuning
	now      func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithEmbedder sets the embedding provider; without one the semantic stream
// always yields nothing.
func WithEmbedder(e adapter.Embedder) Option {
	return func(u *UseCase) { u.embedder = e }
}

// WithGravityStore sets the gravity-field reader.
func WithGravityStore(g repository.GravityStore) Option {
	return func(u *UseCase) { u.gravity = g }
}

// WithPolicy sets the optional integrity gate policy.
func WithPolicy(p *policy.Provider) Option {
	return func(u *UseCase) { u.gate = p }
}

// WithCounter sets the metrics sink.
func WithCounter(c metrics.Counter) Option {
	return func(u *UseCase) { u.counter = c }
}

// WithTuning overrides the default tunables.
func WithTuning(t Tuning) Option {
	return func(u *UseCase) { u.tuning = t }
}

// WithClock fixes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(u *UseCase) { u.now = now }
}

// New creates a recall UseCase backed by the given store.
func New(store repository.Store, opts ...Option) *UseCase {
	u := &UseCase{
		store:   store,
		counter: metrics.Discard,
		tuning:  DefaultTuning(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Input contains the parameters of one recall call.
type Input struct {
	Query     string
	SessionID model.SessionID
	UserID    model.UserID

	EmotionFilter []string
	TimeRange     *model.TimeRange

	Integrity    *model.IntegrityState
	Gravity      *model.GravityField
	Conversation model.ConversationContext
}

// Recall runs the full pipeline: lexical analysis, complexity
// classification, concurrent stream retrieval, fusion, scoring, selection,
// clustering, and synthesis. Input validation is the only failure that
// surfaces; everything downstream recovers stage-locally.
func (u *UseCase) Recall(ctx context.Context, input Input) (*model.RecallResult, error) {
	started := u.now()
	logger := logging.From(ctx)

	qc := &model.QueryContext{
		Query:         input.Query,
		SessionID:     input.SessionID,
		UserID:        input.UserID,
		EmotionFilter: input.EmotionFilter,
		TimeRange:     input.TimeRange,
		Conversation:  input.Conversation,
	}
	if err := qc.Validate(); err != nil {
		return nil, err
	}

	if input.Integrity != nil {
		qc.Integrity = *input.Integrity
	} else {
		// Conservative default when the integrity provider is unavailable.
		qc.Integrity = model.DefaultIntegrityState()
	}
	u.applyPolicy(ctx, qc)

	// Safety gate: lockdown short-circuits before any stream runs.
	if qc.Integrity.Locked() {
		u.counter.Inc("recall.locked")
		return &model.RecallResult{
			Advisory: lockedAdvisory,
			Diagnostics: model.Diagnostics{
				Tier:     model.TierSimple,
				Degraded: true,
				Elapsed:  u.now().Sub(started),
			},
		}, nil
	}

	// The session buffer comes first: pronoun resolution and
	// session-affinity scoring depend on it.
	buffer, err := u.store.SessionBuffer(ctx, qc.SessionID, u.tuning.SessionBufferSize)
	if err != nil {
		logger.Warn("session buffer unavailable", "session", qc.SessionID, "error", err)
		u.counter.Inc("stream.failed." + model.StreamSession)
		buffer = nil
	}

	turns := make([]model.SessionTurn, 0, len(buffer))
	for _, rec := range buffer {
		turns = append(turns, model.SessionTurn{Speaker: rec.Speaker, Text: rec.Content})
	}

	qc.Entities = u.analyzeEntities(ctx, qc.Query, qc.UserID, turns)

	window := qc.TimeRange
	if window == nil && qc.Strategy.TimeWindow != nil {
		window = qc.Strategy.TimeWindow
	}
	if window == nil {
		window = inferTimeWindow(qc.Query, u.now())
	}

	temporalRange := hasBetweenSemantics(qc.Query) ||
		(qc.TimeRange != nil && !qc.TimeRange.From.IsZero() && !qc.TimeRange.To.IsZero())

	tier := Classify(qc.Query, len(qc.Entities), temporalRange)
	u.counter.Inc("recall.tier." + string(tier))

	if input.Gravity != nil {
		qc.Gravity = input.Gravity
	} else if u.gravity != nil {
		field, err := u.gravity.Field(ctx, qc.SessionID)
		if err != nil {
			logger.Warn("gravity field unavailable, using zero mass", "error", err)
			field = model.ZeroGravityField(qc.SessionID)
		}
		qc.Gravity = field
	} else {
		qc.Gravity = model.ZeroGravityField(qc.SessionID)
	}

	outcomes := u.runStreams(ctx, qc, tier, window)

	fused := fuse(outcomes, sessionHits(buffer), tier.Budget()*u.tuning.FusedCapFactor)
	scored := u.scoreCandidates(qc, tier, fused)

	budget := tier.Budget()
	if qc.Strategy.TopK > 0 && qc.Strategy.TopK < budget {
		budget = qc.Strategy.TopK
	}
	selected := selectTop(scored, budget)
	clusters := clusterByPeriod(selected, u.now())

	themes := deriveThemes(selected)
	journey := deriveJourney(selected)
	graph := deriveGraph(selected, qc.Entities)
	synthesis := u.synthesize(qc, selected, themes)

	diag := model.Diagnostics{
		Tier:          tier,
		Entities:      qc.Entities,
		StreamCounts:  make(map[string]int, len(outcomes)+1),
		FusedCount:    len(fused),
		SelectedCount: len(selected),
		Elapsed:       u.now().Sub(started),
	}
	diag.StreamCounts[model.StreamSession] = len(buffer)
	diag.SemanticThreshold = u.tuning.SemanticThreshold
	for _, outcome := range outcomes {
		diag.StreamCounts[outcome.name] = len(outcome.hits)
		if outcome.err != nil {
			diag.StreamErrors++
		}
		if outcome.name == model.StreamSemantic && outcome.threshold > 0 {
			diag.SemanticThreshold = outcome.threshold
		}
	}

	logger.Debug("recall complete",
		"tier", tier,
		"entities", len(qc.Entities),
		"fused", len(fused),
		"selected", len(selected),
		"stream_errors", diag.StreamErrors,
	)

	return &model.RecallResult{
		Memories:    selected,
		Clusters:    clusters,
		Themes:      themes,
		Journey:     journey,
		Graph:       graph,
		Synthesis:   synthesis,
		Diagnostics: diag,
	}, nil
}

// applyPolicy lets the optional rego gate override the integrity status and
// shape the recall strategy. Policy failure leaves the state untouched.
func (u *UseCase) applyPolicy(ctx context.Context, qc *model.QueryContext) {
	if u.gate == nil || !u.gate.Enabled() {
		return
	}

	decision, err := u.gate.Decide(ctx, qc.Integrity)
	if err != nil {
		logging.From(ctx).Warn("gate policy evaluation failed", "error", err)
		return
	}
	if decision == nil {
		return
	}

	if decision.Status != "" {
		qc.Integrity.Status = decision.Status
	}
	if decision.TopK > 0 {
		qc.Strategy.TopK = decision.TopK
	}
	if len(decision.AnchorEntities) > 0 {
		qc.Strategy.AnchorEntities = decision.AnchorEntities
	}
	if len(decision.PreferredTypes) > 0 {
		qc.Strategy.PreferredTypes = decision.PreferredTypes
	}
	qc.Strategy.AnchorBias = qc.Strategy.AnchorBias || decision.AnchorBias
}
