package model

// IntegrityStatus controls how defensively recall behaves.
type IntegrityStatus string

const (
	IntegrityActive    IntegrityStatus = "active"
	IntegrityProtected IntegrityStatus = "protected"
	IntegrityLocked    IntegrityStatus = "locked"
)

// CortexVector is an opaque 10-dimension behavioral signal computed outside
// the recall engine. Only named accessors are consumed here.
type CortexVector [10]float64

// Stability scales the importance weight during scoring.
func (v CortexVector) Stability() float64 { return clamp01(v[0]) }

// TemporalAwareness scales the recency weight during scoring.
func (v CortexVector) TemporalAwareness() float64 { return clamp01(v[1]) }

// Coherence scales the emotion-match term during scoring.
func (v CortexVector) Coherence() float64 { return clamp01(v[2]) }

// IntegrityState carries the externally computed caution signals.
type IntegrityState struct {
	Risk   float64 // 0..1, higher means more cautious retrieval
	Vector CortexVector
	Status IntegrityStatus
}

// Risk thresholds at which individual capabilities shut off.
const (
	RiskDisablePattern  = 0.5
	RiskDisableSemantic = 0.75
	RiskLockdown        = 0.9
)

// Locked reports whether recall must short-circuit to a degraded response.
func (s IntegrityState) Locked() bool {
	return s.Status == IntegrityLocked || s.Risk >= RiskLockdown
}

// SemanticDisabled reports whether embedding generation and the semantic
// stream are bypassed entirely.
func (s IntegrityState) SemanticDisabled() bool {
	return s.Risk >= RiskDisableSemantic
}

// PatternDisabled reports whether the detected-pattern meta stream is skipped.
func (s IntegrityState) PatternDisabled() bool {
	return s.Risk >= RiskDisablePattern
}

// DefaultIntegrityState is the conservative fallback used when the external
// integrity provider is unavailable: protected mode with a neutral vector.
func DefaultIntegrityState() IntegrityState {
	return IntegrityState{
		Risk:   0.5,
		Vector: CortexVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
		Status: IntegrityProtected,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
