package model

// ComplexityTier classifies a query and controls which retrieval streams run
// and how large their result budgets are. Computed once per recall call.
type ComplexityTier string

const (
	TierSimple       ComplexityTier = "simple"
	TierModerate     ComplexityTier = "moderate"
	TierComplex      ComplexityTier = "complex"
	TierTranscendent ComplexityTier = "transcendent"
)

// Stream names. Pattern and arc are meta streams enabled at COMPLEX and above.
const (
	StreamBaseline = "baseline"
	StreamRecency  = "recency"
	StreamSemantic = "semantic"
	StreamKeyword  = "keyword"
	StreamTemporal = "temporal"
	StreamEmotion  = "emotion"
	StreamPeak     = "peak"
	StreamPattern  = "pattern"
	StreamArc      = "arc"
	StreamSession  = "session"
)

// Multiplier is applied to every stream's result-count cap.
func (t ComplexityTier) Multiplier() float64 {
	switch t {
	case TierSimple:
		return 0.25
	case TierModerate:
		return 0.5
	case TierTranscendent:
		return 2.0
	default:
		return 1.0
	}
}

// Budget is the maximum number of memories in the final selection.
func (t ComplexityTier) Budget() int {
	switch t {
	case TierSimple:
		return 25
	case TierModerate:
		return 50
	case TierTranscendent:
		return 200
	default:
		return 100
	}
}

// Streams returns the retrieval streams enabled at this tier. The session
// buffer is not listed; it is always fetched.
func (t ComplexityTier) Streams() []string {
	switch t {
	case TierSimple:
		return []string{StreamBaseline, StreamRecency, StreamSemantic}
	case TierModerate:
		return []string{
			StreamBaseline, StreamRecency, StreamSemantic,
			StreamKeyword, StreamTemporal, StreamEmotion,
		}
	default:
		return []string{
			StreamBaseline, StreamRecency, StreamSemantic,
			StreamKeyword, StreamTemporal, StreamEmotion,
			StreamPeak, StreamPattern, StreamArc,
		}
	}
}

// Enables reports whether the named stream runs at this tier.
func (t ComplexityTier) Enables(stream string) bool {
	for _, s := range t.Streams() {
		if s == stream {
			return true
		}
	}
	return false
}
