package model_test

import (
	"testing"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestVerifiable(t *testing.T) {
	rec := &model.MemoryRecord{}
	gt.False(t, rec.Verifiable())

	rec.Metadata = map[string]any{"verifiable": "yes"}
	gt.False(t, rec.Verifiable())

	rec.Metadata = map[string]any{"verifiable": true}
	gt.True(t, rec.Verifiable())
}

func TestContainsEntity(t *testing.T) {
	rec := &model.MemoryRecord{Content: "Lunch with Alex downtown"}
	gt.True(t, rec.ContainsEntity("alex"))
	gt.False(t, rec.ContainsEntity("Luna"))
	gt.False(t, rec.ContainsEntity(""))
}

func TestTierBudgetsAndMultipliers(t *testing.T) {
	gt.V(t, model.TierSimple.Budget()).Equal(25)
	gt.V(t, model.TierModerate.Budget()).Equal(50)
	gt.V(t, model.TierComplex.Budget()).Equal(100)
	gt.V(t, model.TierTranscendent.Budget()).Equal(200)

	gt.V(t, model.TierSimple.Multiplier()).Equal(0.25)
	gt.V(t, model.TierModerate.Multiplier()).Equal(0.5)
	gt.V(t, model.TierComplex.Multiplier()).Equal(1.0)
	gt.V(t, model.TierTranscendent.Multiplier()).Equal(2.0)
}

func TestTierStreams(t *testing.T) {
	gt.A(t, model.TierSimple.Streams()).Length(3)
	gt.A(t, model.TierModerate.Streams()).Length(6)
	gt.A(t, model.TierComplex.Streams()).Length(9)
	gt.A(t, model.TierTranscendent.Streams()).Length(9)

	gt.False(t, model.TierSimple.Enables(model.StreamPattern))
	gt.True(t, model.TierComplex.Enables(model.StreamPattern))
}

func TestIntegrityThresholds(t *testing.T) {
	s := model.IntegrityState{Risk: 0.4, Status: model.IntegrityActive}
	gt.False(t, s.PatternDisabled())
	gt.False(t, s.SemanticDisabled())
	gt.False(t, s.Locked())

	s.Risk = 0.5
	gt.True(t, s.PatternDisabled())
	gt.False(t, s.SemanticDisabled())

	s.Risk = 0.75
	gt.True(t, s.SemanticDisabled())
	gt.False(t, s.Locked())

	s.Risk = 0.9
	gt.True(t, s.Locked())

	s.Risk = 0.1
	s.Status = model.IntegrityLocked
	gt.True(t, s.Locked())
}

func TestCortexVectorAccessorsClamped(t *testing.T) {
	v := model.CortexVector{1.5, -0.3, 0.6}
	gt.V(t, v.Stability()).Equal(1.0)
	gt.V(t, v.TemporalAwareness()).Equal(0.0)
	gt.V(t, v.Coherence()).Equal(0.6)
}

func TestTimeRangeContains(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	r := model.TimeRange{From: now.Add(-time.Hour), To: now}

	gt.True(t, r.Contains(now.Add(-30*time.Minute)))
	gt.True(t, r.Contains(now))
	gt.False(t, r.Contains(now.Add(time.Minute)))

	open := model.TimeRange{From: now.Add(-time.Hour)}
	gt.True(t, open.Contains(now.Add(24*time.Hour)))
}

func TestQueryContextValidate(t *testing.T) {
	qc := &model.QueryContext{Query: "q", UserID: "user-1"}
	gt.NoError(t, qc.Validate())

	gt.Error(t, (&model.QueryContext{UserID: "user-1"}).Validate())
	gt.Error(t, (&model.QueryContext{Query: "q"}).Validate())
}

func TestZeroGravityField(t *testing.T) {
	f := model.ZeroGravityField("session-1")
	gt.V(t, f.SessionID).Equal(model.SessionID("session-1"))
	gt.V(t, f.TotalMass).Equal(0.0)
}
