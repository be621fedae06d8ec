package recall

import (
	"testing"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/m-mizutani/gt"
)

func scoredCandidate(id string, score float64, createdAt time.Time) *model.ScoredCandidate {
	return &model.ScoredCandidate{
		FusedCandidate: model.FusedCandidate{
			Record: &model.MemoryRecord{
				ID:        model.RecordID(id),
				Content:   "content " + id,
				CreatedAt: createdAt,
				Speaker:   model.SpeakerCompanion,
			},
		},
		Score: score,
	}
}

func TestSelectTop(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	scored := []*model.ScoredCandidate{
		scoredCandidate("a", 0.3, base),
		scoredCandidate("b", 0.9, base),
		scoredCandidate("c", 0.5, base),
		scoredCandidate("d", 0.5, base.Add(time.Hour)),
	}

	selected := selectTop(scored, 3)
	gt.A(t, selected).Length(3)
	gt.V(t, selected[0].Record.ID).Equal(model.RecordID("b"))
	// Score tie between c and d: the newer record wins.
	gt.V(t, selected[1].Record.ID).Equal(model.RecordID("d"))
	gt.V(t, selected[2].Record.ID).Equal(model.RecordID("c"))
}

func TestSelectTopDoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	scored := []*model.ScoredCandidate{
		scoredCandidate("a", 0.3, base),
		scoredCandidate("b", 0.9, base),
	}

	_ = selectTop(scored, 1)
	gt.V(t, scored[0].Record.ID).Equal(model.RecordID("a"))
}

func TestPeriodLabel(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	gt.V(t, periodLabel(now.Add(-time.Hour), now)).Equal("today")
	gt.V(t, periodLabel(now.Add(-3*24*time.Hour), now)).Equal("this week")
	gt.V(t, periodLabel(now.Add(-20*24*time.Hour), now)).Equal("this month")
	gt.V(t, periodLabel(now.Add(-45*24*time.Hour), now)).Equal("last month")
	gt.V(t, periodLabel(now.Add(-200*24*time.Hour), now)).Equal("older")
}

func TestClusterByPeriod(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	selected := []*model.ScoredCandidate{
		scoredCandidate("old", 0.4, now.Add(-45*24*time.Hour)),
		scoredCandidate("fresh", 0.9, now.Add(-time.Hour)),
		scoredCandidate("fresh2", 0.8, now.Add(-2*time.Hour)),
	}

	clusters := clusterByPeriod(selected, now)
	gt.A(t, clusters).Length(2)
	// Periods come newest first regardless of input order.
	gt.V(t, clusters[0].Period).Equal("today")
	gt.A(t, clusters[0].Members).Length(2)
	gt.V(t, clusters[1].Period).Equal("last month")
}

func TestDominantEmotion(t *testing.T) {
	now := time.Now()
	members := []*model.ScoredCandidate{
		scoredCandidate("a", 0.5, now),
		scoredCandidate("b", 0.5, now),
		scoredCandidate("c", 0.5, now),
	}
	members[0].Record.Emotion = "calm"
	members[1].Record.Emotion = "happy"
	members[2].Record.Emotion = "happy"
	gt.V(t, dominantEmotion(members)).Equal("happy")

	// Tie breaks to the first emotion seen.
	members[2].Record.Emotion = "calm"
	gt.V(t, dominantEmotion(members)).Equal("calm")
}

func TestThemeKeyword(t *testing.T) {
	now := time.Now()
	members := []*model.ScoredCandidate{
		scoredCandidate("a", 0.5, now),
		scoredCandidate("b", 0.5, now),
	}
	members[0].Record.Content = "we talked about the garden again"
	members[1].Record.Content = "the garden was blooming"
	gt.V(t, themeKeyword(members)).Equal("garden")
}

func TestClusterCoherence(t *testing.T) {
	now := time.Now()
	uniform := []*model.ScoredCandidate{
		scoredCandidate("a", 0.5, now),
		scoredCandidate("b", 0.5, now),
	}
	uniform[0].Record.Emotion = "calm"
	uniform[0].Record.Importance = 0.5
	uniform[1].Record.Emotion = "calm"
	uniform[1].Record.Importance = 0.5

	diverse := []*model.ScoredCandidate{
		scoredCandidate("c", 0.5, now),
		scoredCandidate("d", 0.5, now),
	}
	diverse[0].Record.Emotion = "calm"
	diverse[0].Record.Importance = 0.1
	diverse[1].Record.Emotion = "angry"
	diverse[1].Record.Importance = 0.9

	cu := clusterCoherence(uniform)
	cd := clusterCoherence(diverse)
	gt.True(t, cu > cd)
	gt.True(t, cu >= 0 && cu <= 1)
	gt.True(t, cd >= 0 && cd <= 1)
}
