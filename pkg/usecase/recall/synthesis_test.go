package recall

import (
	"testing"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestDeriveThemes(t *testing.T) {
	now := time.Now()
	selected := []*model.ScoredCandidate{
		scoredCandidate("a", 0.9, now),
		scoredCandidate("b", 0.8, now),
		scoredCandidate("c", 0.7, now),
	}
	selected[0].Record.Content = "my friend and my partner came over, so much love"
	selected[1].Record.Content = "family dinner with my mother"
	selected[2].Record.Content = "the project deadline at work"

	themes := deriveThemes(selected)
	gt.A(t, themes).Longer(1).Has("relationships").Has("work")
	// relationships collects more keyword votes than work.
	gt.V(t, themes[0]).Equal("relationships")
}

func TestDeriveThemesMetaLabel(t *testing.T) {
	now := time.Now()
	cand := scoredCandidate("a", 0.9, now)
	cand.Record.Content = "recurring morning walks"
	cand.Record.Metadata = map[string]any{"label": "morning-routine"}
	cand.Sources = []string{model.StreamPattern}

	themes := deriveThemes([]*model.ScoredCandidate{cand})
	gt.A(t, themes).Has("morning-routine")
}

func TestDeriveJourney(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	selected := []*model.ScoredCandidate{
		scoredCandidate("c", 0.5, base.Add(2*time.Hour)),
		scoredCandidate("a", 0.5, base),
		scoredCandidate("b", 0.5, base.Add(time.Hour)),
	}
	// Chronological emotions: happy, happy, sad.
	selected[1].Record.Emotion = "happy"
	selected[2].Record.Emotion = "happy"
	selected[0].Record.Emotion = "sad"

	journey := deriveJourney(selected)
	gt.V(t, journey.ShiftCount).Equal(1)
	gt.V(t, journey.Stability).Equal(0.5)
	gt.A(t, journey.DominantEmotions).Length(2)
	gt.V(t, journey.DominantEmotions[0]).Equal("happy")
}

func TestDeriveJourneyEmpty(t *testing.T) {
	journey := deriveJourney(nil)
	gt.V(t, journey.ShiftCount).Equal(0)
	gt.V(t, journey.Stability).Equal(1.0)
}

func TestDeriveGraph(t *testing.T) {
	now := time.Now()
	selected := []*model.ScoredCandidate{
		scoredCandidate("a", 0.9, now),
		scoredCandidate("b", 0.8, now),
	}
	selected[0].Record.Content = "Alex and Luna went hiking"
	selected[1].Record.Content = "Alex and Luna argued about the trail"

	graph := deriveGraph(selected, []string{"Alex", "Luna"})
	gt.A(t, graph.Edges).Length(1)
	gt.V(t, graph.Edges[0].From).Equal("Alex")
	gt.V(t, graph.Edges[0].To).Equal("Luna")
	gt.V(t, graph.Edges[0].Count).Equal(2)
}

func TestDeriveGraphArcClusters(t *testing.T) {
	now := time.Now()
	cand := scoredCandidate("a", 0.9, now)
	cand.Record.Metadata = map[string]any{"label": "moving-to-the-city"}
	cand.Sources = []string{model.StreamArc}

	graph := deriveGraph([]*model.ScoredCandidate{cand}, nil)
	gt.A(t, graph.ArcClusters).Length(1)
	gt.V(t, graph.ArcClusters[0]).Equal("moving-to-the-city")
}

func TestSynthesizeEmpty(t *testing.T) {
	u := scoringUseCase()
	qc := &model.QueryContext{Query: "q", UserID: "user-1"}
	gt.S(t, u.synthesize(qc, nil, nil)).Contains("No relevant memories")
}

func TestSynthesizeNormalQuotesMostImportant(t *testing.T) {
	u := scoringUseCase()
	now := time.Now()
	selected := []*model.ScoredCandidate{
		scoredCandidate("a", 0.9, now),
		scoredCandidate("b", 0.8, now),
	}
	selected[0].Record.Importance = 0.4
	selected[1].Record.Content = "the day everything changed"
	selected[1].Record.Importance = 0.9

	qc := &model.QueryContext{
		Query:     "q",
		UserID:    "user-1",
		Integrity: model.IntegrityState{Risk: 0.1, Status: model.IntegrityActive},
	}
	text := u.synthesize(qc, selected, []string{"growth"})
	gt.S(t, text).Contains("the day everything changed")
	gt.S(t, text).Contains("growth")
	gt.S(t, text).Contains("Most significant")
}

func TestSynthesizeStrictQuotesOnlyVerifiable(t *testing.T) {
	u := scoringUseCase()
	now := time.Now()
	selected := []*model.ScoredCandidate{
		scoredCandidate("a", 0.9, now),
		scoredCandidate("b", 0.8, now),
	}
	selected[0].Record.Content = "unverified but vivid"
	selected[0].Record.Importance = 0.95
	selected[1].Record.Content = "a documented milestone"
	selected[1].Record.Importance = 0.8
	selected[1].Record.Metadata = map[string]any{"verifiable": true}

	qc := &model.QueryContext{
		Query:     "q",
		UserID:    "user-1",
		Integrity: model.IntegrityState{Risk: 0.8, Status: model.IntegrityProtected},
	}
	text := u.synthesize(qc, selected, nil)
	gt.S(t, text).Contains("a documented milestone")
	gt.S(t, text).NotContains("unverified but vivid")
	gt.S(t, text).Contains("Verified highlights")
}

func TestSynthesizeStrictWithNothingVerifiable(t *testing.T) {
	u := scoringUseCase()
	cand := scoredCandidate("a", 0.9, time.Now())
	cand.Record.Importance = 0.9

	qc := &model.QueryContext{
		Query:     "q",
		UserID:    "user-1",
		Integrity: model.IntegrityState{Risk: 0.8, Status: model.IntegrityProtected},
	}
	gt.S(t, u.synthesize(qc, []*model.ScoredCandidate{cand}, nil)).Contains("verification bar")
}
