package recall

import (
	"testing"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name          string
		query         string
		entityCount   int
		temporalRange bool
		want          model.ComplexityTier
	}{
		{"short factual", "did we nap", 0, false, model.TierSimple},
		{"time reference", "what did we do yesterday", 0, false, model.TierModerate},
		{"single entity", "remember Alex", 1, false, model.TierModerate},
		{"analytical keyword", "why do I keep doing this", 0, false, model.TierComplex},
		{"identity phrase", "who is Alex", 1, false, model.TierComplex},
		{"temporal range", "what happened between the trips", 0, true, model.TierComplex},
		{"deep analysis", "analyze our relationship", 0, false, model.TierTranscendent},
		{"long multi-entity", "tell me all the things that happened with everyone during the long trip we took across the coast and the mountains last autumn", 4, false, model.TierTranscendent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.V(t, Classify(tc.query, tc.entityCount, tc.temporalRange)).Equal(tc.want)
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		gt.V(t, Classify("what did we do yesterday", 0, false)).Equal(model.TierModerate)
	}
}

func TestContainsKeywordWordBoundary(t *testing.T) {
	// "whyever" must not trigger the single-word keyword "why".
	gt.False(t, containsKeyword("whyever would that matter", analyticalKeywords))
	gt.True(t, containsKeyword("why would that matter", analyticalKeywords))

	// Multi-word keywords match as substrings.
	gt.True(t, containsKeyword("we spoke last week about it", timeKeywords))
}

func TestHasBetweenSemantics(t *testing.T) {
	gt.True(t, hasBetweenSemantics("what happened between monday and friday"))
	gt.False(t, hasBetweenSemantics("the space between us"))
	gt.False(t, hasBetweenSemantics("what did we do yesterday"))
}

func TestInferTimeWindow(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	startOfDay := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	w := inferTimeWindow("what did we do yesterday", now)
	gt.V(t, w).NotNil()
	gt.V(t, w.From).Equal(startOfDay.Add(-24 * time.Hour))
	gt.V(t, w.To).Equal(startOfDay)

	w = inferTimeWindow("how was today", now)
	gt.V(t, w).NotNil()
	gt.V(t, w.From).Equal(startOfDay)
	gt.V(t, w.To).Equal(now)

	w = inferTimeWindow("what happened last week", now)
	gt.V(t, w).NotNil()
	gt.V(t, w.From).Equal(startOfDay.Add(-14 * 24 * time.Hour))
	gt.V(t, w.To).Equal(startOfDay.Add(-7 * 24 * time.Hour))

	gt.V(t, inferTimeWindow("tell me about Alex", now)).Nil()
}
