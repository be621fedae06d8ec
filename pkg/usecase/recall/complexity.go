package recall

import (
	"strings"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
)

// Classify labels a query with its complexity tier. It is a pure function of
// the query text, the resolved entity count, and whether the query carries
// temporal-range ("between") semantics; the first matching tier wins.
func Classify(query string, entityCount int, temporalRange bool) model.ComplexityTier {
	lower := strings.ToLower(query)
	wordCount := len(strings.Fields(lower))

	if matchesAny(lower, deepAnalysisPhrases) || (wordCount > 20 && entityCount > 3) {
		return model.TierTranscendent
	}

	// Identity queries must always reach COMPLEX so entity retrieval runs.
	if matchesAny(lower, identityPhrases) ||
		containsKeyword(lower, analyticalKeywords) ||
		(wordCount > 10 && entityCount > 1) ||
		temporalRange {
		return model.TierComplex
	}

	if containsKeyword(lower, timeKeywords) || entityCount >= 1 || wordCount > 5 {
		return model.TierModerate
	}

	return model.TierSimple
}

func matchesAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// containsKeyword matches single-word keywords at word boundaries and
// multi-word keywords as substrings.
func containsKeyword(lower string, keywords []string) bool {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(lower) {
		words[strings.Trim(w, ".,!?;:'\"")] = struct{}{}
	}
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		if _, ok := words[kw]; ok {
			return true
		}
	}
	return false
}

// hasBetweenSemantics reports an explicit temporal range in the query.
func hasBetweenSemantics(query string) bool {
	lower := strings.ToLower(query)
	return strings.Contains(lower, "between") &&
		(containsKeyword(lower, timeKeywords) || strings.Contains(lower, "and"))
}

// inferTimeWindow derives a window from time-reference keywords when no
// explicit range was given. Returns nil when nothing matches.
func inferTimeWindow(query string, now time.Time) *model.TimeRange {
	lower := strings.ToLower(query)
	day := 24 * time.Hour

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(lower, "yesterday"):
		return &model.TimeRange{From: startOfDay.Add(-day), To: startOfDay}
	case strings.Contains(lower, "today"), strings.Contains(lower, "this morning"), strings.Contains(lower, "tonight"):
		return &model.TimeRange{From: startOfDay, To: now}
	case strings.Contains(lower, "last night"):
		return &model.TimeRange{From: startOfDay.Add(-12 * time.Hour), To: startOfDay.Add(6 * time.Hour)}
	case strings.Contains(lower, "this week"):
		return &model.TimeRange{From: startOfDay.Add(-7 * day), To: now}
	case strings.Contains(lower, "last week"):
		return &model.TimeRange{From: startOfDay.Add(-14 * day), To: startOfDay.Add(-7 * day)}
	case strings.Contains(lower, "last month"):
		return &model.TimeRange{From: startOfDay.Add(-60 * day), To: startOfDay.Add(-30 * day)}
	case strings.Contains(lower, "recently"), strings.Contains(lower, "earlier"):
		return &model.TimeRange{From: now.Add(-7 * day), To: now}
	}
	return nil
}
