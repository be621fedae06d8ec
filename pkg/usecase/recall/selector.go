package recall

import (
	"sort"
	"strings"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
)

// selectTop ranks candidates descending by score and truncates to the
// tier's budget. Ties break by recency, then id, so selection is
// deterministic for a fixed fused set.
func selectTop(scored []*model.ScoredCandidate, budget int) []*model.ScoredCandidate {
	out := make([]*model.ScoredCandidate, len(scored))
	copy(out, scored)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].Record.CreatedAt.Equal(out[j].Record.CreatedAt) {
			return out[i].Record.CreatedAt.After(out[j].Record.CreatedAt)
		}
		return out[i].Record.ID < out[j].Record.ID
	})

	if budget > 0 && len(out) > budget {
		out = out[:budget]
	}
	return out
}

// Fixed time-period labels, newest to oldest.
var clusterPeriods = []string{"today", "this week", "this month", "last month", "older"}

func periodLabel(createdAt, now time.Time) string {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := 24 * time.Hour

	switch {
	case !createdAt.Before(startOfDay):
		return "today"
	case !createdAt.Before(startOfDay.Add(-7 * day)):
		return "this week"
	case !createdAt.Before(startOfDay.Add(-30 * day)):
		return "this month"
	case !createdAt.Before(startOfDay.Add(-60 * day)):
		return "last month"
	default:
		return "older"
	}
}

// clusterByPeriod buckets the selection into fixed time periods, each with a
// dominant emotion, a theme keyword, and an internal coherence score.
func clusterByPeriod(selected []*model.ScoredCandidate, now time.Time) []*model.Cluster {
	buckets := make(map[string][]*model.ScoredCandidate)
	for _, cand := range selected {
		label := periodLabel(cand.Record.CreatedAt, now)
		buckets[label] = append(buckets[label], cand)
	}

	var clusters []*model.Cluster
	for _, period := range clusterPeriods {
		members := buckets[period]
		if len(members) == 0 {
			continue
		}
		clusters = append(clusters, &model.Cluster{
			Period:          period,
			Members:         members,
			DominantEmotion: dominantEmotion(members),
			Theme:           themeKeyword(members),
			Coherence:       clusterCoherence(members),
		})
	}
	return clusters
}

// dominantEmotion is the most frequent emotion label, ties broken by the
// first one seen.
func dominantEmotion(members []*model.ScoredCandidate) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range members {
		if m.Record.Emotion == "" {
			continue
		}
		if counts[m.Record.Emotion] == 0 {
			order = append(order, m.Record.Emotion)
		}
		counts[m.Record.Emotion]++
	}

	best := ""
	bestCount := 0
	for _, emotion := range order {
		if counts[emotion] > bestCount {
			best = emotion
			bestCount = counts[emotion]
		}
	}
	return best
}

// themeKeyword is the most frequent content word of at least 6 characters,
// excluding the theme stop-list.
func themeKeyword(members []*model.ScoredCandidate) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range members {
		for _, token := range tokenize(m.Record.Content) {
			word := strings.ToLower(token)
			if len(word) < 6 {
				continue
			}
			if _, stop := themeStopWords[word]; stop {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	best := ""
	bestCount := 0
	for _, word := range order {
		if counts[word] > bestCount {
			best = word
			bestCount = counts[word]
		}
	}
	return best
}

// clusterCoherence averages emotional uniformity and importance uniformity,
// each expressed in [0,1].
func clusterCoherence(members []*model.ScoredCandidate) float64 {
	if len(members) == 0 {
		return 0
	}

	emotions := make(map[string]struct{})
	labeled := 0
	var sum float64
	for _, m := range members {
		if m.Record.Emotion != "" {
			emotions[m.Record.Emotion] = struct{}{}
			labeled++
		}
		sum += m.Record.Importance
	}

	emotionDiversity := 0.0
	if labeled > 0 {
		emotionDiversity = float64(len(emotions)) / float64(labeled)
	}

	mean := sum / float64(len(members))
	var variance float64
	for _, m := range members {
		d := m.Record.Importance - mean
		variance += d * d
	}
	variance /= float64(len(members))

	emotionTerm := 1 - clampUnit(emotionDiversity)
	importanceTerm := 1 - clampUnit(variance)
	return (emotionTerm + importanceTerm) / 2
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
