package recall

import (
	"fmt"
	"sort"
	"strings"

	"github.com/halcyonlabs/mnemo/pkg/model"
)

const maxThemes = 7

// deriveThemes matches selected content against the topic keyword table and
// folds in meta-stream labels, ranked by frequency.
func deriveThemes(selected []*model.ScoredCandidate) []string {
	counts := make(map[string]int)
	var order []string

	vote := func(theme string, n int) {
		if counts[theme] == 0 {
			order = append(order, theme)
		}
		counts[theme] += n
	}

	for _, cand := range selected {
		lower := strings.ToLower(cand.Record.Content)
		for theme, keywords := range themeKeywords {
			hits := 0
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					hits++
				}
			}
			if hits > 0 {
				vote(theme, hits)
			}
		}
		if cand.MetaSourced() {
			if label := metaLabel(cand.Record); label != "" {
				vote(label, 1)
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > maxThemes {
		order = order[:maxThemes]
	}
	return order
}

// metaLabel reads the label a pattern/arc index record carries.
func metaLabel(rec *model.MemoryRecord) string {
	if rec.Metadata == nil {
		return ""
	}
	label, _ := rec.Metadata["label"].(string)
	return label
}

// deriveJourney summarizes the emotional trajectory across the selection in
// chronological order.
func deriveJourney(selected []*model.ScoredCandidate) model.EmotionalJourney {
	ordered := make([]*model.ScoredCandidate, len(selected))
	copy(ordered, selected)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Record.CreatedAt.Before(ordered[j].Record.CreatedAt)
	})

	counts := make(map[string]int)
	var emotions []string // labeled records in chronological order
	var firstSeen []string
	for _, cand := range ordered {
		e := cand.Record.Emotion
		if e == "" {
			continue
		}
		if counts[e] == 0 {
			firstSeen = append(firstSeen, e)
		}
		counts[e]++
		emotions = append(emotions, e)
	}

	shifts := 0
	for i := 1; i < len(emotions); i++ {
		if emotions[i] != emotions[i-1] {
			shifts++
		}
	}

	stability := 1.0
	if len(emotions) > 1 {
		stability = 1 - float64(shifts)/float64(len(emotions)-1)
	}

	sort.SliceStable(firstSeen, func(i, j int) bool { return counts[firstSeen[i]] > counts[firstSeen[j]] })
	if len(firstSeen) > 3 {
		firstSeen = firstSeen[:3]
	}

	return model.EmotionalJourney{
		DominantEmotions: firstSeen,
		ShiftCount:       shifts,
		Stability:        stability,
	}
}

// deriveGraph builds the entity co-occurrence graph across the selection
// plus arc-derived clusters.
func deriveGraph(selected []*model.ScoredCandidate, entities []string) model.RelationshipGraph {
	var graph model.RelationshipGraph

	counts := make(map[[2]string]int)
	var order [][2]string
	for _, cand := range selected {
		lower := strings.ToLower(cand.Record.Content)
		var present []string
		for _, e := range entities {
			if strings.Contains(lower, strings.ToLower(e)) {
				present = append(present, e)
			}
		}
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				key := [2]string{present[i], present[j]}
				if counts[key] == 0 {
					order = append(order, key)
				}
				counts[key]++
			}
		}

		if cand.HasSource(model.StreamArc) {
			if label := metaLabel(cand.Record); label != "" {
				dup := false
				for _, c := range graph.ArcClusters {
					if c == label {
						dup = true
						break
					}
				}
				if !dup {
					graph.ArcClusters = append(graph.ArcClusters, label)
				}
			}
		}
	}

	for _, key := range order {
		graph.Edges = append(graph.Edges, model.RelationshipEdge{
			From:  key[0],
			To:    key[1],
			Count: counts[key],
		})
	}
	return graph
}

// synthesize produces the short narrative text. Strict integrity modes quote
// only verifiable high-importance records; normal mode quotes the single
// highest-importance record.
func (u *UseCase) synthesize(qc *model.QueryContext, selected []*model.ScoredCandidate, themes []string) string {
	if len(selected) == 0 {
		return "No relevant memories surfaced for this query."
	}

	strict := qc.Integrity.Risk >= model.RiskDisableSemantic || qc.Integrity.Status == model.IntegrityProtected

	var quotes []string
	if strict {
		for _, cand := range selected {
			if cand.Record.Verifiable() && cand.Record.Importance >= u.tuning.AffinityHighCut {
				quotes = append(quotes, cand.Record.Content)
			}
			if len(quotes) == 3 {
				break
			}
		}
		if len(quotes) == 0 {
			return fmt.Sprintf("Recalled %d memories; none meet the verification bar for quoting in protected mode.", len(selected))
		}
	} else {
		top := selected[0]
		for _, cand := range selected[1:] {
			if cand.Record.Importance > top.Record.Importance {
				top = cand
			}
		}
		quotes = append(quotes, top.Record.Content)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recalled %d memories", len(selected))
	if len(themes) > 0 {
		fmt.Fprintf(&b, " around %s", strings.Join(themes[:min(3, len(themes))], ", "))
	}
	b.WriteString(". ")
	if strict {
		b.WriteString("Verified highlights: ")
	} else {
		b.WriteString("Most significant: ")
	}
	for i, q := range quotes {
		if i > 0 {
			b.WriteString(" / ")
		}
		fmt.Fprintf(&b, "%q", q)
	}
	return b.String()
}
