package recall

import (
	"math"
	"strings"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
)

// recencyWeight buckets a record's age before the temporal-awareness signal
// scales the term.
func recencyWeight(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	switch {
	case age < 24*time.Hour:
		return 1.0
	case age < 7*24*time.Hour:
		return 0.7
	case age < 30*24*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}

// entityOverlap is matched-entity-count / max(1, entity-count).
func entityOverlap(content string, entities []string) float64 {
	if len(entities) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, e := range entities {
		if strings.Contains(lower, strings.ToLower(e)) {
			matched++
		}
	}
	return float64(matched) / float64(len(entities))
}

// patternBonus scans content against the combo-pattern table; each hit adds
// a fixed increment, capped at 1.
func (u *UseCase) patternBonus(content string) float64 {
	lower := strings.ToLower(content)
	bonus := 0.0
	for _, pattern := range comboPatterns {
		if strings.Contains(lower, pattern) {
			bonus += u.tuning.PatternHitBonus
		}
	}
	return math.Min(bonus, 1.0)
}

func emotionMatch(emotion string, filter []string) float64 {
	if emotion == "" {
		return 0
	}
	for _, e := range filter {
		if strings.EqualFold(emotion, e) {
			return 1
		}
	}
	return 0
}

func containsAnyFold(content string, terms []string) bool {
	lower := strings.ToLower(content)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// scoreCandidates computes the bounded relevance score for every fused
// candidate. The weighted base sum is followed by the multiplicative
// adjustments in their tuned order; the score is clamped to [0,1] exactly
// once, at the end.
func (u *UseCase) scoreCandidates(qc *model.QueryContext, tier model.ComplexityTier, fused []*model.FusedCandidate) []*model.ScoredCandidate {
	now := u.now()
	w := u.tuning.Weights
	vector := qc.Integrity.Vector

	scored := make([]*model.ScoredCandidate, 0, len(fused))
	for _, cand := range fused {
		rec := cand.Record
		breakdown := make(map[string]float64, 12)

		semantic := w.Semantic * cand.Similarity
		importance := w.Importance * vector.Stability() * rec.Importance
		recency := w.Recency * vector.TemporalAwareness() * recencyWeight(rec.CreatedAt, now)
		entity := w.Entity * entityOverlap(rec.Content, qc.Entities)
		emotion := w.Emotion * emotionMatch(rec.Emotion, qc.EmotionFilter) * vector.Coherence()
		multiSource := w.MultiSource * math.Min(1, float64(len(cand.Sources))/3.0)
		pattern := w.Pattern * u.patternBonus(rec.Content)

		score := semantic + importance + recency + entity + emotion + multiSource + pattern
		breakdown["semantic"] = semantic
		breakdown["importance"] = importance
		breakdown["recency"] = recency
		breakdown["entity"] = entity
		breakdown["emotion"] = emotion
		breakdown["multi_source"] = multiSource
		breakdown["pattern"] = pattern

		// 1. Integrity adjustment: under high risk only verifiable records
		// keep their standing.
		if qc.Integrity.Risk >= model.RiskDisableSemantic {
			if rec.Verifiable() {
				score *= u.tuning.VerifiedBoost
				breakdown["integrity"] = u.tuning.VerifiedBoost
			} else {
				score *= u.tuning.UnverifiedCut
				breakdown["integrity"] = u.tuning.UnverifiedCut
			}
		}

		// 2. Session affinity.
		if rec.SessionID != "" && rec.SessionID == qc.SessionID {
			affinity := 1 + rec.Importance*u.tuning.AffinityScale
			if rec.Importance > u.tuning.AffinityHighCut {
				affinity *= u.tuning.AffinityExtra
			}
			score *= affinity
			breakdown["affinity"] = affinity
		}

		// 3. Gravity-field boost, tiered by the record's own importance.
		if qc.Gravity != nil && qc.Gravity.TotalMass > 0 {
			mass := math.Min(qc.Gravity.TotalMass, u.tuning.GravityMassCap)
			factor := 0.1
			switch {
			case rec.Importance >= 0.7:
				factor = 0.3
			case rec.Importance >= 0.4:
				factor = 0.2
			}
			boost := 1 + mass*factor
			score *= boost
			breakdown["gravity"] = boost
		}

		// 4. Entity gravity wells, capped total contribution.
		if qc.Gravity != nil && len(qc.Gravity.EntityAnchors) > 0 {
			well := 1.0
			lower := strings.ToLower(rec.Content)
			for entity, mass := range qc.Gravity.EntityAnchors {
				if strings.Contains(lower, strings.ToLower(entity)) {
					well += mass * u.tuning.EntityWellScale
				}
			}
			well = math.Min(well, u.tuning.EntityWellCap)
			if well > 1 {
				score *= well
				breakdown["entity_well"] = well
			}
		}

		// 5. Conversation-context boosts, first match wins per category.
		if containsAnyFold(rec.Content, qc.Conversation.RecentEntities) {
			score *= u.tuning.RecentEntityBump
			breakdown["ctx_recent_entity"] = u.tuning.RecentEntityBump
		}
		if containsAnyFold(rec.Content, qc.Conversation.CurrentEntities) {
			score *= u.tuning.CurrentEntityBump
			breakdown["ctx_current_entity"] = u.tuning.CurrentEntityBump
		}
		if containsAnyFold(rec.Content, qc.Conversation.RecentTopics) {
			score *= u.tuning.TopicBump
			breakdown["ctx_topic"] = u.tuning.TopicBump
		}
		if qc.Conversation.DominantEmotion != "" && strings.EqualFold(rec.Emotion, qc.Conversation.DominantEmotion) {
			score *= u.tuning.EmotionBump
			breakdown["ctx_emotion"] = u.tuning.EmotionBump
		}

		// Anchor bias when the recall strategy designates anchor entities.
		if qc.Strategy.AnchorBias && containsAnyFold(rec.Content, qc.Strategy.AnchorEntities) {
			score *= u.tuning.AnchorBiasBump
			breakdown["anchor_bias"] = u.tuning.AnchorBiasBump
		}

		// Preferred-type nudge from the recall strategy hint.
		if len(qc.Strategy.PreferredTypes) > 0 {
			if recType, _ := rec.Metadata["type"].(string); recType != "" {
				for _, t := range qc.Strategy.PreferredTypes {
					if strings.EqualFold(t, recType) {
						score *= u.tuning.PreferredTypeBump
						breakdown["preferred_type"] = u.tuning.PreferredTypeBump
						break
					}
				}
			}
		}

		// Analytical-query boost at COMPLEX and above.
		if tier == model.TierComplex || tier == model.TierTranscendent {
			recent := now.Sub(rec.CreatedAt) < 7*24*time.Hour
			if cand.MetaSourced() || (rec.Importance > 0.7 && recent) {
				score *= u.tuning.AnalyticalBump
				breakdown["analytical"] = u.tuning.AnalyticalBump
			}
		}

		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}

		scored = append(scored, &model.ScoredCandidate{
			FusedCandidate: *cand,
			Score:          score,
			Breakdown:      breakdown,
		})
	}
	return scored
}
