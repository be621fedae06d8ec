package recall

import (
	"sort"

	"github.com/halcyonlabs/mnemo/pkg/model"
)

// fuse deduplicates raw stream hits by record id. On collision the source
// sets are unioned and similarity/importance keep the maximum observed.
// Records spoken by the user are dropped: a self-echo must never come back
// as a retrieved memory.
func fuse(outcomes []streamOutcome, sessionBuffer []streamHit, fusedCap int) []*model.FusedCandidate {
	byID := make(map[model.RecordID]*model.FusedCandidate)
	var order []model.RecordID

	merge := func(hit streamHit) {
		if hit.record == nil || hit.record.Speaker == model.SpeakerUser {
			return
		}
		existing, ok := byID[hit.record.ID]
		if !ok {
			byID[hit.record.ID] = &model.FusedCandidate{
				Record:     hit.record,
				Sources:    []string{hit.stream},
				Similarity: hit.similarity,
			}
			order = append(order, hit.record.ID)
			return
		}
		existing.AddSource(hit.stream)
		if hit.similarity > existing.Similarity {
			existing.Similarity = hit.similarity
		}
		if hit.record.Importance > existing.Record.Importance {
			existing.Record = hit.record
		}
	}

	for _, hit := range sessionBuffer {
		merge(hit)
	}
	for _, outcome := range outcomes {
		for _, hit := range outcome.hits {
			merge(hit)
		}
	}

	fused := make([]*model.FusedCandidate, 0, len(order))
	for _, id := range order {
		fused = append(fused, byID[id])
	}

	if fusedCap > 0 && len(fused) > fusedCap {
		// Deterministic truncation: strongest signal first, id as tie-break.
		sort.SliceStable(fused, func(i, j int) bool {
			si := fused[i].Similarity + fused[i].Record.Importance
			sj := fused[j].Similarity + fused[j].Record.Importance
			if si != sj {
				return si > sj
			}
			return fused[i].Record.ID < fused[j].Record.ID
		})
		fused = fused[:fusedCap]
	}
	return fused
}
