package recall

import (
	"testing"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/m-mizutani/gt"
)

func record(id string, importance float64) *model.MemoryRecord {
	return &model.MemoryRecord{
		ID:         model.RecordID(id),
		Content:    "content " + id,
		CreatedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Importance: importance,
		Speaker:    model.SpeakerCompanion,
	}
}

func TestFuseDeduplicates(t *testing.T) {
	rec := record("r1", 0.5)
	outcomes := []streamOutcome{
		{name: model.StreamBaseline, hits: []streamHit{{stream: model.StreamBaseline, record: rec}}},
		{name: model.StreamSemantic, hits: []streamHit{{stream: model.StreamSemantic, record: rec, similarity: 0.8}}},
		{name: model.StreamKeyword, hits: []streamHit{{stream: model.StreamKeyword, record: rec}}},
	}

	fused := fuse(outcomes, nil, 0)
	gt.A(t, fused).Length(1)
	gt.A(t, fused[0].Sources).Length(3).Has(model.StreamBaseline).Has(model.StreamSemantic).Has(model.StreamKeyword)
	gt.V(t, fused[0].Similarity).Equal(0.8)
}

func TestFuseKeepsMaxImportanceVariant(t *testing.T) {
	low := record("r1", 0.3)
	high := record("r1", 0.9)
	outcomes := []streamOutcome{
		{name: model.StreamBaseline, hits: []streamHit{{stream: model.StreamBaseline, record: low}}},
		{name: model.StreamPeak, hits: []streamHit{{stream: model.StreamPeak, record: high}}},
	}

	fused := fuse(outcomes, nil, 0)
	gt.A(t, fused).Length(1)
	gt.V(t, fused[0].Record.Importance).Equal(0.9)
}

func TestFuseDropsUserEcho(t *testing.T) {
	echo := record("r1", 0.9)
	echo.Speaker = model.SpeakerUser
	kept := record("r2", 0.5)

	fused := fuse(nil, []streamHit{
		{stream: model.StreamSession, record: echo},
		{stream: model.StreamSession, record: kept},
	}, 0)

	gt.A(t, fused).Length(1)
	gt.V(t, fused[0].Record.ID).Equal(model.RecordID("r2"))
}

func TestFuseCapIsDeterministic(t *testing.T) {
	outcomes := []streamOutcome{{
		name: model.StreamBaseline,
		hits: []streamHit{
			{stream: model.StreamBaseline, record: record("a", 0.2)},
			{stream: model.StreamBaseline, record: record("b", 0.9)},
			{stream: model.StreamBaseline, record: record("c", 0.5)},
			{stream: model.StreamBaseline, record: record("d", 0.5)},
			{stream: model.StreamBaseline, record: record("e", 0.7)},
		},
	}}

	fused := fuse(outcomes, nil, 3)
	gt.A(t, fused).Length(3)
	gt.V(t, fused[0].Record.ID).Equal(model.RecordID("b"))
	gt.V(t, fused[1].Record.ID).Equal(model.RecordID("e"))
	// c and d tie on signal; the smaller id wins.
	gt.V(t, fused[2].Record.ID).Equal(model.RecordID("c"))
}

func TestFuseSessionBufferTagged(t *testing.T) {
	rec := record("r1", 0.5)
	fused := fuse(nil, sessionHits([]*model.MemoryRecord{rec}), 0)
	gt.A(t, fused).Length(1)
	gt.True(t, fused[0].HasSource(model.StreamSession))
}
