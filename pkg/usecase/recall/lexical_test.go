package recall

import (
	"context"
	"testing"
	"time"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/halcyonlabs/mnemo/pkg/repository"
	"github.com/m-mizutani/gt"
)

func TestTokenize(t *testing.T) {
	tokens := tokenize("Hello, world! It's fine.")
	gt.A(t, tokens).Length(4)
	gt.V(t, tokens[0]).Equal("Hello")
	gt.V(t, tokens[2]).Equal("It's")
}

func TestExtractEntitiesCapitalized(t *testing.T) {
	entities := extractEntities("What did Alex say about Luna yesterday")
	gt.A(t, entities).Length(2).Has("Alex").Has("Luna")
}

func TestExtractEntitiesSkipsInterrogatives(t *testing.T) {
	entities := extractEntities("Who is Marcus")
	gt.A(t, entities).Length(1)
	gt.V(t, entities[0]).Equal("Marcus")
}

func TestExtractEntitiesFallback(t *testing.T) {
	// No capitalized entities: the 3 longest non-stop words win, longest first.
	entities := extractEntities("tell me about the mountain yesterday evening")
	gt.A(t, entities).Length(3)
	gt.V(t, entities[0]).Equal("yesterday")
	gt.V(t, entities[1]).Equal("mountain")
	gt.V(t, entities[2]).Equal("evening")
}

func TestExtractEntitiesDeduplicates(t *testing.T) {
	entities := extractEntities("Alex and Alex again")
	gt.A(t, entities).Length(1)
}

func TestHasThirdPersonPronoun(t *testing.T) {
	gt.True(t, hasThirdPersonPronoun("what did she say"))
	gt.True(t, hasThirdPersonPronoun("what did they tell you"))
	gt.False(t, hasThirdPersonPronoun("what is the weather"))
}

func TestResolvePronoun(t *testing.T) {
	turns := []model.SessionTurn{
		{Speaker: model.SpeakerUser, Text: "I talked to Marcus today"},
		{Speaker: model.SpeakerCompanion, Text: "Luna sounded happy"},
	}
	gt.V(t, resolvePronoun(turns)).Equal("Marcus")

	gt.V(t, resolvePronoun(nil)).Equal("")
	gt.V(t, resolvePronoun([]model.SessionTurn{{Text: "nothing notable here"}})).Equal("")
}

func TestResolvePronounScanDepth(t *testing.T) {
	turns := make([]model.SessionTurn, 0, 8)
	for i := 0; i < 6; i++ {
		turns = append(turns, model.SessionTurn{Text: "plain words only"})
	}
	// Beyond the scan depth, never reached.
	turns = append(turns, model.SessionTurn{Text: "Marcus was here"})
	gt.V(t, resolvePronoun(turns)).Equal("")
}

func TestAnalyzeEntitiesVerification(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	store.Put("user-1", &model.MemoryRecord{
		ID:        model.NewRecordID(),
		Content:   "Alex showed me the garden",
		CreatedAt: time.Now(),
		Speaker:   model.SpeakerCompanion,
	})

	u := New(store)

	// Zorblax is nowhere in the store, so only Alex survives verification.
	entities := u.analyzeEntities(ctx, "What did Alex and Zorblax do", "user-1", nil)
	gt.A(t, entities).Length(1)
	gt.V(t, entities[0]).Equal("Alex")
}

func TestAnalyzeEntitiesKeepsUnverifiedWhenNothingMatches(t *testing.T) {
	ctx := context.Background()
	u := New(repository.NewMemory())

	entities := u.analyzeEntities(ctx, "What did Zorblax do", "user-1", nil)
	gt.A(t, entities).Length(1)
	gt.V(t, entities[0]).Equal("Zorblax")
}

func TestAnalyzeEntitiesPronounReferent(t *testing.T) {
	ctx := context.Background()
	u := New(repository.NewMemory())

	turns := []model.SessionTurn{
		{Speaker: model.SpeakerUser, Text: "I saw Marcus at the station"},
	}
	entities := u.analyzeEntities(ctx, "what did he say", "user-1", turns)
	gt.A(t, entities).Has("Marcus")
	gt.V(t, entities[0]).Equal("Marcus")
}
