package recall

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/halcyonlabs/mnemo/pkg/utils/logging"
)

// pronounScanDepth is how many recent turns anaphora resolution inspects.
const pronounScanDepth = 5

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func isCapitalized(token string) bool {
	for _, r := range token {
		return unicode.IsUpper(r)
	}
	return false
}

// extractEntities pulls candidate entities from free text: capitalized
// tokens longer than 2 runes that are not interrogatives or determiners.
// When nothing qualifies it falls back to the 3 longest non-stop words.
func extractEntities(text string) []string {
	var entities []string
	seen := make(map[string]struct{})

	for _, token := range tokenize(text) {
		if len([]rune(token)) <= 2 || !isCapitalized(token) {
			continue
		}
		if _, stop := entityStopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		entities = append(entities, token)
	}
	if len(entities) > 0 {
		return entities
	}

	// Fallback: the 3 longest non-stop words, original order preserved.
	var words []string
	for _, token := range tokenize(text) {
		lower := strings.ToLower(token)
		if len([]rune(token)) <= 3 {
			continue
		}
		if _, stop := fallbackStopWords[lower]; stop {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		words = append(words, token)
	}
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	if len(words) > 3 {
		words = words[:3]
	}
	return words
}

// hasThirdPersonPronoun reports whether the query needs anaphora resolution.
func hasThirdPersonPronoun(text string) bool {
	for _, token := range tokenize(text) {
		if _, ok := thirdPersonPronouns[strings.ToLower(token)]; ok {
			return true
		}
	}
	return false
}

// resolvePronoun scans the most recent turns (newest first) for a
// capitalized entity and returns the first one found. This single heuristic
// is the whole anaphora story; it is approximate.
func resolvePronoun(turns []model.SessionTurn) string {
	depth := pronounScanDepth
	if len(turns) < depth {
		depth = len(turns)
	}
	for i := 0; i < depth; i++ {
		for _, token := range tokenize(turns[i].Text) {
			if len([]rune(token)) <= 2 || !isCapitalized(token) {
				continue
			}
			if _, stop := entityStopWords[token]; stop {
				continue
			}
			return token
		}
	}
	return ""
}

// analyzeEntities runs extraction, pronoun resolution, and store-backed
// verification. Verification is best-effort: a store failure, or a result
// where nothing verifies, keeps the unverified set rather than returning
// nothing.
func (u *UseCase) analyzeEntities(ctx context.Context, query string, userID model.UserID, turns []model.SessionTurn) []string {
	entities := extractEntities(query)

	if hasThirdPersonPronoun(query) {
		if referent := resolvePronoun(turns); referent != "" {
			found := false
			for _, e := range entities {
				if e == referent {
					found = true
					break
				}
			}
			if !found {
				entities = append([]string{referent}, entities...)
			}
		}
	}

	if len(entities) == 0 {
		return entities
	}

	var verified []string
	for _, entity := range entities {
		records, err := u.store.BySubstring(ctx, userID, []string{entity}, 0, 1)
		if err != nil {
			logging.From(ctx).Warn("entity verification failed", "entity", entity, "error", err)
			verified = append(verified, entity)
			continue
		}
		if len(records) > 0 {
			verified = append(verified, entity)
		}
	}
	if len(verified) == 0 {
		return entities
	}
	return verified
}
