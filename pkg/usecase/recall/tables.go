package recall

// Heuristic tables, kept as package-level constants so classification and
// pattern behavior is independently verifiable.

// entityStopWords are capitalized tokens that are never entities:
// interrogatives, determiners, and sentence-leading function words.
var entityStopWords = map[string]struct{}{
	"The": {}, "This": {}, "That": {}, "These": {}, "Those": {},
	"What": {}, "When": {}, "Where": {}, "Which": {}, "Who": {}, "Whom": {}, "Why": {}, "How": {},
	"Did": {}, "Does": {}, "Has": {}, "Have": {}, "Had": {},
	"Was": {}, "Were": {}, "Are": {}, "Will": {}, "Would": {}, "Could": {}, "Should": {}, "Can": {},
	"And": {}, "But": {}, "For": {}, "Not": {}, "You": {}, "Your": {},
	"Tell": {}, "Show": {}, "Remember": {}, "About": {},
}

// fallbackStopWords filter the longest-word fallback when no capitalized
// entity is found.
var fallbackStopWords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "about": {}, "there": {},
	"have": {}, "been": {}, "were": {}, "did": {}, "does": {}, "was": {},
	"tell": {}, "show": {}, "remember": {}, "happened": {},
}

// thirdPersonPronouns trigger anaphora resolution against recent turns.
var thirdPersonPronouns = map[string]struct{}{
	"he": {}, "him": {}, "his": {},
	"she": {}, "her": {}, "hers": {},
	"they": {}, "them": {}, "their": {}, "theirs": {},
}

// deepAnalysisPhrases force the TRANSCENDENT tier.
var deepAnalysisPhrases = []string{
	"analyze our relationship",
	"how have i changed",
	"what patterns do you see",
	"everything you know about me",
	"reflect on our journey",
	"what does it all mean",
	"look back over everything",
}

// identityPhrases force at least the COMPLEX tier so that entity-based
// retrieval always runs for identity questions.
var identityPhrases = []string{
	"who is",
	"who am i",
	"who was",
	"what am i",
	"tell me about myself",
}

// analyticalKeywords mark relational or analytical queries (COMPLEX).
var analyticalKeywords = []string{
	"why", "analyze", "compare", "relationship", "pattern",
	"connection", "explain", "understand", "meaning",
}

// timeKeywords mark time-referencing queries (MODERATE and up).
var timeKeywords = []string{
	"yesterday", "today", "tonight", "recently", "earlier",
	"last week", "last month", "last night", "this morning",
	"this week", "ago", "before", "when",
}

// comboPatterns are linguistic combinators whose presence in record content
// earns a fixed per-hit scoring increment.
var comboPatterns = []string{
	"but actually",
	"always feel",
	"never again",
	"used to",
	"every time",
	"i realized",
	"for the first time",
	"can't stop",
	"keep thinking",
}

// themeKeywords maps a theme label to the content keywords that vote for it.
var themeKeywords = map[string][]string{
	"relationships": {"friend", "family", "partner", "mother", "father", "love", "together"},
	"work":          {"work", "job", "project", "deadline", "meeting", "boss", "career"},
	"health":        {"health", "sleep", "tired", "exercise", "doctor", "pain", "energy"},
	"emotions":      {"happy", "sad", "angry", "anxious", "excited", "afraid", "lonely"},
	"growth":        {"learn", "change", "improve", "goal", "habit", "progress", "better"},
	"creativity":    {"write", "music", "paint", "create", "idea", "dream", "imagine"},
	"places":        {"home", "travel", "city", "trip", "moved", "visit"},
}

// themeStopWords never become a cluster theme keyword.
var themeStopWords = map[string]struct{}{
	"really": {}, "something": {}, "anything": {}, "everything": {},
	"because": {}, "thought": {}, "should": {}, "would": {}, "could": {},
	"about": {}, "there": {}, "people": {}, "things": {}, "going": {},
	"little": {}, "always": {}, "never": {}, "today": {}, "yesterday": {},
}
