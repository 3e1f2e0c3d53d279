package classify

import "strings"

// Keyword lists for triage. Matching is deliberately substring-based, not
// tokenized: "eod" matches inside "speedometer". That trades a few false
// positives for catching inflections and run-together phrases, and the
// classification rules depend on this exact behavior.
var (
	// UrgencyWords escalate mail tied to an active deal
	UrgencyWords = []string{
		"urgent", "asap", "immediately", "contract", "cancel",
		"problem", "issue", "concerned", "frustrated", "deadline", "eod",
	}

	// JunkIndicators mark bulk or non-personal mail; checked against both
	// the sender string and the subject
	JunkIndicators = []string{
		"unsubscribe", "newsletter", "marketing", "promo", "no-reply@", "noreply@",
	}

	// Sentiment word lists
	PositiveWords = []string{"great", "excellent", "love", "perfect", "thanks", "appreciate"}
	NegativeWords = []string{"problem", "issue", "concern", "frustrated", "disappointed", "cancel", "urgent"}

	// Tone axis word lists
	HumorWords       = []string{"haha", "lol", "funny", "joke", "humorous", "witty"}
	ToneUrgencyWords = []string{"urgent", "asap", "immediately", "deadline", "eod"}
	WarmthWords      = []string{"thanks", "appreciate", "great", "awesome", "love"}
)

// ContainsAny reports whether the lower-cased text contains at least one of
// the listed words as a substring.
func ContainsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// CountPresent returns how many distinct listed words appear in the
// lower-cased text. Each word contributes at most one regardless of how
// often it repeats.
func CountPresent(text string, words []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			count++
		}
	}
	return count
}
