package classify

// Sentiment is the overall read of an email body
type Sentiment string

const (
	SentimentPositive  Sentiment = "positive"
	SentimentConcerned Sentiment = "concerned"
	SentimentNeutral   Sentiment = "neutral"
)

// AnalyzeSentiment scores free text by counting distinct positive and
// negative words. Strictly more negative than positive words reads as
// concerned, strictly more positive reads as positive, and a tie (including
// no matches at all) is neutral.
func AnalyzeSentiment(text string) Sentiment {
	pos := CountPresent(text, PositiveWords)
	neg := CountPresent(text, NegativeWords)

	switch {
	case neg > pos:
		return SentimentConcerned
	case pos > neg:
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}
