package classify

import "testing"

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Sentiment
	}{
		{"one positive word", "thanks for the call", SentimentPositive},
		{"negative outweighs positive", "thanks, but there is a problem and a deadline issue", SentimentConcerned},
		{"tie is neutral", "thanks for flagging the issue", SentimentNeutral},
		{"empty body", "", SentimentNeutral},
		{"no listed words", "see attached agenda for tomorrow", SentimentNeutral},
		{"repeats do not weight", "problem problem problem but thanks and great and perfect", SentimentPositive},
		{"urgent is a negative signal", "this is urgent", SentimentConcerned},
		{"mixed concern", "love the product but concerned about the rollout and frustrated with support", SentimentConcerned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnalyzeSentiment(tt.text); got != tt.want {
				t.Errorf("AnalyzeSentiment(%q) = %s, want %s", tt.text, got, tt.want)
			}
			// Pure function: same input, same label
			if again := AnalyzeSentiment(tt.text); again != AnalyzeSentiment(tt.text) {
				t.Errorf("AnalyzeSentiment is not deterministic for %q", tt.text)
			}
		})
	}
}
