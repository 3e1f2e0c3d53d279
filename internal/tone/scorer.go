package tone

import (
	"context"
	"errors"
	"math"

	"github.com/craftable-labs/triage/internal/classify"
)

// Verdicts for how closely a draft matches the team voice
const (
	MatchHigh   = "high"
	MatchMedium = "medium"
	MatchLow    = "low"
)

// Scores are per-axis distinct keyword counts for a scored body. Formality
// has no keyword list yet and stays zero; the axis is kept so the profile
// shape does not change when one is added.
type Scores struct {
	Formality int `json:"formality"`
	Humor     int `json:"humor"`
	Urgency   int `json:"urgency"`
	Warmth    int `json:"warmth"`
}

// ToneScore is the result of scoring a body against the style profile
type ToneScore struct {
	Scores      Scores   `json:"scores"`
	Verdict     string   `json:"matches_style"`
	Suggestions []string `json:"suggestions"`
}

// ContextTone is the guide's advice for one writing situation
type ContextTone struct {
	Greeting       string `json:"greeting"`
	SignOff        string `json:"sign_off"`
	Tone           Trait  `json:"tone"`
	UrgencyPhrases string `json:"urgency_phrases"`
}

// Scorer scores email bodies for voice fidelity using the cached guide
// and a style profile.
type Scorer struct {
	cache   *Cache
	profile StyleProfile
}

// NewScorer creates a scorer over a guide cache with the default profile
func NewScorer(cache *Cache) *Scorer {
	return &Scorer{
		cache:   cache,
		profile: DefaultProfile,
	}
}

// Score rates how well a body matches the team voice. Returns (nil, nil)
// when no guide is available so callers can skip tone scoring without
// treating it as a failure; a fetch error is still an error.
func (s *Scorer) Score(ctx context.Context, body, recipientType string) (*ToneScore, error) {
	guide, err := s.cache.Get(ctx)
	if errors.Is(err, ErrNoGuide) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	scores := Scores{
		Humor:   classify.CountPresent(body, classify.HumorWords),
		Urgency: classify.CountPresent(body, classify.ToneUrgencyWords),
		Warmth:  classify.CountPresent(body, classify.WarmthWords),
	}

	return &ToneScore{
		Scores:      scores,
		Verdict:     s.verdict(scores),
		Suggestions: s.suggestions(scores, guide, recipientType),
	}, nil
}

// verdict compares the humor, urgency and warmth counts against the
// profile averages. Formality is excluded until it is actually scored.
func (s *Scorer) verdict(scores Scores) string {
	diff := math.Abs(float64(scores.Humor)-s.profile.Humor) +
		math.Abs(float64(scores.Urgency)-s.profile.Urgency) +
		math.Abs(float64(scores.Warmth)-s.profile.Warmth)

	switch {
	case diff < 1.0:
		return MatchHigh
	case diff < 2.0:
		return MatchMedium
	default:
		return MatchLow
	}
}

func (s *Scorer) suggestions(scores Scores, guide *Guide, recipientType string) []string {
	var suggestions []string

	if float64(scores.Humor) < 0.2 && recipientType == "prospect_early" {
		suggestions = append(suggestions, "Consider adding light humor for early-stage prospects")
	}

	if float64(scores.Urgency) > 0.5 {
		if _, ok := guide.UrgencyPhrases["high"]; !ok {
			suggestions = append(suggestions, "High urgency detected but not typical for the team voice - confirm this tone is intentional")
		}
	}

	return suggestions
}

// ToneForContext returns the guide's advice for a writing situation,
// filling defaults where the guide has no entry. (nil, nil) when no guide
// is available.
func (s *Scorer) ToneForContext(ctx context.Context, recipientType, dealStage, urgency string) (*ContextTone, error) {
	guide, err := s.cache.Get(ctx)
	if errors.Is(err, ErrNoGuide) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &ContextTone{
		Greeting:       guide.GreetingFor(recipientType),
		SignOff:        guide.SignOffFor(recipientType),
		Tone:           guide.TraitFor(dealStage),
		UrgencyPhrases: guide.PhrasesFor(urgency),
	}, nil
}
