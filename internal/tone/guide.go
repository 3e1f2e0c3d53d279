package tone

// Defaults returned when the guide has no entry for a context
const (
	DefaultGreeting = "Hi [name],"
	DefaultSignOff  = "Best,"
	defaultTraitKey = "default"
)

// Row is one entry from the style reference table. Columns the guide does
// not use for a given category are left empty.
type Row struct {
	Category    string
	Context     string
	Example     string
	Description string
	Level       string
	Phrases     string
}

// Trait describes one voice characteristic, e.g. how mail in the
// Negotiation stage should read.
type Trait struct {
	Description string
	Example     string
}

// Guide is the parsed style reference: how the team greets, signs off,
// and phrases urgency for each recipient type and deal stage.
type Guide struct {
	Greetings      map[string]string
	SignOffs       map[string]string
	Traits         map[string]Trait
	UrgencyPhrases map[string]string
}

// ParseRows builds a Guide from tabular rows. Rows with an unrecognized
// category are dropped silently so the reference sheet can carry extra
// sections without breaking parsing.
func ParseRows(rows []Row) *Guide {
	g := &Guide{
		Greetings:      make(map[string]string),
		SignOffs:       make(map[string]string),
		Traits:         make(map[string]Trait),
		UrgencyPhrases: make(map[string]string),
	}

	for _, row := range rows {
		switch row.Category {
		case "Greeting":
			g.Greetings[row.Context] = row.Example
		case "Sign-off":
			g.SignOffs[row.Context] = row.Example
		case "Tone":
			g.Traits[row.Context] = Trait{
				Description: row.Description,
				Example:     row.Example,
			}
		case "Urgency":
			g.UrgencyPhrases[row.Level] = row.Phrases
		}
	}

	return g
}

// GreetingFor returns the greeting for a recipient type, or the default
func (g *Guide) GreetingFor(recipientType string) string {
	if greeting, ok := g.Greetings[recipientType]; ok {
		return greeting
	}
	return DefaultGreeting
}

// SignOffFor returns the sign-off for a recipient type, or the default
func (g *Guide) SignOffFor(recipientType string) string {
	if signOff, ok := g.SignOffs[recipientType]; ok {
		return signOff
	}
	return DefaultSignOff
}

// TraitFor returns the voice trait for a deal stage, falling back to the
// guide's "default" entry. The zero Trait means the guide has neither.
func (g *Guide) TraitFor(dealStage string) Trait {
	if trait, ok := g.Traits[dealStage]; ok {
		return trait
	}
	return g.Traits[defaultTraitKey]
}

// PhrasesFor returns the phrases for an urgency level, or ""
func (g *Guide) PhrasesFor(urgency string) string {
	return g.UrgencyPhrases[urgency]
}

// StyleProfile is the baseline the scorer compares drafts against. Values
// are average per-axis keyword counts; intended to eventually be derived
// from historical sent mail.
type StyleProfile struct {
	Formality float64
	Humor     float64
	Urgency   float64
	Warmth    float64
}

// DefaultProfile is the hand-tuned baseline used until a profile can be
// computed from sent mail.
var DefaultProfile = StyleProfile{
	Formality: 0.7,
	Humor:     0.3,
	Urgency:   0.4,
	Warmth:    0.8,
}
