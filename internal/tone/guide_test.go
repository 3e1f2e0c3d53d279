package tone

import (
	"testing"
)

func sampleRows() []Row {
	return []Row{
		{Category: "Greeting", Context: "prospect_early", Example: "Hey there,"},
		{Category: "Greeting", Context: "customer", Example: "Hi [name],"},
		{Category: "Sign-off", Context: "prospect_early", Example: "Cheers,"},
		{Category: "Tone", Context: "Negotiation", Description: "direct, no filler", Example: "Let's lock this in."},
		{Category: "Tone", Context: "default", Description: "friendly, concise", Example: "Quick one for you."},
		{Category: "Urgency", Level: "low", Phrases: "whenever you get a chance"},
		{Category: "Notes", Context: "anything", Example: "should be dropped"},
	}
}

func TestParseRows(t *testing.T) {
	g := ParseRows(sampleRows())

	if got := g.Greetings["prospect_early"]; got != "Hey there," {
		t.Errorf("greeting = %q, want %q", got, "Hey there,")
	}
	if got := g.SignOffs["prospect_early"]; got != "Cheers," {
		t.Errorf("sign-off = %q, want %q", got, "Cheers,")
	}
	if got := g.Traits["Negotiation"].Description; got != "direct, no filler" {
		t.Errorf("trait description = %q, want %q", got, "direct, no filler")
	}
	if got := g.UrgencyPhrases["low"]; got != "whenever you get a chance" {
		t.Errorf("urgency phrases = %q, want %q", got, "whenever you get a chance")
	}

	// Unrecognized categories are dropped, not kept anywhere
	if len(g.Greetings) != 2 || len(g.SignOffs) != 1 || len(g.Traits) != 2 || len(g.UrgencyPhrases) != 1 {
		t.Errorf("unexpected map sizes: %d/%d/%d/%d",
			len(g.Greetings), len(g.SignOffs), len(g.Traits), len(g.UrgencyPhrases))
	}
}

func TestGuideDefaults(t *testing.T) {
	g := ParseRows(sampleRows())

	if got := g.GreetingFor("investor"); got != DefaultGreeting {
		t.Errorf("greeting fallback = %q, want %q", got, DefaultGreeting)
	}
	if got := g.SignOffFor("investor"); got != DefaultSignOff {
		t.Errorf("sign-off fallback = %q, want %q", got, DefaultSignOff)
	}
	if got := g.TraitFor("Discovery"); got.Description != "friendly, concise" {
		t.Errorf("trait fallback = %+v, want the default entry", got)
	}
	if got := g.PhrasesFor("high"); got != "" {
		t.Errorf("phrases fallback = %q, want empty", got)
	}
}

func TestTraitForNoDefaultEntry(t *testing.T) {
	g := ParseRows([]Row{
		{Category: "Tone", Context: "Negotiation", Description: "direct"},
	})

	if got := g.TraitFor("Discovery"); got != (Trait{}) {
		t.Errorf("trait with no default entry = %+v, want zero value", got)
	}
}
