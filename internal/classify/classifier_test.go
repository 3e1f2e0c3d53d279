package classify

import (
	"testing"

	"github.com/craftable-labs/triage/internal/deals"
)

func activeDeal() *deals.Deal {
	return &deals.Deal{ID: "acme-q3", Name: "Acme Q3 Renewal", Stage: deals.StageNegotiation}
}

func closedDeal() *deals.Deal {
	return &deals.Deal{ID: "initech", Name: "Initech Pilot", Stage: deals.StageClosedWon}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Category
	}{
		{
			name: "newsletter is junk",
			in:   Input{Sender: "newsletter@deals.com", Subject: "50% off - unsubscribe anytime"},
			want: CategoryJunk,
		},
		{
			name: "junk wins over active deal with urgent keywords",
			in: Input{
				Sender:  "no-reply@acme.com",
				Subject: "urgent contract deadline",
				Body:    "please respond asap",
				Deal:    activeDeal(),
			},
			want: CategoryJunk,
		},
		{
			name: "junk indicator in subject only",
			in:   Input{Sender: "jane@acme.com", Subject: "Our spring promo lineup"},
			want: CategoryJunk,
		},
		{
			name: "active deal with urgency is urgent",
			in: Input{
				Sender: "Jane Doe <jane@acme.com>",
				Body:   "this is urgent, please respond ASAP",
				Deal:   activeDeal(),
			},
			want: CategoryUrgent,
		},
		{
			name: "urgency keyword in subject counts",
			in:   Input{Sender: "jane@acme.com", Subject: "Contract question", Deal: activeDeal()},
			want: CategoryUrgent,
		},
		{
			name: "active deal without urgency needs a reply",
			in:   Input{Sender: "jane@acme.com", Subject: "Intro call follow-up", Body: "sounds good", Deal: activeDeal()},
			want: CategoryReplyNeeded,
		},
		{
			name: "closed deal does not escalate",
			in:   Input{Sender: "bill@initech.com", Subject: "Checking in", Body: "how are things", Deal: closedDeal()},
			want: CategoryFYI,
		},
		{
			name: "urgency without a deal still needs a reply",
			in:   Input{Sender: "stranger@example.com", Body: "we have a problem with the invoice"},
			want: CategoryReplyNeeded,
		},
		{
			name: "closed deal with urgency needs a reply",
			in:   Input{Sender: "bill@initech.com", Body: "deadline is friday", Deal: closedDeal()},
			want: CategoryReplyNeeded,
		},
		{
			name: "plain mail is FYI",
			in:   Input{Sender: "sales@bigco.com", Subject: "Quick question", Body: "thanks for the call"},
			want: CategoryFYI,
		},
		{
			name: "empty email is FYI",
			in:   Input{},
			want: CategoryFYI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

// The cascade order is policy: junk suppression first, then deal-aware
// escalation, then keyword escalation, then the default.
func TestRuleOrder(t *testing.T) {
	want := []string{"junk-indicator", "active-deal-urgent", "active-deal", "urgency-keyword", "default"}
	got := RuleNames()
	if len(got) != len(want) {
		t.Fatalf("got %d rules, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rule %d = %q, want %q", i, got[i], want[i])
		}
	}
}
