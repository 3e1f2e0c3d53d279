package classify

import (
	"strings"

	"github.com/craftable-labs/triage/internal/deals"
)

// Category is the triage category for an inbound email. Every email gets
// exactly one.
type Category string

const (
	CategoryUrgent      Category = "URGENT"
	CategoryReplyNeeded Category = "REPLY_NEEDED"
	CategoryFYI         Category = "FYI"
	CategoryJunk        Category = "JUNK"
)

// Input is the normalized email view the classifier operates on, plus the
// deal association looked up for the sender (nil when the sender is not a
// known deal contact).
type Input struct {
	Sender  string // Raw From header
	Subject string
	Body    string
	Deal    *deals.Deal
}

func (in Input) activeDeal() bool {
	return in.Deal != nil && in.Deal.Stage.Active()
}

func (in Input) hasUrgencyKeyword() bool {
	return ContainsAny(in.Subject+" "+in.Body, UrgencyWords)
}

func (in Input) looksLikeJunk() bool {
	sender := strings.ToLower(in.Sender)
	subject := strings.ToLower(in.Subject)
	for _, ind := range JunkIndicators {
		if strings.Contains(sender, ind) || strings.Contains(subject, ind) {
			return true
		}
	}
	return false
}

// rule is one step of the classification cascade. Rules are evaluated in
// order and the first match wins; the order IS the classification policy.
type rule struct {
	name     string
	matches  func(Input) bool
	category Category
}

var rules = []rule{
	{
		name:     "junk-indicator",
		matches:  Input.looksLikeJunk,
		category: CategoryJunk,
	},
	{
		name:     "active-deal-urgent",
		matches:  func(in Input) bool { return in.activeDeal() && in.hasUrgencyKeyword() },
		category: CategoryUrgent,
	},
	{
		name:     "active-deal",
		matches:  Input.activeDeal,
		category: CategoryReplyNeeded,
	},
	{
		name:     "urgency-keyword",
		matches:  Input.hasUrgencyKeyword,
		category: CategoryReplyNeeded,
	},
	{
		name:     "default",
		matches:  func(Input) bool { return true },
		category: CategoryFYI,
	},
}

// Classify maps an email to its triage category. Deterministic and total:
// the final rule always matches.
func Classify(in Input) Category {
	for _, r := range rules {
		if r.matches(in) {
			return r.category
		}
	}
	return CategoryFYI // unreachable, the default rule matches everything
}

// RuleNames returns the cascade's rule names in evaluation order.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
