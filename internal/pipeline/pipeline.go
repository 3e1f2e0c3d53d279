package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/craftable-labs/triage/internal/classify"
	"github.com/craftable-labs/triage/internal/deals"
	"github.com/craftable-labs/triage/internal/inbox"
	"github.com/craftable-labs/triage/internal/notify"
	"github.com/craftable-labs/triage/internal/store"
	"github.com/craftable-labs/triage/internal/tone"
)

// MailSource lists unread mail to triage
type MailSource interface {
	FetchUnread(ctx context.Context, days int) ([]inbox.Email, error)
}

// DealLookup resolves a sender address to a deal, nil when unknown
type DealLookup interface {
	LookupByAddress(addr string) *deals.Deal
}

// RecordStore persists triage results
type RecordStore interface {
	UpsertClassification(c *store.Classification) error
	AddAlert(a *store.Alert) error
	AddLog(event, detail string) error
}

// ToneScorer rates a body for voice fidelity, nil score when no guide
type ToneScorer interface {
	Score(ctx context.Context, body, recipientType string) (*tone.ToneScore, error)
}

// Processor runs one triage pass over the inbox
type Processor struct {
	source    MailSource
	deals     DealLookup
	records   RecordStore
	scorer    ToneScorer
	notifier  notify.Notifier
	alertFrom string
	alertTo   string
}

// Summary reports what one run did
type Summary struct {
	Checked       int
	Processed     int
	Failed        int
	Alerts        int
	ByCategory    map[classify.Category]int
	ProcessedUIDs []uint32
}

func NewProcessor(source MailSource, dealLookup DealLookup, records RecordStore, scorer ToneScorer) *Processor {
	return &Processor{
		source:  source,
		deals:   dealLookup,
		records: records,
		scorer:  scorer,
	}
}

// WithNotifier enables urgent-alert delivery. Without it alerts are only
// recorded in the store.
func (p *Processor) WithNotifier(n notify.Notifier, from, to string) *Processor {
	p.notifier = n
	p.alertFrom = from
	p.alertTo = to
	return p
}

const previewRunes = 200

// preview truncates by rune so a multibyte character is never split
func preview(body string) string {
	runes := []rune(body)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes])
	}
	return body
}

// recipientTypeFor maps a deal to the style-guide recipient type
func recipientTypeFor(deal *deals.Deal) string {
	if deal == nil {
		return "unknown"
	}
	switch deal.Stage {
	case deals.StageQualification, deals.StageDiscovery:
		return "prospect_early"
	default:
		return "customer"
	}
}

// Run triages unread mail from the last N days. Per-email failures are
// logged and counted but do not stop the run; only a listing failure
// fails the batch.
func (p *Processor) Run(ctx context.Context, days int) (*Summary, error) {
	log.Printf("Checking inbox...")

	emails, err := p.source.FetchUnread(ctx, days)
	if err != nil {
		if logErr := p.records.AddLog("inbox_check_failed", err.Error()); logErr != nil {
			log.Printf("Warning: failed to record activity: %v", logErr)
		}
		return nil, fmt.Errorf("failed to list unread mail: %w", err)
	}

	summary := &Summary{
		Checked:    len(emails),
		ByCategory: make(map[classify.Category]int),
	}

	for i := range emails {
		if err := p.processEmail(ctx, &emails[i], summary); err != nil {
			log.Printf("Error processing email %s: %v", emails[i].MessageID, err)
			summary.Failed++
			continue
		}
		summary.Processed++
		summary.ProcessedUIDs = append(summary.ProcessedUIDs, emails[i].UID)
	}

	detail := fmt.Sprintf("checked %d emails, %d processed, %d failed, %d alerts",
		summary.Checked, summary.Processed, summary.Failed, summary.Alerts)
	if err := p.records.AddLog("inbox_check_completed", detail); err != nil {
		log.Printf("Warning: failed to record activity: %v", err)
	}

	log.Printf("Inbox check complete: %s", detail)
	return summary, nil
}

func (p *Processor) processEmail(ctx context.Context, email *inbox.Email, summary *Summary) error {
	deal := p.deals.LookupByAddress(email.SenderAddress())

	category := classify.Classify(classify.Input{
		Sender:  email.From,
		Subject: email.Subject,
		Body:    email.Body,
		Deal:    deal,
	})
	sentiment := classify.AnalyzeSentiment(email.Body)

	toneVerdict := ""
	if p.scorer != nil && category != classify.CategoryJunk {
		score, err := p.scorer.Score(ctx, email.Body, recipientTypeFor(deal))
		if err != nil {
			// Tone scoring is advisory; a broken guide source must not
			// block classification
			log.Printf("Warning: tone scoring failed for %s: %v", email.MessageID, err)
		} else if score != nil {
			toneVerdict = score.Verdict
		}
	}

	c := &store.Classification{
		MessageID:   email.MessageID,
		Sender:      email.SenderAddress(),
		SenderName:  email.FromName,
		Subject:     email.Subject,
		Category:    string(category),
		Sentiment:   string(sentiment),
		ToneVerdict: toneVerdict,
		ReceivedAt:  email.ReceivedAt,
	}
	if deal != nil {
		c.DealID = deal.ID
		c.DealName = deal.Name
	}

	if err := p.records.UpsertClassification(c); err != nil {
		return err
	}

	summary.ByCategory[category]++
	log.Printf("Categorized: %s - %s", category, email.Subject)

	if category == classify.CategoryUrgent {
		if err := p.raiseAlert(ctx, email, deal, string(sentiment)); err != nil {
			return err
		}
		summary.Alerts++
	}

	return nil
}

// raiseAlert records exactly one alert for an urgent email and, when a
// notifier is configured, delivers it. Delivery failure is logged but
// does not fail the email: the alert record is the source of truth.
func (p *Processor) raiseAlert(ctx context.Context, email *inbox.Email, deal *deals.Deal, sentiment string) error {
	a := &store.Alert{
		MessageID: email.MessageID,
		Sender:    email.From,
		Subject:   email.Subject,
		Preview:   preview(email.Body),
	}
	if deal != nil {
		a.DealID = deal.ID
		a.DealName = deal.Name
	}

	if err := p.records.AddAlert(a); err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	log.Printf("Urgent alert raised: %s", email.Subject)

	if p.notifier == nil {
		return nil
	}

	data := notify.AlertData{
		Subject:    email.Subject,
		Sender:     email.From,
		Sentiment:  sentiment,
		Preview:    a.Preview,
		ReceivedAt: email.ReceivedAt,
	}
	if deal != nil {
		data.DealName = deal.Name
		data.DealStage = string(deal.Stage)
	}

	subject, body, err := notify.FormatAlert(data)
	if err != nil {
		log.Printf("Warning: failed to render alert for %s: %v", email.MessageID, err)
		return nil
	}

	result := p.notifier.Send(ctx, notify.Message{
		From:    p.alertFrom,
		To:      p.alertTo,
		Subject: subject,
		Body:    body,
	})
	if !result.Success {
		log.Printf("Warning: alert delivery failed for %s: %v", email.MessageID, result.Error)
	}
	return nil
}
