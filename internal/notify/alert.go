package notify

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// AlertData feeds the urgent-alert message template
type AlertData struct {
	Subject    string
	Sender     string
	DealName   string
	DealStage  string
	Sentiment  string
	Preview    string
	ReceivedAt time.Time
}

var alertTemplate = template.Must(template.New("alert").Parse(`An urgent email needs your attention.

From:      {{.Sender}}
Subject:   {{.Subject}}
{{- if .DealName}}
Deal:      {{.DealName}} ({{.DealStage}}){{- end}}
Sentiment: {{.Sentiment}}
Received:  {{.ReceivedAt.Format "Mon Jan 2 15:04"}}

{{.Preview}}
`))

// FormatAlert renders the alert subject and body for delivery
func FormatAlert(d AlertData) (subject, body string, err error) {
	subject = fmt.Sprintf("URGENT: %s", d.Sender)

	var sb strings.Builder
	if err := alertTemplate.Execute(&sb, d); err != nil {
		return "", "", fmt.Errorf("failed to render alert: %w", err)
	}
	return subject, sb.String(), nil
}
