/*
Package notify sends confirmation notices by email.

The EmailNotifier implements confirm.Notifier. It is called after a
confirmation has committed; a failed send is reported to the caller, which
logs it and moves on.
*/
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/confirm"
)

// sender is the part of the resend client the notifier uses.
type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailNotifier mails a short notice for every committed confirmation.
type EmailNotifier struct {
	emails sender
	logger *zap.Logger
	from   string
	to     []string
}

// NewEmailNotifier returns a notifier sending through resend.
func NewEmailNotifier(apiKey, from string, to []string, logger *zap.Logger) *EmailNotifier {
	client := resend.NewClient(apiKey)
	return newEmailNotifier(client.Emails, from, to, logger)
}

func newEmailNotifier(emails sender, from string, to []string, logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{emails: emails, logger: logger, from: from, to: to}
}

// noticeData feeds the email templates.
type noticeData struct {
	Kind        string
	RecordID    string
	Period      string
	DueDate     string
	NextDueDate string
	Deactivated bool
	ConfirmedBy string
	ConfirmedAt string
	Notes       string
}

var htmlBody = template.Must(template.New("notice").Parse(`<p>{{.Kind}} <strong>{{.RecordID}}</strong> was confirmed by {{.ConfirmedBy}} on {{.ConfirmedAt}}.</p>
<ul>
{{- if .Period}}<li>Ending period: {{.Period}}</li>{{end}}
<li>Due date: {{.DueDate}}</li>
{{- if .Deactivated}}<li>No further recurrence: the record is now inactive.</li>
{{- else}}<li>Next due date: <strong>{{.NextDueDate}}</strong></li>{{end}}
</ul>
{{- if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}`))

// Notify sends the notice.
func (n *EmailNotifier) Notify(ctx context.Context, notice confirm.Notice) error {
	data := newNoticeData(notice)

	var buf bytes.Buffer
	if err := htmlBody.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render notice: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: subject(data),
		Html:    buf.String(),
		Text:    text(data),
		Tags: []resend.Tag{
			{Name: "category", Value: "confirmation"},
			{Name: "kind", Value: string(notice.Entry.Kind)},
		},
	}

	sent, err := n.emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("confirmation notice sent",
		zap.String("email_id", sent.Id),
		zap.String("record_id", notice.Entry.RecordID))
	return nil
}

func newNoticeData(n confirm.Notice) noticeData {
	data := noticeData{
		Kind:        strings.ReplaceAll(string(n.Entry.Kind), "_", " "),
		RecordID:    n.Entry.RecordID,
		DueDate:     calendar.Format(n.Entry.DueDate),
		Deactivated: n.Deactivated,
		ConfirmedBy: n.Entry.ConfirmedBy,
		ConfirmedAt: n.Entry.ConfirmedAt.UTC().Format("2006-01-02 15:04 MST"),
		Notes:       n.Entry.Notes,
	}
	if !n.Entry.EndingPeriod.IsZero() {
		data.Period = calendar.Format(n.Entry.EndingPeriod)
	}
	if !n.Deactivated {
		data.NextDueDate = calendar.Format(n.NextDueDate)
	}
	return data
}

func subject(d noticeData) string {
	if d.Deactivated {
		return fmt.Sprintf("Confirmed %s %s (closed)", d.Kind, d.RecordID)
	}
	return fmt.Sprintf("Confirmed %s %s, next due %s", d.Kind, d.RecordID, d.NextDueDate)
}

func text(d noticeData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s was confirmed by %s on %s.\n", d.Kind, d.RecordID, d.ConfirmedBy, d.ConfirmedAt)
	if d.Period != "" {
		fmt.Fprintf(&b, "Ending period: %s\n", d.Period)
	}
	fmt.Fprintf(&b, "Due date: %s\n", d.DueDate)
	if d.Deactivated {
		b.WriteString("No further recurrence: the record is now inactive.\n")
	} else {
		fmt.Fprintf(&b, "Next due date: %s\n", d.NextDueDate)
	}
	if d.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", d.Notes)
	}
	return b.String()
}
