package notifications

import (
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"tracker/src/config"
)

// MailClient sends one message to one recipient. The SMTP implementation below
// is the production client; tests substitute their own.
type MailClient interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}

// ComposeMessage renders the subject and body for an event kind.
func ComposeMessage(e Event) (subject, body string) {
	switch e.Kind {
	case KindSignup:
		subject = "[InvestmentTracker] Welcome to Investment Tracker!"
		body = fmt.Sprintf("Hi %s,\nWelcome to Investment Tracker! Thank you for signing up. Enjoy!\n\nInvestmentTracker Team",
			e.Payload["username"])
	case KindTransaction:
		subject = "[InvestmentTracker] Transaction Notification!"
		body = fmt.Sprintf("Hi,\nYou implemented a new transaction!\nYour recent transaction details:\n%s\n\nInvestmentTracker Team",
			formatPayload(e.Payload))
	case KindFundsUpdated:
		subject = "[InvestmentTracker] Balance Updated!"
		body = fmt.Sprintf("Hi,\nYou added some funds to your account!\nBalance added: %s\nTotal Balance: %s\n\nInvestmentTracker Team",
			e.Payload["amount"], e.Payload["balance"])
	default:
		subject = "[InvestmentTracker] Notification"
		body = formatPayload(e.Payload)
	}
	return subject, body
}

func formatPayload(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, payload[k])
	}
	return b.String()
}
