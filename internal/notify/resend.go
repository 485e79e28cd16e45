package notify

import (
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers email through the Resend API. It implements
// common.EmailSender.
type ResendSender struct {
	Client *resend.Client
	From   string
}

// NewResendSender builds a sender from an API key and sender address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{Client: resend.NewClient(apiKey), From: from}
}

// Send dispatches a plain-text email.
func (s *ResendSender) Send(to, subject, body string) error {
	if s.Client == nil {
		return fmt.Errorf("resend: client not configured")
	}
	_, err := s.Client.Emails.Send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("resend: send to %s: %w", to, err)
	}
	return nil
}
