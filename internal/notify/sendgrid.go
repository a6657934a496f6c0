package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Skotchmaster/stayfinder/internal/config"
	"github.com/Skotchmaster/stayfinder/internal/models"
)

const sendEndpoint = "/v3/mail/send"

type SendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridMailer talks to the public SendGrid API unless host is set.
func NewSendGridMailer(cfg config.MailConfig, host string) *SendGridMailer {
	req := sendgrid.GetRequest(cfg.SendGridAPIKey, sendEndpoint, host)
	req.Method = http.MethodPost
	return &SendGridMailer{
		client:   &sendgrid.Client{Request: req},
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to *models.User, subject, body string) error {
	from := mail.NewEmail(m.fromName, m.from)
	recipient := mail.NewEmail(strings.TrimSpace(to.FirstName+" "+to.LastName), to.Email)
	message := mail.NewSingleEmail(from, subject, recipient, body, "<p>"+body+"</p>")

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
