package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sendgrid/rest"
)

// Transport delivers one dequeued job.
type Transport interface {
	Deliver(ctx context.Context, from, fromName string, job Job) error
}

type smtpTransport struct {
	host string
	port string
	user string
	pass string
}

func NewSMTPTransport(host, port, user, pass string) Transport {
	return &smtpTransport{host: host, port: port, user: user, pass: pass}
}

func (t *smtpTransport) Deliver(_ context.Context, from, fromName string, job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", fromName, from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if t.user != "" && t.pass != "" {
		auth = smtp.PlainAuth("", t.user, t.pass, t.host)
	}

	return smtp.SendMail(t.host+":"+t.port, auth, from, []string{job.To}, []byte(message))
}

type sendGridClient interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridTransport struct {
	client sendGridClient
}

func NewSendGridTransport(apiKey string) Transport {
	return &sendGridTransport{client: sendgrid.NewSendClient(apiKey)}
}

func (t *sendGridTransport) Deliver(_ context.Context, from, fromName string, job Job) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(fromName, from),
		job.Subject,
		mail.NewEmail(job.Name, job.To),
		job.Body,
		"",
	)

	resp, err := t.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
