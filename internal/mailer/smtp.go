package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const dialTimeout = 10 * time.Second

// SMTPSender delivers mail through an SMTP relay, upgrading to TLS when
// the server offers STARTTLS.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (s SMTPSender) Send(ctx context.Context, m Message) error {
	msg, err := Compose(m)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(dialTimeout),
	}
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	client, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", m.To, err)
	}
	return nil
}

// Compose builds the HTML message for m. Addresses are validated and
// headers encoded by go-mail.
func Compose(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("from address %q: %w", m.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to address %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	return msg, nil
}

// LogSender only logs messages. It is used when no MAIL_SERVER is set.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Logger.Info("mail not sent (no MAIL_SERVER configured)",
		zap.String("from", m.From),
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.HTML))
	return nil
}
