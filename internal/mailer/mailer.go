package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"go.uber.org/zap"

	"bakery/internal/metrics"
	"bakery/internal/views"
)

// sendTimeout bounds a single background delivery.
const sendTimeout = 30 * time.Second

// Message is a rendered HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Mailer renders templates and hands messages to a Sender in the background.
type Mailer struct {
	sender Sender
	from   string
	tmpl   *template.Template
	logger *zap.Logger
	wg     sync.WaitGroup
}

func New(sender Sender, from string, logger *zap.Logger) (*Mailer, error) {
	tmpl, err := views.Mail()
	if err != nil {
		return nil, err
	}
	return &Mailer{sender: sender, from: from, tmpl: tmpl, logger: logger}, nil
}

// Send renders name with data and delivers it asynchronously. Only
// rendering errors are returned; delivery failures are logged.
func (m *Mailer) Send(subject, recipient, name string, data any) error {
	var body bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	msg := Message{From: m.from, To: recipient, Subject: subject, HTML: body.String()}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := m.sender.Send(ctx, msg); err != nil {
			metrics.EmailsSent.WithLabelValues("failed").Inc()
			m.logger.Error("send mail failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		metrics.EmailsSent.WithLabelValues("sent").Inc()
		m.logger.Info("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	}()
	return nil
}

// Wait blocks until every delivery started so far has finished.
func (m *Mailer) Wait() {
	m.wg.Wait()
}
