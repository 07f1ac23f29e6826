package delivery

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/saheer07/portfolio/internal/contact"
	"github.com/saheer07/portfolio/internal/logging"
)

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP mails each message to a single inbox, with Reply-To set to the visitor.
type SMTP struct {
	Host string
	Port int
	User string
	Pass string
	To   string

	// SendMail defaults to smtp.SendMail.
	SendMail SendMailFunc
}

func (s *SMTP) Send(ctx context.Context, msg contact.Message) error {
	if s.User == "" || s.Pass == "" {
		return fmt.Errorf("SMTP credentials not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	send := s.SendMail
	if send == nil {
		send = smtp.SendMail
	}

	addr := s.Host + ":" + strconv.Itoa(s.Port)
	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	if err := send(addr, auth, s.User, []string{s.To}, s.compose(msg)); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}

	logging.Info("Email sent", zap.String("from_name", msg.Name))
	return nil
}

func (s *SMTP) compose(msg contact.Message) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", headerSafe(msg.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Message)

	return []byte("To: " + s.To + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + s.User + "\r\n" +
		"Reply-To: " + headerSafe(msg.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// headerSafe strips line breaks so visitor input cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
