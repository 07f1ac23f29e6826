package delivery

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/saheer07/portfolio/internal/config"
	"github.com/saheer07/portfolio/internal/contact"
	"github.com/saheer07/portfolio/internal/logging"
)

// Log accepts every message and only logs it. Used when no provider is
// configured.
type Log struct{}

func (Log) Send(ctx context.Context, msg contact.Message) error {
	logging.Info("Contact message (not delivered)",
		zap.String("from_name", msg.Name),
		zap.String("from_email", msg.Email),
		zap.Int("message_len", len(msg.Message)),
	)
	return nil
}

// New returns the Sender selected by cfg.Delivery.Provider.
func New(cfg *config.Config) (contact.Sender, error) {
	switch cfg.Delivery.Provider {
	case config.ProviderEmailJS:
		return &EmailJS{
			BaseURL:     cfg.EmailJS.BaseURL,
			ServiceID:   cfg.EmailJS.ServiceID,
			TemplateID:  cfg.EmailJS.TemplateID,
			PublicKey:   cfg.EmailJS.PublicKey,
			AccessToken: cfg.EmailJS.AccessToken,
			Client:      &http.Client{Timeout: cfg.Delivery.Timeout},
		}, nil
	case config.ProviderSMTP:
		return &SMTP{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			To:   cfg.SMTP.To,
		}, nil
	case config.ProviderLog, "":
		return Log{}, nil
	}
	return nil, fmt.Errorf("unknown delivery provider %q", cfg.Delivery.Provider)
}
