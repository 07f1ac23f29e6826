package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/saheer07/portfolio/internal/contact"
	"github.com/saheer07/portfolio/internal/logging"
)

const emailJSSendPath = "/api/v1.0/email/send"

// EmailJS relays messages through the EmailJS REST API using a fixed
// service/template pair.
type EmailJS struct {
	BaseURL     string
	ServiceID   string
	TemplateID  string
	PublicKey   string
	AccessToken string
	Client      *http.Client
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// StatusError is a non-200 answer from a delivery provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Code, e.Body)
}

func (e *EmailJS) Send(ctx context.Context, msg contact.Message) error {
	payload, err := json.Marshal(emailJSRequest{
		ServiceID:      e.ServiceID,
		TemplateID:     e.TemplateID,
		UserID:         e.PublicKey,
		AccessToken:    e.AccessToken,
		TemplateParams: msg.TemplateParams(),
	})
	if err != nil {
		return fmt.Errorf("encoding emailjs request: %w", err)
	}

	url := strings.TrimRight(e.BaseURL, "/") + emailJSSendPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := e.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	logging.Info("Email relayed via EmailJS",
		zap.String("service_id", e.ServiceID),
		zap.String("template_id", e.TemplateID),
	)
	return nil
}
