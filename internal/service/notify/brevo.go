package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// brevoEndpoint — транзакционный SMTP API Brevo.
const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoConfig — реквизиты Brevo API.
type BrevoConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Endpoint переопределяется в тестах, по умолчанию боевой API.
	Endpoint string
}

// BrevoSender отправляет письма через HTTP API Brevo.
type BrevoSender struct {
	client   *http.Client
	config   BrevoConfig
	endpoint string
	logger   *logrus.Logger
}

// NewBrevoSender создаёт транспорт Brevo.
func NewBrevoSender(config BrevoConfig, logger *logrus.Logger) (*BrevoSender, error) {
	if config.APIKey == "" || config.FromEmail == "" {
		return nil, fmt.Errorf("notify: brevo api key and from email are required")
	}
	if config.FromName == "" {
		config.FromName = "Metro Store"
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = brevoEndpoint
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BrevoSender{
		client:   &http.Client{Timeout: 15 * time.Second},
		config:   config,
		endpoint: endpoint,
		logger:   logger,
	}, nil
}

type brevoParty struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoMessage struct {
	Sender      brevoParty   `json:"sender"`
	To          []brevoParty `json:"to"`
	Subject     string       `json:"subject"`
	HTMLContent string       `json:"htmlContent"`
}

// Send доставляет одно письмо. Не-2xx ответ API считается ошибкой транспорта.
func (s *BrevoSender) Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error {
	payload, err := json.Marshal(brevoMessage{
		Sender:      brevoParty{Email: s.config.FromEmail, Name: s.config.FromName},
		To:          []brevoParty{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal brevo payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build brevo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: brevo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Error("notify: brevo api call failed")
		return fmt.Errorf("notify: brevo api returned status %d", resp.StatusCode)
	}

	s.logger.WithField("to", toEmail).Info("notify: письмо передано Brevo")
	return nil
}

var _ domain.EmailSender = (*BrevoSender)(nil)
