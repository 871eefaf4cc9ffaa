package notify

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// SentEmail — одно письмо, принятое mock-транспортом.
type SentEmail struct {
	ToEmail  string
	ToName   string
	Subject  string
	HTMLBody string
}

// MockSender — конфигурируемая заглушка EmailSender для тестов.
// Ошибки настраиваются по адресу получателя.
type MockSender struct {
	mu     sync.Mutex
	Errors map[string]error

	Sent      []SentEmail
	SendCalls int
}

// NewMockSender возвращает транспорт, принимающий всё подряд.
func NewMockSender() *MockSender {
	return &MockSender{Errors: make(map[string]error)}
}

// FailFor настраивает ошибку для конкретного адреса.
func (m *MockSender) FailFor(email string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[email] = err
}

// Send записывает письмо либо возвращает настроенную ошибку.
func (m *MockSender) Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SendCalls++
	if err, ok := m.Errors[toEmail]; ok && err != nil {
		return err
	}
	m.Sent = append(m.Sent, SentEmail{
		ToEmail:  toEmail,
		ToName:   toName,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
	return nil
}

// SentTo возвращает письма, принятые для адреса.
func (m *MockSender) SentTo(email string) []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []SentEmail
	for _, sent := range m.Sent {
		if sent.ToEmail == email {
			matched = append(matched, sent)
		}
	}
	return matched
}

var _ domain.EmailSender = (*MockSender)(nil)
