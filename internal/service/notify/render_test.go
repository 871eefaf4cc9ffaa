package notify

import (
	"strings"
	"testing"
)

func TestFormatMinor(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{99, "0.99"},
		{100, "1.00"},
		{1299, "12.99"},
		{3837, "38.37"},
		{-250, "-2.50"},
	}
	for _, c := range cases {
		if got := formatMinor(c.minor); got != c.want {
			t.Fatalf("formatMinor(%d) = %q, ожидали %q", c.minor, got, c.want)
		}
	}
}

func TestRenderEscapesUserContent(t *testing.T) {
	n := testNotification()
	n.Lines[0].Name = `<script>alert("x")</script>`

	_, body, err := RenderCustomerEmail(n)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatal("имя товара должно экранироваться в HTML")
	}
}

func TestRenderBrevoSenderRequiresConfig(t *testing.T) {
	if _, err := NewBrevoSender(BrevoConfig{}, nil); err == nil {
		t.Fatal("пустая конфигурация Brevo должна отвергаться")
	}
	if _, err := NewBrevoSender(BrevoConfig{APIKey: "key", FromEmail: "shop@example.com"}, nil); err != nil {
		t.Fatalf("валидная конфигурация должна приниматься: %v", err)
	}
}
