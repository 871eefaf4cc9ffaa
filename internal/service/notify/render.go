package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// Письма рендерятся как inline-styled HTML: почтовые клиенты не грузят
// внешние стили. Покупательский и административный шаблон различаются
// только шапкой и строкой о покупателе.

const customerTemplateText = `<div style="font-family: system-ui, sans-serif, Arial; font-size: 14px; color: #333; padding: 14px 8px; background-color: #f5f5f5;">
  <div style="max-width: 600px; margin: auto; background-color: #fff;">
    <div style="border-top: 6px solid #458500; padding: 16px;">
      <span style="font-size: 16px; vertical-align: middle; border-left: 1px solid #333; padding-left: 8px;"><strong>Thank You for Your Order</strong></span>
    </div>
    <div style="padding: 0 16px;">
      <p>We'll send you tracking information when the order ships.</p>
      <div style="text-align: left; font-size: 14px; padding-bottom: 4px; border-bottom: 2px solid #333;"><strong>Order # {{.OrderID}}</strong></div>
      <br>
      <table style="width: 100%; border-collapse: collapse;">
        <tbody>
        {{- range .Lines}}
          <tr style="vertical-align: top;">
            <td style="padding: 24px 8px 0px; width: 78%;">
              <div>{{.Name}}</div>
              <div style="font-size: 14px; color: #888; padding-top: 4px;">QTY: {{.Units}}</div>
            </td>
            <td style="padding: 24px 4px 0px 0px; white-space: nowrap; width: 12%;"><strong>${{money .PriceMinor}}</strong></td>
          </tr>
        {{- end}}
        </tbody>
      </table>
      <div style="padding: 24px 0;">
        <div style="border-top: 2px solid #333;">&nbsp;</div>
      </div>
      <table style="border-collapse: collapse; width: 100%; text-align: right;">
        <tbody>
          <tr>
            <td style="width: 60%;">&nbsp;</td>
            <td>Shipping</td>
            <td style="padding: 8px; white-space: nowrap;">${{money .Cost.ShippingMinor}}</td>
          </tr>
          <tr>
            <td style="width: 60%;">&nbsp;</td>
            <td>Taxes</td>
            <td style="padding: 8px; white-space: nowrap;">${{money .Cost.TaxMinor}}</td>
          </tr>
          <tr>
            <td style="width: 60%;">&nbsp;</td>
            <td style="border-top: 2px solid #333;"><strong style="white-space: nowrap;">Order Total</strong></td>
            <td style="padding: 16px 8px; border-top: 2px solid #333; white-space: nowrap;"><strong>${{money .Cost.TotalMinor}}</strong></td>
          </tr>
        </tbody>
      </table>
    </div>
    <div style="max-width: 600px; margin: auto;">
      <p style="color: #999;">The email was sent to {{.CustomerEmail}}<br>You received this email because you placed the order</p>
    </div>
  </div>
</div>`

const adminTemplateText = `<div style="font-family: system-ui, sans-serif, Arial; font-size: 14px; color: #333; padding: 14px 8px; background-color: #f5f5f5;">
  <div style="max-width: 600px; margin: auto; background-color: #fff;">
    <div style="border-top: 6px solid #ff6b35; padding: 16px;">
      <span style="font-size: 16px; vertical-align: middle; border-left: 1px solid #333; padding-left: 8px;"><strong>New Order Received</strong></span>
    </div>
    <div style="padding: 0 16px;">
      <p><strong>Customer:</strong> {{.CustomerEmail}}</p>
      <div style="text-align: left; font-size: 14px; padding-bottom: 4px; border-bottom: 2px solid #333;"><strong>Order # {{.OrderID}}</strong></div>
      <br>
      <table style="width: 100%; border-collapse: collapse;">
        <tbody>
        {{- range .Lines}}
          <tr style="vertical-align: top;">
            <td style="padding: 24px 8px 0px; width: 78%;">
              <div>{{.Name}}</div>
              <div style="font-size: 14px; color: #888; padding-top: 4px;">QTY: {{.Units}}</div>
            </td>
            <td style="padding: 24px 4px 0px 0px; white-space: nowrap; width: 12%;"><strong>${{money .PriceMinor}}</strong></td>
          </tr>
        {{- end}}
        </tbody>
      </table>
      <div style="padding: 24px 0;">
        <div style="border-top: 2px solid #333;">&nbsp;</div>
      </div>
      <table style="border-collapse: collapse; width: 100%; text-align: right;">
        <tbody>
          <tr>
            <td style="width: 60%;">&nbsp;</td>
            <td>Shipping</td>
            <td style="padding: 8px; white-space: nowrap;">${{money .Cost.ShippingMinor}}</td>
          </tr>
          <tr>
            <td style="width: 60%;">&nbsp;</td>
            <td>Taxes</td>
            <td style="padding: 8px; white-space: nowrap;">${{money .Cost.TaxMinor}}</td>
          </tr>
          <tr>
            <td style="width: 60%;">&nbsp;</td>
            <td style="border-top: 2px solid #333;"><strong style="white-space: nowrap;">Order Total</strong></td>
            <td style="padding: 16px 8px; border-top: 2px solid #333; white-space: nowrap;"><strong>${{money .Cost.TotalMinor}}</strong></td>
          </tr>
        </tbody>
      </table>
    </div>
  </div>
</div>`

var templateFuncs = template.FuncMap{
	"money": formatMinor,
}

var (
	customerTemplate = template.Must(template.New("customer").Funcs(templateFuncs).Parse(customerTemplateText))
	adminTemplate    = template.Must(template.New("admin").Funcs(templateFuncs).Parse(adminTemplateText))
)

// formatMinor форматирует сумму в минимальных единицах как "12.99".
func formatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// RenderCustomerEmail собирает письмо-подтверждение для покупателя.
func RenderCustomerEmail(n domain.OrderNotification) (subject, htmlBody string, err error) {
	var sb strings.Builder
	if err := customerTemplate.Execute(&sb, n); err != nil {
		return "", "", fmt.Errorf("notify: render customer email: %w", err)
	}
	return fmt.Sprintf("Order Confirmation - %s", n.OrderID), sb.String(), nil
}

// RenderAdminEmail собирает уведомление о новом заказе для магазина.
func RenderAdminEmail(n domain.OrderNotification) (subject, htmlBody string, err error) {
	var sb strings.Builder
	if err := adminTemplate.Execute(&sb, n); err != nil {
		return "", "", fmt.Errorf("notify: render admin email: %w", err)
	}
	return fmt.Sprintf("New Order Notification - %s", n.OrderID), sb.String(), nil
}
