package mailer

import (
	"html/template"
	"strings"

	"github.com/TRY-X-CARE/Shaastrayog/internal/models"
)

// InvoiceData is everything the invoice template needs. Rendering is pure;
// callers pick the date string so output stays deterministic.
type InvoiceData struct {
	OrderID         string
	CustomerName    string
	Items           []models.CartItem
	Total           int64
	Date            string
	ShippingAddress string
	PaymentMethod   string
}

var invoiceTmpl = template.Must(template.New("invoice").Parse(`<div style="font-family: Arial, sans-serif; border:1px solid #eee; padding:20px;">
  <h2>Invoice</h2>
  <p><strong>Order ID:</strong> {{.OrderID}}</p>
  <p><strong>Date:</strong> {{.Date}}</p>
  <p><strong>Customer:</strong> {{.CustomerName}}</p>
  {{if .ShippingAddress}}<p><strong>Shipping Address:</strong> {{.ShippingAddress}}</p>{{end}}
  {{if .PaymentMethod}}<p><strong>Payment Method:</strong> {{.PaymentMethod}}</p>{{end}}
  <table style="width:100%; border-collapse: collapse; margin-top: 20px;">
    <thead>
      <tr>
        <th style="border-bottom:1px solid #ccc; text-align:left;">Item</th>
        <th style="border-bottom:1px solid #ccc; text-align:right;">Qty</th>
        <th style="border-bottom:1px solid #ccc; text-align:right;">Price</th>
      </tr>
    </thead>
    <tbody>
      {{range .Items}}<tr>
        <td>{{.Name}}</td>
        <td style="text-align:right;">{{.Quantity}}</td>
        <td style="text-align:right;">&#8377;{{.Price}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
  <h3 style="text-align:right; margin-top:20px;">Total: &#8377;{{.Total}}</h3>
</div>`))

// RenderInvoice produces the HTML invoice document for an order.
func RenderInvoice(data InvoiceData) (string, error) {
	var sb strings.Builder
	if err := invoiceTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
