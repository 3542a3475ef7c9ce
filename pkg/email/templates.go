package email

import (
	"bytes"
	"html/template"

	"plateful-backend/internal/models"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	activationTmpl *template.Template
	receiptTmpl    *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	activationTmpl, err := template.New("activation").Parse(accountActivationTemplate)
	if err != nil {
		return nil, err
	}

	receiptTmpl, err := template.New("receipt").Parse(orderReceiptTemplate)
	if err != nil {
		return nil, err
	}

	return &TemplateManager{
		activationTmpl: activationTmpl,
		receiptTmpl:    receiptTmpl,
	}, nil
}

// ActivationData holds the dynamic data for the activation template.
type ActivationData struct {
	Name string
	Link string
}

// ReceiptData holds the dynamic data for the order receipt template.
type ReceiptData struct {
	OrderID       int
	Items         []models.OrderItem
	Subtotal      float64
	TaxAmount     float64
	DeliveryFee   float64
	Discount      float64
	Total         float64
	Method        string
	TransactionID string
	InvoiceRef    string
}

// RenderActivation executes the activation template with the provided data.
func (tm *TemplateManager) RenderActivation(data ActivationData) (string, error) {
	var body bytes.Buffer
	if err := tm.activationTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// RenderReceipt executes the order receipt template.
func (tm *TemplateManager) RenderReceipt(data ReceiptData) (string, error) {
	var body bytes.Buffer
	if err := tm.receiptTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// --- HTML Template Definitions ---

const accountActivationTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Activate Your Account</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Welcome to Plateful, {{.Name}}!</h2>
	<p>Thank you for signing up. Please click the link below to activate your account:</p>
	<p><a href="{{.Link}}">Activate Account</a></p>
	<p>If you did not sign up for this account, please ignore this email.</p>
</body>
</html>
`

const orderReceiptTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Order Receipt</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Thanks for your order #{{.OrderID}}!</h2>
	<table>
		{{range .Items}}
		<tr><td>{{.Name}} x {{.Quantity}}</td><td>{{printf "%.2f" .UnitPrice}}</td></tr>
		{{end}}
	</table>
	<p>Subtotal: {{printf "%.2f" .Subtotal}}</p>
	<p>Tax: {{printf "%.2f" .TaxAmount}}</p>
	<p>Delivery fee: {{printf "%.2f" .DeliveryFee}}</p>
	{{if gt .Discount 0.0}}<p>Discount: -{{printf "%.2f" .Discount}}</p>{{end}}
	<p><strong>Total paid: {{printf "%.2f" .Total}}</strong> ({{.Method}})</p>
	<p>Transaction: {{.TransactionID}}<br>Invoice: {{.InvoiceRef}}</p>
</body>
</html>
`
