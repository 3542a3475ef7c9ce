package email

import (
	"context"
	"fmt"

	"plateful-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

// SESV2Sender sends transactional mail (activation links, order receipts)
// through AWS SES v2.
type SESV2Sender struct {
	client    *sesv2.Client
	templates *TemplateManager
	fromEmail string
	clientURL string
	logger    *logrus.Logger
}

// NewSESV2Sender creates a new sender for Amazon SES. Credentials are loaded
// from the environment.
func NewSESV2Sender(ctx context.Context, region, fromEmail, clientURL string, logger *logrus.Logger) (*SESV2Sender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	templates, err := NewTemplateManager()
	if err != nil {
		return nil, err
	}

	return &SESV2Sender{
		client:    sesv2.NewFromConfig(cfg),
		templates: templates,
		fromEmail: fromEmail,
		clientURL: clientURL,
		logger:    logger,
	}, nil
}

// SendActivationEmail mails the account-activation link.
func (s *SESV2Sender) SendActivationEmail(ctx context.Context, to, name, token string) error {
	link := fmt.Sprintf("%s/activate?token=%s", s.clientURL, token)
	html, err := s.templates.RenderActivation(ActivationData{Name: name, Link: link})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Hi %s, activate your Plateful account: %s", name, link)
	return s.send(ctx, to, "Activate your Plateful account", text, html)
}

// SendOrderReceipt mails the receipt for a captured payment.
func (s *SESV2Sender) SendOrderReceipt(ctx context.Context, to string, order *models.Order, payment *models.Payment) error {
	html, err := s.templates.RenderReceipt(ReceiptData{
		OrderID:       order.ID,
		Items:         order.Items,
		Subtotal:      order.Subtotal,
		TaxAmount:     order.TaxAmount,
		DeliveryFee:   order.DeliveryFee,
		Discount:      order.DiscountAmount,
		Total:         payment.Amount,
		Method:        string(payment.Method),
		TransactionID: payment.TransactionID,
		InvoiceRef:    payment.InvoiceRef.String,
	})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Order #%d: total %.2f paid by %s (ref %s)",
		order.ID, payment.Amount, payment.Method, payment.TransactionID)
	subject := fmt.Sprintf("Your Plateful receipt for order #%d", order.ID)
	return s.send(ctx, to, subject, text, html)
}

func (s *SESV2Sender) send(ctx context.Context, to, subject, plainTextContent, htmlContent string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: &s.fromEmail,
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    &subject,
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    &plainTextContent,
						Charset: aws.String("UTF-8"),
					},
					Html: &types.Content{
						Data:    &htmlContent,
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		s.logger.WithError(err).WithField("to", to).Error("Failed to send email via SES")
		return err
	}

	s.logger.WithField("to", to).Info("Email sent")
	return nil
}
