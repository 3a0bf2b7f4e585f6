package email

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// AlertSender delivers operational alerts, e.g. when a payment-gateway
// charge attempt fails and an operator should follow up.
type AlertSender interface {
	SendAlert(ctx context.Context, subject, body string) error
}

// SESAlerter implements AlertSender using AWS SES v2.
type SESAlerter struct {
	client    *sesv2.Client
	fromEmail string
	toEmail   string
}

// NewSESAlerter creates an alerter for Amazon SES. Credentials are loaded
// from the environment.
func NewSESAlerter(ctx context.Context, region, fromEmail, toEmail string) (*SESAlerter, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESAlerter{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		toEmail:   toEmail,
	}, nil
}

// SendAlert sends a plain-text alert to the operations address.
func (s *SESAlerter) SendAlert(ctx context.Context, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: &s.fromEmail,
		Destination: &types.Destination{
			ToAddresses: []string{s.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    &subject,
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    &body,
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		log.Printf("Failed to send ops alert via SES: %v", err)
		return err
	}
	return nil
}
