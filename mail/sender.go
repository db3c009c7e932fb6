package mail

import (
	"context"
	"github.com/NITHINKR06/e-voting-backend/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Sender delivers a single mail message. Delivery is best effort: callers
// must not fail their own operation when Send returns an error.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SESSender struct {
	Client *sesv2.Client
	From   string
}

func (s *SESSender) Send(ctx context.Context, to, subject, body string) error {
	_, err := s.Client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.From),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		logging.Log.Errorf("MAIL: failed to send to %s: %v", to, err)
		return err
	}
	return nil
}

// LogSender writes the message to the service log instead of sending it.
// It is only wired up when no sender address is configured, so OTP codes
// stay reachable for an operator during local development.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, body string) error {
	logging.Log.Infof("MAIL (not configured, logging instead): to=%s subject=%q body=%q", to, subject, body)
	return nil
}
