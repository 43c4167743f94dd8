// Package notify e-mails the text report through AWS SES.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/beehiiv-forecast/internal/config"
	"github.com/ignite/beehiiv-forecast/internal/forecast"
	"github.com/ignite/beehiiv-forecast/internal/pkg/logger"
)

// ErrNoRecipients is returned when there is nobody to send the report to
var ErrNoRecipients = errors.New("no report recipients configured")

// SESAPI is the subset of the SES v2 client the mailer uses
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier delivers a finished report
type Notifier interface {
	Send(ctx context.Context, snap *forecast.Snapshot, report string) error
}

// Mailer sends the report as a plain-text e-mail
type Mailer struct {
	client SESAPI
	from   string
	to     []string
}

// NewMailer loads AWS credentials from the default chain and creates a mailer
func NewMailer(ctx context.Context, cfg config.NotifyConfig) (*Mailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewMailerWithClient(sesv2.NewFromConfig(awsCfg), cfg.From, cfg.To), nil
}

// NewMailerWithClient creates a mailer around an existing SES client
func NewMailerWithClient(client SESAPI, from string, to []string) *Mailer {
	return &Mailer{client: client, from: from, to: to}
}

// Subject builds the e-mail subject line for a snapshot
func Subject(snap *forecast.Snapshot) string {
	status := strings.ReplaceAll(string(snap.Projections.Status), "_", " ")
	return fmt.Sprintf("Beehiiv Growth Forecast %s: %s (%s)",
		snap.GeneratedAt.UTC().Format("2006-01-02"), snap.Publication.Name, status)
}

func (m *Mailer) Send(ctx context.Context, snap *forecast.Snapshot, report string) error {
	if len(m.to) == 0 {
		return ErrNoRecipients
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: m.to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(Subject(snap)), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(report), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("sending report e-mail: %w", err)
	}

	logger.Info("report e-mailed",
		"message_id", aws.ToString(result.MessageId),
		"recipients", len(m.to),
		"run_id", snap.RunID,
	)
	return nil
}
