package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/beehiiv-forecast/internal/forecast"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func snapshot() *forecast.Snapshot {
	return &forecast.Snapshot{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Publication: forecast.Publication{Name: "Daily Brief"},
		Projections: forecast.Projection{Status: forecast.StatusOnTrack},
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Beehiiv Growth Forecast 2026-02-03: Daily Brief (ON TRACK)", Subject(snapshot()))
}

func TestMailer_Send(t *testing.T) {
	fake := &fakeSES{}
	m := NewMailerWithClient(fake, "reports@example.com", []string{"team@example.com"})

	require.NoError(t, m.Send(context.Background(), snapshot(), "REPORT BODY"))

	require.NotNil(t, fake.input)
	assert.Equal(t, "reports@example.com", aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"team@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "REPORT BODY", aws.ToString(fake.input.Content.Simple.Body.Text.Data))
	assert.Nil(t, fake.input.Content.Simple.Body.Html)
}

func TestMailer_NoRecipients(t *testing.T) {
	m := NewMailerWithClient(&fakeSES{}, "reports@example.com", nil)
	assert.ErrorIs(t, m.Send(context.Background(), snapshot(), "x"), ErrNoRecipients)
}

func TestMailer_SendError(t *testing.T) {
	m := NewMailerWithClient(&fakeSES{err: errors.New("throttled")}, "a@example.com", []string{"b@example.com"})
	err := m.Send(context.Background(), snapshot(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
