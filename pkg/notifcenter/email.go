package notifcenter

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/mrz1836/postmark"
)

// EmailEscalator delivers urgent notifications over email as a secondary
// channel. Escalation is best-effort; the Center logs failures and moves on.
type EmailEscalator interface {
	Escalate(ctx context.Context, email string, n Notification) error
}

// EmailResolver maps a user ID to the address escalations are sent to.
// Returning an empty address skips escalation for that user.
type EmailResolver func(ctx context.Context, userID string) (string, error)

// PostmarkEscalatorConfig holds Postmark credentials and sender identity for
// the email escalation channel.
type PostmarkEscalatorConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"POSTMARK_SENDER_EMAIL,required"`
	EmailTag     string `env:"POSTMARK_EMAIL_TAG" envDefault:"urgent-notification"`
}

// PostmarkEscalator sends urgent notifications through the Postmark API.
type PostmarkEscalator struct {
	client *postmark.Client
	cfg    PostmarkEscalatorConfig
}

// NewPostmarkEscalator creates an escalator from Postmark credentials.
func NewPostmarkEscalator(cfg PostmarkEscalatorConfig) (*PostmarkEscalator, error) {
	if cfg.ServerToken == "" {
		return nil, errors.New("postmark server token is required")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("postmark sender email is required")
	}
	return &PostmarkEscalator{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		cfg:    cfg,
	}, nil
}

func (e *PostmarkEscalator) Escalate(ctx context.Context, email string, n Notification) error {
	body := fmt.Sprintf(
		"<h2>%s</h2><p>%s</p>",
		html.EscapeString(n.Title),
		html.EscapeString(n.Message),
	)

	resp, err := e.client.SendEmail(ctx, postmark.Email{
		From:       e.cfg.SenderEmail,
		To:         email,
		Subject:    n.Title,
		Tag:        e.cfg.EmailTag,
		HTMLBody:   body,
		TrackOpens: true,
	})
	if err != nil {
		return errors.Join(ErrEscalationFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrEscalationFailed,
			fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

var _ EmailEscalator = (*PostmarkEscalator)(nil)
