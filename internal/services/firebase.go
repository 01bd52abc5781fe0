package services

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/chachabrian/mooveit-ledger/internal/config"
	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/chachabrian/mooveit-ledger/pkg/utils"
	"google.golang.org/api/option"
)

// MessageSender is satisfied by *messaging.Client.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type TokenLookup interface {
	FCMToken(ctx context.Context, userID string) (string, error)
}

// Push sends lock and unlock notifications to the driver's device. Without
// a sender every Notify is a no-op.
type Push struct {
	sender MessageSender
	tokens TokenLookup
	log    *slog.Logger
}

// NewPush initializes the Firebase Admin SDK from cfg. Push stays disabled
// when no credentials file is configured.
func NewPush(ctx context.Context, cfg config.FirebaseConfig, tokens TokenLookup, log *slog.Logger) (*Push, error) {
	if cfg.CredentialsFile == "" {
		log.Warn("FIREBASE_CREDENTIALS_FILE not set, push notifications disabled")
		return &Push{tokens: tokens, log: log}, nil
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}
	log.Info("Firebase Cloud Messaging initialized")
	return NewPushWithSender(client, tokens, log), nil
}

func NewPushWithSender(sender MessageSender, tokens TokenLookup, log *slog.Logger) *Push {
	return &Push{sender: sender, tokens: tokens, log: log}
}

func (p *Push) Enabled() bool {
	return p.sender != nil
}

func (p *Push) Notify(ctx context.Context, event ledger.Event) error {
	if !p.Enabled() {
		return nil
	}
	if event.Type != ledger.EventAccountLocked && event.Type != ledger.EventAccountUnlocked {
		return nil
	}

	token, err := p.tokens.FCMToken(ctx, event.DriverID)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	id, err := p.sender.Send(ctx, lockMessage(event, token))
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	p.log.Info("push notification sent", "driver_id", event.DriverID, "type", string(event.Type), "message_id", id)
	return nil
}

func lockMessage(event ledger.Event, token string) *messaging.Message {
	pending := event.Finance.CommissionPending.StringFixed(2)

	title := "Account unlocked"
	body := "Your account is active again. You can accept new trips."
	if event.Type == ledger.EventAccountLocked {
		title = "Account locked"
		body = fmt.Sprintf("You owe %s in commission. Pay the outstanding balance to keep accepting trips.",
			utils.FormatAmount(event.Finance.CommissionPending, event.Finance.Currency))
	}

	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":              string(event.Type),
			"driverId":          event.DriverID,
			"commissionPending": pending,
			"debtLimit":         event.Finance.DebtLimit.StringFixed(2),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "mooveit_account",
				Sound:     "default",
			},
		},
	}
}
