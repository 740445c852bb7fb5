package services

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Notifier delivers a fired reminder to its owner.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// LineNotifier pushes reminders as LINE messages to the owner's LINE user id.
type LineNotifier struct {
	bot *messaging_api.MessagingApiAPI
}

func NewLineNotifier(bot *messaging_api.MessagingApiAPI) *LineNotifier {
	return &LineNotifier{bot: bot}
}

func (n *LineNotifier) Notify(ctx context.Context, alert Alert) error {
	body := alert.Body
	if body == "" {
		body = "Time to complete your task!"
	}

	_, err := n.bot.PushMessage(
		&messaging_api.PushMessageRequest{
			To: alert.OwnerID,
			Messages: []messaging_api.MessageInterface{
				&messaging_api.TextMessage{
					Text: fmt.Sprintf("⏰ %s\n%s", alert.Title, body),
				},
			},
		},
		"",
	)
	if err != nil {
		return fmt.Errorf("failed to push reminder: %w", err)
	}

	return nil
}
