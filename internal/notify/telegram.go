package notify

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender relays notifications to an operations chat. Secrets such
// as reset tokens are never relayed.
type TelegramSender struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] notification bot authorized on account %s", api.Self.UserName)
	return &TelegramSender{api: api, chatID: chatID}, nil
}

func (t *TelegramSender) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	_, err := t.api.Send(msg)
	return err
}

func (t *TelegramSender) SendWelcome(ctx context.Context, email, username string) error {
	return t.send(ctx, fmt.Sprintf("New account: %s <%s>", username, email))
}

func (t *TelegramSender) SendPasswordReset(ctx context.Context, email, username, token string) error {
	return t.send(ctx, fmt.Sprintf("Password reset requested for %s <%s>", username, email))
}

func (t *TelegramSender) SendTaskAssigned(ctx context.Context, email, username, taskTitle, groupName string) error {
	return t.send(ctx, TaskAssignedText(username, taskTitle, groupName))
}

func (t *TelegramSender) SendGroupInvitation(ctx context.Context, email, groupName, joinCode, inviterName string) error {
	return t.send(ctx, fmt.Sprintf("%s invited %s to %s", inviterName, email, groupName))
}
