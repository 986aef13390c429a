package push

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"focus-reminders/internal/model"
)

// MessageSender is the part of *tgbotapi.BotAPI used for delivery.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers notifications as Telegram chat messages.
type TelegramSender struct {
	api MessageSender
}

func NewTelegramSender(api MessageSender) *TelegramSender {
	return &TelegramSender{api: api}
}

// NewTelegramBot authorizes against the Bot API.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

// DoneCallbackPrefix marks the callback data of the "done" button attached
// to task reminders.
const DoneCallbackPrefix = "done:"

type telegramTarget struct {
	ChatID int64 `json:"chat_id"`
}

func (s *TelegramSender) Send(ctx context.Context, sub model.PushSubscription, p Payload) error {
	var target telegramTarget
	if err := json.Unmarshal([]byte(sub.Payload), &target); err != nil {
		return fmt.Errorf("decode telegram subscription: %w", err)
	}
	if target.ChatID == 0 {
		return fmt.Errorf("telegram subscription has no chat_id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(target.ChatID, p.Title+"\n"+p.Body)
	if p.Data.TaskID != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", DoneCallbackPrefix+p.Data.TaskID),
		))
	}
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
