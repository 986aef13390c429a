// Package bot links Telegram chats to reminder owners and handles the
// "done" button attached to delivered reminders.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"focus-reminders/internal/model"
	"focus-reminders/internal/push"
	"focus-reminders/internal/repository"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, ownerID, kind string, payload []byte) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context, ownerID string) error
	OwnerOfChat(ctx context.Context, chatID int64) (string, error)
}

type TaskCompleter interface {
	CompleteTask(ctx context.Context, ownerID, taskID string) (*model.Task, error)
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api    API
	secret string
	users  UserFinder
	subs   Subscriber
	tasks  TaskCompleter
	log    zerolog.Logger
}

// New builds a bot. secret signs the link tokens handed to /start.
func New(api API, secret string, users UserFinder, subs Subscriber, tasks TaskCompleter, log zerolog.Logger) *Bot {
	return &Bot{
		api:    api,
		secret: secret,
		users:  users,
		subs:   subs,
		tasks:  tasks,
		log:    log.With().Str("component", "telegram").Logger(),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if err := b.handleUpdate(ctx, update); err != nil {
			b.log.Error().Err(err).Int("update_id", update.UpdateID).Msg("handle update")
		}
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return nil
		}
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, helpText)
	}
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	default:
		return b.sendText(msg.Chat.ID, "Unsupported command. See /help.")
	}
}

const helpText = "⏰ I deliver your focus reminders.\n" +
	"• Open your personal link to send reminders to this chat\n" +
	"• /stop: stop sending reminders here\n" +
	"• Tap ✅ Done on a reminder to mark the task completed for today"

// handleStart replaces the owner's subscription with this chat. The argument
// is a token from LinkToken.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	token := strings.TrimSpace(msg.CommandArguments())
	if token == "" {
		return b.sendText(msg.Chat.ID, helpText)
	}
	ownerID, ok := ParseLinkToken(b.secret, token)
	if !ok {
		b.log.Warn().Int64("chat_id", msg.Chat.ID).Msg("rejected link token")
		return b.sendText(msg.Chat.ID, "This link is invalid.")
	}

	if _, err := b.users.FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "Unknown account id.")
		}
		return err
	}

	// One owner per chat; relinking moves the chat.
	prev, err := b.subs.OwnerOfChat(ctx, msg.Chat.ID)
	switch {
	case err == nil && prev != ownerID:
		if err := b.subs.Unsubscribe(ctx, prev); err != nil {
			return err
		}
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return err
	}

	payload := model.TelegramPayload(msg.Chat.ID)
	if _, err := b.subs.Subscribe(ctx, ownerID, model.KindTelegram, []byte(payload)); err != nil {
		return err
	}
	b.log.Info().Str("owner_id", ownerID).Int64("chat_id", msg.Chat.ID).Msg("chat linked")
	return b.sendText(msg.Chat.ID, "👋 Linked! Reminders will arrive in this chat.")
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	ownerID, err := b.subs.OwnerOfChat(ctx, msg.Chat.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "This chat is not linked.")
		}
		return err
	}
	if err := b.subs.Unsubscribe(ctx, ownerID); err != nil {
		return err
	}
	b.log.Info().Str("owner_id", ownerID).Int64("chat_id", msg.Chat.ID).Msg("chat unlinked")
	return b.sendText(msg.Chat.ID, "Reminders stopped. Open your link again to resume.")
}

// handleCallback completes a task for the owner linked to the chat the
// button was pressed in.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	taskID, ok := strings.CutPrefix(cb.Data, push.DoneCallbackPrefix)
	if !ok || taskID == "" {
		return b.answer(cb.ID, "")
	}

	ownerID, err := b.subs.OwnerOfChat(ctx, callbackChat(cb))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b.answer(cb.ID, "This chat is not linked.")
		}
		_ = b.answer(cb.ID, "Something went wrong, try again later.")
		return err
	}

	task, err := b.tasks.CompleteTask(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b.answer(cb.ID, "Task not found or already deleted.")
		}
		_ = b.answer(cb.ID, "Something went wrong, try again later.")
		return err
	}
	b.log.Info().Str("owner_id", ownerID).Str("task_id", task.ID).Msg("task completed from reminder")
	return b.answer(cb.ID, fmt.Sprintf("✅ «%s» done for today", task.Title))
}

func callbackChat(cb *tgbotapi.CallbackQuery) int64 {
	if cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}
	if cb.From != nil {
		return cb.From.ID
	}
	return 0
}

func (b *Bot) answer(callbackID, text string) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("callback ack: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
