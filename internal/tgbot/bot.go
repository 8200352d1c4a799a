package tgbot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/bigredeye/deposit/internal/config"
	"github.com/bigredeye/deposit/internal/deposit"
	lf "github.com/bigredeye/deposit/internal/logfield"
	"github.com/bigredeye/deposit/internal/models"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type deposits interface {
	FindDeposit(ctx context.Context, userID string, forUpdate bool) (*models.Deposit, error)
	ListDeposits(ctx context.Context) ([]models.Deposit, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	send   sender
	log    *zap.Logger
	db     deposits
	chatID int64
}

func NewBot(conf *config.Config, log *zap.Logger, db deposits) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(conf.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:    api,
		send:   api,
		log:    log.With(lf.Module("tgbot")),
		db:     db,
		chatID: conf.Telegram.ChatID,
	}, nil
}

func (b *Bot) Run(ctx context.Context) {
	b.log.Info("Authorized on account", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			if err := b.handleUpdate(ctx, update); err != nil {
				b.log.Error("Failed to handle update", zap.Error(err), zap.Int("update_id", update.UpdateID))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil || !update.Message.IsCommand() {
		return nil
	}
	b.log.Info("Got command",
		zap.String("user", update.Message.From.UserName),
		zap.String("text", update.Message.Text),
	)

	var text string
	switch update.Message.Command() {
	case "deposit":
		text = b.describeDeposit(ctx, update.Message.CommandArguments())
	case "deposits":
		text = b.listDeposits(ctx)
	default:
		return nil
	}

	msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
	msg.ReplyToMessageID = update.Message.MessageID

	_, err := b.send.Send(msg)
	return err
}

func (b *Bot) describeDeposit(ctx context.Context, userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "Usage: /deposit <user id>"
	}

	d, err := b.db.FindDeposit(ctx, userID, false)
	if err != nil {
		b.log.Error("Failed to find deposit", lf.UserID(userID), zap.Error(err))
		return "Failed to load deposit, try again later"
	}
	if d == nil {
		return fmt.Sprintf("No deposit found for %s", userID)
	}
	return fmt.Sprintf("%s: deposit %d, defend tokens %d", d.UserID, d.Amount, d.DefendCount)
}

func (b *Bot) listDeposits(ctx context.Context) string {
	deposits, err := b.db.ListDeposits(ctx)
	if err != nil {
		b.log.Error("Failed to list deposits", zap.Error(err))
		return "Failed to load deposits, try again later"
	}
	if len(deposits) == 0 {
		return "No deposits yet"
	}

	var sb strings.Builder
	for i, d := range deposits {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %d (%d)", d.UserID, d.Amount, d.DefendCount)
	}
	return sb.String()
}

func formatEvent(event deposit.Event) string {
	d := event.Deposit
	switch event.Kind {
	case deposit.EventDefendUsed:
		return fmt.Sprintf("%s used a defend token on %q. Deposit: %d, tokens left: %d", d.UserID, event.Assignment, d.Amount, d.DefendCount)
	case deposit.EventDefendAdded:
		return fmt.Sprintf("%s got a defend token. Tokens: %d", d.UserID, d.DefendCount)
	case deposit.EventDefendDeleted:
		return fmt.Sprintf("%s lost a defend token. Tokens: %d", d.UserID, d.DefendCount)
	default:
		return fmt.Sprintf("%s: %q updated. Deposit: %d", d.UserID, event.Assignment, d.Amount)
	}
}

// Notify posts the event into the configured chat. Failures are only logged.
func (b *Bot) Notify(ctx context.Context, event deposit.Event) {
	if b.chatID == 0 {
		return
	}
	_, err := b.send.Send(tgbotapi.NewMessage(b.chatID, formatEvent(event)))
	if err != nil {
		b.log.Warn("Failed to send notification",
			lf.ChatID(b.chatID),
			lf.UserID(event.Deposit.UserID),
			zap.Error(err),
		)
	}
}
