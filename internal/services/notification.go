package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"

	"github.com/luoarch/quantum-x-sub001/internal/models"
)

// NotificationService pushes actionable signal transitions to a telegram
// chat. A missing bot token disables it silently; HOLD is never notified.
type NotificationService struct {
	bot    *bot.Bot
	chatID int64
	logger *logrus.Logger
}

func NewNotificationService(botToken string, chatID int64, logger *logrus.Logger) *NotificationService {
	var telegramBot *bot.Bot
	if botToken != "" {
		var err error
		telegramBot, err = bot.New(botToken)
		if err != nil {
			logger.WithError(err).Warn("Telegram bot initialization failed, notifications disabled")
		}
	}
	return &NotificationService{bot: telegramBot, chatID: chatID, logger: logger}
}

// NotifySignal formats and sends one signal message.
func (ns *NotificationService) NotifySignal(ctx context.Context, sig models.IndicatorSignal) error {
	if ns.bot == nil || ns.chatID == 0 {
		return nil
	}
	_, err := ns.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: ns.chatID,
		Text:   formatSignalMessage(sig),
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

func formatSignalMessage(sig models.IndicatorSignal) string {
	var b strings.Builder
	emoji := "🟢"
	if sig.Action == models.ActionSell {
		emoji = "🔴"
	}
	fmt.Fprintf(&b, "%s CLI signal: %s\n", emoji, sig.Action)
	fmt.Fprintf(&b, "Period: %s\n", sig.Timestamp.Format("2006-01"))
	fmt.Fprintf(&b, "Strength: %d/5\n", sig.Strength)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", sig.Confidence*100)
	fmt.Fprintf(&b, "Risk: %s\n", sig.RiskBucket)
	fmt.Fprintf(&b, "Regime: %s", sig.Regime)
	return b.String()
}
