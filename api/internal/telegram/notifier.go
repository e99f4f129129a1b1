package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"hospital-portal/api/internal/logger"
	"hospital-portal/api/internal/report"
)

// Notifier posts a short alert to the staff chat when a report has concerns.
type Notifier struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
	log    *logrus.Entry
}

func New(token string, chatID int64, log *logger.Logger) (*Notifier, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint, chatID, log)
}

// NewWithEndpoint is New against a custom Bot API endpoint
// ("https://host/bot%s/%s").
func NewWithEndpoint(token, endpoint string, chatID int64, log *logger.Logger) (*Notifier, error) {
	if strings.TrimSpace(token) == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram: token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	return &Notifier{Bot: bot, ChatID: chatID, log: log.WithComponent("telegram")}, nil
}

// NotifyConcerns sends nothing for reports without concerns.
func (n *Notifier) NotifyConcerns(ctx context.Context, env report.Envelope) error {
	if len(env.Data.Concerns) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.ChatID, formatAlert(env))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := n.Bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	n.log.WithField("report_id", env.ID).Info("concern alert sent")
	return nil
}

func formatAlert(env report.Envelope) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Lab report %s*\n", esc(env.ID))
	fmt.Fprintf(&b, "Type: %s\n", esc(env.Data.Type))
	b.WriteString("Concerns:\n")
	for _, c := range env.Data.Concerns {
		b.WriteString("• " + esc(c) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// esc escapes the legacy Markdown control characters.
func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}
