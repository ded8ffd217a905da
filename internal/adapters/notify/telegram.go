package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/brickwatch/brickwatch/internal/domain/alert"
	"github.com/brickwatch/brickwatch/internal/domain/shared"
)

// TelegramSender delivers alert and digest messages over the Telegram Bot
// API. Rendering here is deliberately plain; rich presentation lives
// outside the engine.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewTelegramSender creates the chat channel from a bot token.
func NewTelegramSender(token string, log zerolog.Logger) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, shared.NewProviderError(shared.ErrAuth, fmt.Errorf("telegram auth failed: %w", err))
	}
	return &TelegramSender{bot: bot, log: log}, nil
}

// Send delivers one alert payload. A recipient who blocked the bot is
// reported as (ChatBlocked, nil) so the worker detaches the handle instead
// of retrying.
func (s *TelegramSender) Send(ctx context.Context, chatID int64, p alert.Payload) (alert.ChatResult, error) {
	msg := tgbotapi.NewMessage(chatID, renderAlert(p))
	msg.DisableWebPagePreview = false

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.bot.Send(msg); err != nil {
		if isBlocked(err) {
			return alert.ChatBlocked, nil
		}
		return "", mapTelegramError(err)
	}
	return alert.ChatSent, nil
}

// SendDigest delivers the weekly summary message.
func (s *TelegramSender) SendDigest(ctx context.Context, chatID int64, d alert.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, renderDigest(d))
	if _, err := s.bot.Send(msg); err != nil {
		if isBlocked(err) {
			return shared.NewProviderError(shared.ErrPolicyReject, fmt.Errorf("recipient blocked the bot"))
		}
		return mapTelegramError(err)
	}
	return nil
}

func renderAlert(p alert.Payload) string {
	var b strings.Builder
	switch p.Type {
	case alert.TypePriceDrop:
		b.WriteString("Price drop: ")
	case alert.TypeBetterDeal:
		b.WriteString("Better deal: ")
	case alert.TypePreviousSold:
		b.WriteString("Previous deal sold, next best: ")
	case alert.TypeReminder:
		b.WriteString("Still available: ")
	default:
		b.WriteString("Deal found: ")
	}
	fmt.Fprintf(&b, "%s\n", p.ItemName)
	fmt.Fprintf(&b, "Total %.2f EUR (item %.2f + shipping %.2f + import %.2f)", p.Total, p.Price, p.Shipping, p.Import)
	if p.IsEstimate {
		b.WriteString(" ~estimated")
	}
	fmt.Fprintf(&b, "\nTarget %.2f EUR, saves %.2f (%.1f%%)\n", p.Target, p.SavingsAbs, p.SavingsPct)
	fmt.Fprintf(&b, "%s seller %s, ships from %s, condition %s\n", p.CurrencyOriginal, p.SellerName, p.ShipFromCountry, p.Condition)
	b.WriteString(p.ListingURL)
	return b.String()
}

func renderDigest(d alert.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly digest: %d active watches\n", d.WatchCount)
	if len(d.Best) == 0 {
		b.WriteString("No deals under target this week.")
		return b.String()
	}
	b.WriteString("Best deals of the week:\n")
	for _, a := range d.Best {
		fmt.Fprintf(&b, "- %s at %.2f EUR (target %.2f)\n", a.ItemRef, a.Total, a.Target)
	}
	return b.String()
}

// isBlocked detects the provider's "user blocked the bot" failure, which
// must never be retried.
func isBlocked(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		if tgErr.Code == 403 {
			return true
		}
	}
	return strings.Contains(err.Error(), "blocked by the user") ||
		strings.Contains(err.Error(), "user is deactivated")
}

func mapTelegramError(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		switch {
		case tgErr.Code == 429:
			return shared.NewProviderError(shared.ErrRateLimit, err)
		case tgErr.Code >= 500:
			return shared.NewProviderError(shared.ErrServer, err)
		case tgErr.Code == 401:
			return shared.NewProviderError(shared.ErrAuth, err)
		}
	}
	return shared.NewProviderError(shared.ErrNetwork, err)
}
