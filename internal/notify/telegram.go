package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-safe-scraper/internal/config"
	"go-safe-scraper/internal/scraper"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sender is the part of tgbotapi.BotAPI used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts jobs and run reports to a single chat, paced to stay under
// the bot API flood limit.
type Telegram struct {
	api     Sender
	chatID  int64
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewTelegram connects to the bot API with cfg.Token.
func NewTelegram(cfg config.TelegramConfig, log *zap.Logger) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return NewTelegramWithSender(api, cfg.ChatID, cfg.PerSecond, log), nil
}

// NewTelegramWithSender wraps an existing sender. perSecond <= 0 disables pacing.
func NewTelegramWithSender(api Sender, chatID int64, perSecond float64, log *zap.Logger) *Telegram {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Telegram{
		api:     api,
		chatID:  chatID,
		limiter: rate.NewLimiter(limit, 1),
		log:     log.Named("telegram"),
	}
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

// EscapeMarkdown escapes text for MarkdownV2 messages.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// FormatJob renders a job as a MarkdownV2 message body.
func FormatJob(job scraper.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 *%s*\n", EscapeMarkdown(job.Title))
	fmt.Fprintf(&b, "🏢 %s\n", EscapeMarkdown(orNA(job.Company)))
	if job.Salary != "" {
		fmt.Fprintf(&b, "💰 %s\n", EscapeMarkdown(job.Salary))
	}
	fmt.Fprintf(&b, "📝 %s\n", EscapeMarkdown(orNA(job.Techstack)))
	fmt.Fprintf(&b, "📍 %s\n", EscapeMarkdown(orNA(job.Location)))
	if job.PostedDate != "" {
		fmt.Fprintf(&b, "📅 %s\n", EscapeMarkdown(job.PostedDate))
	}
	fmt.Fprintf(&b, "🤖 Match Score: %d/10\n", job.MatchScore)
	fmt.Fprintf(&b, "🔖 Source: %s\n", EscapeMarkdown(job.Source))
	return b.String()
}

func (t *Telegram) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// SendJob posts one job with a button linking to the listing.
func (t *Telegram) SendJob(ctx context.Context, job scraper.Job) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatJob(job))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if job.URL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", job.URL)),
		)
	}
	return t.send(ctx, msg)
}

// SendJobs posts jobs in order and returns the ones that were delivered.
// A cancelled context stops the loop; other failures are logged and skipped.
func (t *Telegram) SendJobs(ctx context.Context, jobs []scraper.Job) ([]scraper.Job, error) {
	sent := make([]scraper.Job, 0, len(jobs))
	for _, job := range jobs {
		if err := t.SendJob(ctx, job); err != nil {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			t.log.Warn("Failed to send job", zap.String("url", job.URL), zap.Error(err))
			continue
		}
		sent = append(sent, job)
	}
	return sent, nil
}

func (t *Telegram) SendStatus(ctx context.Context, message string) error {
	return t.send(ctx, tgbotapi.NewMessage(t.chatID, "ℹ️ "+message))
}

func (t *Telegram) SendError(ctx context.Context, err error) error {
	return t.send(ctx, tgbotapi.NewMessage(t.chatID, fmt.Sprintf("❌ Error: %v", err)))
}
