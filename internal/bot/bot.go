package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-organizer/internal/service"
)

// sender is the part of the Telegram API the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier pushes the daily task digest to a Telegram chat.
type Notifier struct {
	api    sender
	chatID int64
	digest *service.DigestService
	now    func() time.Time
}

// New authorizes against the Bot API with token.
func New(token string, chatID int64, digest *service.DigestService) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return newNotifier(api, chatID, digest), nil
}

func newNotifier(api sender, chatID int64, digest *service.DigestService) *Notifier {
	return &Notifier{
		api:    api,
		chatID: chatID,
		digest: digest,
		now:    time.Now,
	}
}

// SendDigest builds today's summary and sends it to the configured chat.
func (n *Notifier) SendDigest(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text, err := n.digest.Summary(ctx, n.now())
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	if err := n.sendText(text); err != nil {
		return fmt.Errorf("send digest to %d: %w", n.chatID, err)
	}
	log.Printf("[info] digest sent to chat %d", n.chatID)
	return nil
}

func (n *Notifier) sendText(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := n.api.Send(msg)
	return err
}
