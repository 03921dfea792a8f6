package notifier

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Telegram delivers notifications over the Telegram Bot API. Owner ids double
// as private chat ids.
type Telegram struct {
	api *tgbotapi.BotAPI
	log *logrus.Logger
}

// NewTelegram initializes a Telegram notifier around an authenticated bot.
func NewTelegram(api *tgbotapi.BotAPI, log *logrus.Logger) *Telegram {
	return &Telegram{api: api, log: log}
}

// Send delivers text to the owner's private chat.
func (t *Telegram) Send(ownerID int64, text string) error {
	if _, err := t.api.Send(tgbotapi.NewMessage(ownerID, text)); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", ownerID, err)
	}
	t.log.Debugf("Notification sent to owner %d", ownerID)
	return nil
}
