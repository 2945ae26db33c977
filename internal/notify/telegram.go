package notify

import (
	"fmt"

	"gameshelf/internal/config"
	"gameshelf/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier pushes one-way rental notifications into the admin chat.
// Delivery is best effort; failures are logged and dropped.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.AdminChatID,
		logger: logger,
	}, nil
}

func (n *TelegramNotifier) NotifyRentalSubmitted(rental *models.Rental) {
	text := fmt.Sprintf("New rental request #%d\nGame: %s\nUser: %s\nDates: %s",
		rental.ID, rental.GameName, rental.UserEmail, rental.Range())
	n.send(text, rental.ID)
}

func (n *TelegramNotifier) NotifyRentalDecided(rental *models.Rental) {
	text := fmt.Sprintf("Rental #%d is now %s\nGame: %s\nUser: %s\nDates: %s",
		rental.ID, rental.Status, rental.GameName, rental.UserEmail, rental.Range())
	if rental.Status == models.StatusRejected && rental.RejectionReason != "" {
		text += "\nReason: " + rental.RejectionReason
	}
	n.send(text, rental.ID)
}

func (n *TelegramNotifier) send(text string, rentalID int64) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("rental_id", rentalID).Msg("telegram notify failed")
	}
}
