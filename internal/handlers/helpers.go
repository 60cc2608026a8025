package handlers

import (
	"context"
	"log"

	"moviecode-bot/internal/locales"
	telegoapi "moviecode-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// sendSuccess sends a plain message to the user.
func (h *MessageHandler) sendSuccess(ctx context.Context, bot telegoapi.BotAPI, chatID int64, text string) error {
	_, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
		// Don't return error to user, just log it.
	}
	return nil
}

// sendError sends a generic error message to the user.
// Logs the original error.
func (h *MessageHandler) sendError(ctx context.Context, bot telegoapi.BotAPI, chatID int64, originalErr error) error {
	// Log the original error for debugging
	log.Printf("Error for user in chat %d: %v", chatID, originalErr)

	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
	errMsg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)

	_, sendErr := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), errMsg))
	if sendErr != nil {
		log.Printf("Error sending generic error message to chat %d: %v", chatID, sendErr)
	}

	// Return the original error to allow the main loop to handle it (e.g., Sentry logging)
	return originalErr
}

// getLocalizer determines the best localizer for a given user.
func (h *MessageHandler) getLocalizer(user *telego.User) *i18n.Localizer {
	lang := locales.GetDefaultLanguageTag().String()
	if user != nil && user.LanguageCode != "" {
		lang = user.LanguageCode
	}
	return locales.NewLocalizer(lang)
}

// RecordUserActivity combines updating user info and logging the action.
func (h *MessageHandler) RecordUserActivity(ctx context.Context, user *telego.User, action string, isAdmin bool, details map[string]interface{}) {
	if user == nil {
		log.Printf("Attempted to record activity for nil user, action: %s", action)
		return
	}

	if h.userRepo != nil {
		if err := h.userRepo.UpdateUser(ctx, user.ID, user.Username, user.FirstName, user.LastName, isAdmin, action); err != nil {
			log.Printf("Error updating user %d (%s) in DB during action %s: %v", user.ID, user.Username, action, err)
			// Continue to log the action even if DB update fails
		}
	}

	if h.actionLogger != nil {
		if err := h.actionLogger.LogUserAction(user.ID, action, details); err != nil {
			log.Printf("Error logging action %s for user %d (%s): %v", action, user.ID, user.Username, err)
		}
	}
}
