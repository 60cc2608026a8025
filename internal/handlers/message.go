package handlers

import (
	"context"
	"fmt"
	"strings"

	telegoapi "moviecode-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// HandleCodeMessage treats a plain text message as a movie code request
// and renders the reveal machine's answer (locked card, gate prompt or
// not-found).
func (h *MessageHandler) HandleCodeMessage(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	userID := message.From.ID
	code := NormalizeCode(message.Text)
	if code == "" {
		return nil
	}
	localizer := h.getLocalizer(message.From)

	resp, err := h.machine.RequestCode(ctx, userID, code)
	if err != nil {
		return h.sendError(ctx, bot, message.Chat.ID, fmt.Errorf("code request %q failed: %w", code, err))
	}

	h.RecordUserActivity(ctx, message.From, ActionCodeRequest, h.IsAdmin(userID), map[string]interface{}{
		"chat_id": message.Chat.ID,
		"code":    code,
	})

	return h.renderResponse(ctx, bot, message.Chat.ID, localizer, resp)
}

// NormalizeCode canonicalizes user input into a catalog code.
func NormalizeCode(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
