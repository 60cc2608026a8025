package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"moviecode-bot/internal/locales"
	"moviecode-bot/internal/reveal"
	telegoapi "moviecode-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// HandleCallbackQuery handles the reveal flow's inline-button callbacks.
// Returns true if the callback was processed by this handler, false otherwise.
func (h *MessageHandler) HandleCallbackQuery(ctx context.Context, bot telegoapi.BotAPI, query telego.CallbackQuery) (processed bool, err error) {
	if !strings.HasPrefix(query.Data, callbackPrefix+":") {
		return false, nil
	}

	userID := query.From.ID
	localizer := h.getLocalizer(&query.From)
	logPrefix := fmt.Sprintf("[Callback User:%d QueryID:%s]", userID, query.ID)

	parts := strings.Split(query.Data, ":")
	if len(parts) != 3 {
		log.Printf("%s Invalid data format: %s", logPrefix, query.Data)
		errorMsg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
		_ = h.answerCallbackQuery(ctx, bot, query.ID, errorMsg, true)
		return true, fmt.Errorf("invalid callback data format")
	}
	action := parts[1]
	code := parts[2]

	msg, ok := query.Message.(*telego.Message)
	if !ok || msg == nil {
		// Message too old for Telegram to reference; nothing to act on.
		log.Printf("%s Callback message is inaccessible", logPrefix)
		notHandled := locales.GetMessage(localizer, "MsgCallbackNotHandled", nil, nil)
		_ = h.answerCallbackQuery(ctx, bot, query.ID, notHandled, true)
		return true, nil
	}
	chatID := msg.Chat.ID

	switch action {
	case callbackActionWatch:
		return true, h.handleWatchCallback(ctx, bot, query, chatID, msg.MessageID, code)
	case callbackActionRecheck:
		return true, h.handleRecheckCallback(ctx, bot, query, chatID, code)
	default:
		log.Printf("%s Unknown action: %s", logPrefix, action)
		errorMsg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
		_ = h.answerCallbackQuery(ctx, bot, query.ID, errorMsg, true)
		return true, fmt.Errorf("unknown reveal action: %s", action)
	}
}

// handleWatchCallback drives the ConfirmWatch transition. The callback
// message ID identifies the logical confirmation, so a retried delivery of
// the same button press cannot double-count the view.
func (h *MessageHandler) handleWatchCallback(ctx context.Context, bot telegoapi.BotAPI, query telego.CallbackQuery, chatID int64, messageID int, code string) error {
	userID := query.From.ID
	localizer := h.getLocalizer(&query.From)

	resp, err := h.machine.ConfirmWatch(ctx, userID, code, strconv.Itoa(messageID))
	if err != nil {
		errorMsg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
		_ = h.answerCallbackQuery(ctx, bot, query.ID, errorMsg, true)
		return fmt.Errorf("confirm watch %q failed: %w", code, err)
	}

	switch resp.(type) {
	case reveal.UnlockedCard:
		_ = h.answerCallbackQuery(ctx, bot, query.ID, "", false)
		// Single-use affordance: drop the watch button from the locked card
		// so the same confirmation cannot fire again from the UI.
		if _, err := bot.EditMessageReplyMarkup(ctx, &telego.EditMessageReplyMarkupParams{
			ChatID:    tu.ID(chatID),
			MessageID: messageID,
		}); err != nil {
			log.Printf("[Callback User:%d] Failed to clear watch keyboard for message %d: %v", userID, messageID, err)
		}
		h.RecordUserActivity(ctx, &query.From, ActionUnlock, h.IsAdmin(userID), map[string]interface{}{
			"chat_id": chatID,
			"code":    code,
		})
	case reveal.GatePrompt:
		stillMissing := locales.GetMessage(localizer, "MsgGateStillMissing", nil, nil)
		_ = h.answerCallbackQuery(ctx, bot, query.ID, stillMissing, true)
	default:
		_ = h.answerCallbackQuery(ctx, bot, query.ID, "", false)
	}

	return h.renderResponse(ctx, bot, chatID, localizer, resp)
}

// handleRecheckCallback re-runs the gate after the user claims to have
// subscribed. Status is always re-verified, never cached.
func (h *MessageHandler) handleRecheckCallback(ctx context.Context, bot telegoapi.BotAPI, query telego.CallbackQuery, chatID int64, code string) error {
	userID := query.From.ID
	localizer := h.getLocalizer(&query.From)

	resp, err := h.machine.Recheck(ctx, userID, code)
	if err != nil {
		errorMsg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
		_ = h.answerCallbackQuery(ctx, bot, query.ID, errorMsg, true)
		return fmt.Errorf("recheck %q failed: %w", code, err)
	}

	h.RecordUserActivity(ctx, &query.From, ActionRecheck, h.IsAdmin(userID), map[string]interface{}{
		"chat_id": chatID,
		"code":    code,
	})

	if _, stillGated := resp.(reveal.GatePrompt); stillGated {
		// Keep the existing prompt; just tell the user the gate still fails.
		stillMissing := locales.GetMessage(localizer, "MsgGateStillMissing", nil, nil)
		return h.answerCallbackQuery(ctx, bot, query.ID, stillMissing, true)
	}

	_ = h.answerCallbackQuery(ctx, bot, query.ID, "", false)
	return h.renderResponse(ctx, bot, chatID, localizer, resp)
}

func (h *MessageHandler) answerCallbackQuery(ctx context.Context, bot telegoapi.BotAPI, queryID, text string, showAlert bool) error {
	err := bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       showAlert,
	})
	if err != nil {
		log.Printf("Error answering callback query %s: %v", queryID, err)
	}
	return err
}
