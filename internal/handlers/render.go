package handlers

import (
	"context"
	"fmt"
	"strings"

	"moviecode-bot/internal/locales"
	"moviecode-bot/internal/reveal"
	telegoapi "moviecode-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// Callback data layout: "reveal:<action>:<code>".
const (
	callbackPrefix        = "reveal"
	callbackActionWatch   = "watch"
	callbackActionRecheck = "recheck"
)

func watchCallbackData(code string) string {
	return strings.Join([]string{callbackPrefix, callbackActionWatch, code}, ":")
}

func recheckCallbackData(code string) string {
	return strings.Join([]string{callbackPrefix, callbackActionRecheck, code}, ":")
}

// renderResponse turns a reveal response artifact into an outgoing message.
func (h *MessageHandler) renderResponse(ctx context.Context, bot telegoapi.BotAPI, chatID int64, localizer *i18n.Localizer, resp reveal.Response) error {
	switch r := resp.(type) {
	case reveal.NotFound:
		text := locales.GetMessage(localizer, "MsgCodeNotFound", map[string]interface{}{
			"Code": r.Code,
		}, nil)
		_, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
		return err

	case reveal.LockedCard:
		text := locales.GetMessage(localizer, "MsgLockedCard", map[string]interface{}{
			"Title": r.Title,
			"Views": r.Views,
		}, nil)
		btn := locales.GetMessage(localizer, "BtnWatch", nil, nil)
		msg := tu.Message(tu.ID(chatID), text).
			WithParseMode(telego.ModeHTML).
			WithReplyMarkup(tu.InlineKeyboard(
				tu.InlineKeyboardRow(
					tu.InlineKeyboardButton(btn).WithCallbackData(watchCallbackData(r.Code)),
				),
			))
		_, err := bot.SendMessage(ctx, msg)
		return err

	case reveal.UnlockedCard:
		text := locales.GetMessage(localizer, "MsgUnlockedCard", map[string]interface{}{
			"Title": r.Title,
			"URL":   r.URL,
			"Views": r.Views,
		}, nil)
		msg := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
		_, err := bot.SendMessage(ctx, msg)
		return err

	case reveal.GatePrompt:
		text := locales.GetMessage(localizer, "MsgGatePrompt", map[string]interface{}{
			"Channels": channelListing(r.MissingChannels),
		}, nil)
		msg := tu.Message(tu.ID(chatID), text).
			WithReplyMarkup(gateKeyboard(localizer, r))
		_, err := bot.SendMessage(ctx, msg)
		return err

	default:
		return fmt.Errorf("unknown reveal response type %T", resp)
	}
}

// channelListing renders the missing channels as one bulleted line each,
// in the configured order, for the gate prompt text. Every channel is
// named here even when no join button can be built for it.
func channelListing(channels []string) string {
	var sb strings.Builder
	for i, channel := range channels {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("• " + channel)
	}
	return sb.String()
}

// gateKeyboard builds one join button per missing channel, in the
// configured order, followed by a recheck button.
func gateKeyboard(localizer *i18n.Localizer, prompt reveal.GatePrompt) *telego.InlineKeyboardMarkup {
	rows := make([][]telego.InlineKeyboardButton, 0, len(prompt.MissingChannels)+1)
	for _, channel := range prompt.MissingChannels {
		link, ok := channelLink(channel)
		if !ok {
			continue
		}
		label := locales.GetMessage(localizer, "BtnJoinChannel", map[string]interface{}{
			"Channel": channel,
		}, nil)
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(label).WithURL(link),
		))
	}
	recheck := locales.GetMessage(localizer, "BtnRecheck", nil, nil)
	rows = append(rows, tu.InlineKeyboardRow(
		tu.InlineKeyboardButton(recheck).WithCallbackData(recheckCallbackData(prompt.PendingCode)),
	))
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// channelLink builds a t.me link for @username channels. Channels
// configured by numeric ID have no public link, so they get no join
// button; the prompt text still lists them.
func channelLink(channel string) (string, bool) {
	if strings.HasPrefix(channel, "@") {
		return "https://t.me/" + strings.TrimPrefix(channel, "@"), true
	}
	return "", false
}
