package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"moviecode-bot/internal/catalog"
	"moviecode-bot/internal/locales"
	telegoapi "moviecode-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// HandleStart handles the /start command.
// It sets up the bot commands, updates user info, logs the action, and sends a welcome message.
func (h *MessageHandler) HandleStart(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	if err := h.setupCommands(ctx, bot); err != nil {
		return h.sendError(ctx, bot, message.Chat.ID, fmt.Errorf("failed to set up commands: %w", err))
	}

	localizer := h.getLocalizer(message.From)
	isAdmin := h.IsAdmin(message.From.ID)

	h.RecordUserActivity(ctx, message.From, ActionCommandStart, isAdmin, map[string]interface{}{
		"chat_id": message.Chat.ID,
	})

	startMsg := locales.GetMessage(localizer, "MsgStart", nil, nil)
	return h.sendSuccess(ctx, bot, message.Chat.ID, startMsg)
}

// HandleHelp handles the /help command.
// It lists the commands available to the user, hiding admin commands from non-admins.
func (h *MessageHandler) HandleHelp(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)
	isAdmin := h.IsAdmin(message.From.ID)

	var helpText strings.Builder
	helpText.WriteString(locales.GetMessage(localizer, "MsgHelpHeader", nil, nil) + "\n")
	for _, cmd := range h.commands {
		if cmd.AdminOnly && !isAdmin {
			continue
		}
		localizedDesc := locales.GetMessage(localizer, cmd.Description, nil, nil)
		helpText.WriteString(fmt.Sprintf("/%s - %s\n", cmd.Command, localizedDesc))
	}
	footerKey := "MsgHelpFooterUser"
	if isAdmin {
		footerKey = "MsgHelpFooterAdmin"
	}
	helpText.WriteString(locales.GetMessage(localizer, footerKey, nil, nil))

	h.RecordUserActivity(ctx, message.From, ActionCommandHelp, isAdmin, map[string]interface{}{
		"chat_id":  message.Chat.ID,
		"is_admin": isAdmin,
	})

	return h.sendSuccess(ctx, bot, message.Chat.ID, helpText.String())
}

// HandleVersion handles the /version command.
func (h *MessageHandler) HandleVersion(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	versionText := locales.GetMessage(localizer, "MsgVersion", map[string]interface{}{
		"Version": h.version,
	}, nil)

	h.RecordUserActivity(ctx, message.From, ActionCommandVersion, h.IsAdmin(message.From.ID), map[string]interface{}{
		"chat_id": message.Chat.ID,
		"version": h.version,
	})

	return h.sendSuccess(ctx, bot, message.Chat.ID, versionText)
}

// HandleAdd handles the admin-only /add command:
//
//	/add <code> <title> | <url>
//
// Re-adding an existing code overwrites title and url but keeps the view
// counter.
func (h *MessageHandler) HandleAdd(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	userID := message.From.ID
	localizer := h.getLocalizer(message.From)

	if !h.IsAdmin(userID) {
		log.Printf("[Cmd:add User:%d] Non-admin user attempted to use /add.", userID)
		msg := locales.GetMessage(localizer, "MsgErrorRequiresAdmin", nil, nil)
		return h.sendSuccess(ctx, bot, message.Chat.ID, msg)
	}

	code, title, rawURL, ok := parseAddArgs(message.Text)
	if !ok {
		usage := locales.GetMessage(localizer, "MsgAddUsage", nil, nil)
		return h.sendSuccess(ctx, bot, message.Chat.ID, usage)
	}

	if err := h.store.Put(ctx, code, title, rawURL); err != nil {
		if catalog.IsValidationError(err) {
			key := "MsgAddInvalidURL"
			if errors.Is(err, catalog.ErrEmptyTitle) {
				key = "MsgAddEmptyTitle"
			}
			return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, key, nil, nil))
		}
		return h.sendError(ctx, bot, message.Chat.ID, fmt.Errorf("failed to store catalog entry %q: %w", code, err))
	}

	h.RecordUserActivity(ctx, message.From, ActionCommandAdd, true, map[string]interface{}{
		"chat_id": message.Chat.ID,
		"code":    code,
		"title":   title,
	})

	successMsg := locales.GetMessage(localizer, "MsgAddSuccess", map[string]interface{}{
		"Code":  code,
		"Title": title,
	}, nil)
	return h.sendSuccess(ctx, bot, message.Chat.ID, successMsg)
}

// HandleList handles the admin-only /list [n] command.
func (h *MessageHandler) HandleList(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	return h.handleCatalogReadout(ctx, bot, message, ActionCommandList, "MsgListHeader", h.store.List)
}

// HandleTop handles the admin-only /top [n] command.
func (h *MessageHandler) HandleTop(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	return h.handleCatalogReadout(ctx, bot, message, ActionCommandTop, "MsgTopHeader", h.store.Top)
}

func (h *MessageHandler) handleCatalogReadout(
	ctx context.Context,
	bot telegoapi.BotAPI,
	message telego.Message,
	action, headerKey string,
	read func(context.Context, int) ([]catalog.Entry, error),
) error {
	userID := message.From.ID
	localizer := h.getLocalizer(message.From)

	if !h.IsAdmin(userID) {
		log.Printf("[Cmd:%s User:%d] Non-admin user attempted a catalog readout.", action, userID)
		msg := locales.GetMessage(localizer, "MsgErrorRequiresAdmin", nil, nil)
		return h.sendSuccess(ctx, bot, message.Chat.ID, msg)
	}

	limit := parseLimitArg(message.Text)
	entries, err := read(ctx, limit)
	if err != nil {
		return h.sendError(ctx, bot, message.Chat.ID, fmt.Errorf("catalog readout failed: %w", err))
	}

	h.RecordUserActivity(ctx, message.From, action, true, map[string]interface{}{
		"chat_id": message.Chat.ID,
		"limit":   limit,
		"count":   len(entries),
	})

	if len(entries) == 0 {
		return h.sendSuccess(ctx, bot, message.Chat.ID, locales.GetMessage(localizer, "MsgListEmpty", nil, nil))
	}

	var sb strings.Builder
	sb.WriteString(locales.GetMessage(localizer, headerKey, map[string]interface{}{
		"Count": len(entries),
	}, nil))
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("\n<code>%s</code> — %s (👁 %d)", entry.Code, entry.Title, entry.Views))
	}

	msg := tu.Message(tu.ID(message.Chat.ID), sb.String()).WithParseMode(telego.ModeHTML)
	if _, err = bot.SendMessage(ctx, msg); err != nil {
		log.Printf("[Cmd:%s User:%d] Failed to send readout: %v", action, userID, err)
	}
	return nil
}

// parseAddArgs splits "/add <code> <title> | <url>" into its parts.
func parseAddArgs(text string) (code, title, rawURL string, ok bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "/add"))
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) != 2 {
		return "", "", "", false
	}
	code = strings.ToLower(strings.TrimSpace(fields[0]))

	titleAndURL := strings.SplitN(fields[1], "|", 2)
	if len(titleAndURL) != 2 {
		return "", "", "", false
	}
	title = strings.TrimSpace(titleAndURL[0])
	rawURL = strings.TrimSpace(titleAndURL[1])
	if code == "" || title == "" || rawURL == "" {
		return "", "", "", false
	}
	return code, title, rawURL, true
}

// parseLimitArg extracts the optional numeric argument of /list and /top.
func parseLimitArg(text string) int {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(fields[1])
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// setupCommands registers the bot's commands with Telegram.
func (h *MessageHandler) setupCommands(ctx context.Context, bot telegoapi.BotAPI) error {
	if len(h.commands) == 0 {
		log.Println("No commands defined in handler, skipping SetMyCommands.")
		return nil
	}

	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	commands := make([]telego.BotCommand, 0, len(h.commands))
	for _, cmd := range h.commands {
		localizedDesc := locales.GetMessage(localizer, cmd.Description, nil, nil)
		commands = append(commands, telego.BotCommand{
			Command:     cmd.Command,
			Description: localizedDesc,
		})
	}

	err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	log.Printf("Successfully set %d bot commands.", len(commands))
	return nil
}
