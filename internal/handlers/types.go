package handlers

import (
	"context"
	"log"

	"moviecode-bot/internal/catalog"
	"moviecode-bot/internal/database"
	"moviecode-bot/internal/reveal"
	"moviecode-bot/internal/subscription"
	telegoapi "moviecode-bot/pkg/telegoapi"

	"github.com/mymmrac/telego"
)

// Action types for logging and user updates
const (
	ActionCommandStart   = "command_start"
	ActionCommandHelp    = "command_help"
	ActionCommandAdd     = "command_add"
	ActionCommandList    = "command_list"
	ActionCommandTop     = "command_top"
	ActionCommandVersion = "command_version"
	ActionCodeRequest    = "code_request"
	ActionUnlock         = "unlock"
	ActionRecheck        = "gate_recheck"
)

// Default and maximum row counts for /list and /top.
const (
	defaultListLimit = 10
	maxListLimit     = 50
)

// Command represents a bot command, mapping the command string to its description and handler function.
type Command struct {
	Command     string                                                      // The command string (e.g., "start").
	Description string                                                      // Locale key of the description shown in /help.
	AdminOnly   bool                                                        // Whether the command is hidden from and denied to non-admins.
	Handler     func(context.Context, telegoapi.BotAPI, telego.Message) error // The function to execute when the command is received.
}

// MessageHandler handles incoming Telegram messages and callbacks.
// It routes commands, treats plain text as code lookups, drives the reveal
// machine and renders its responses.
type MessageHandler struct {
	machine *reveal.Machine
	store   catalog.Store
	policy  subscription.AccessPolicy
	version string

	// commands holds the list of available bot commands.
	commands []Command

	actionLogger database.UserActionLogger // Interface for logging user actions.
	userRepo     database.UserRepository   // Interface for updating user information.
}

// NewMessageHandler creates and initializes a new MessageHandler instance.
// It sets up dependencies and defines the available bot commands.
func NewMessageHandler(
	machine *reveal.Machine,
	store catalog.Store,
	policy subscription.AccessPolicy,
	version string,
	actionLogger database.UserActionLogger,
	userRepo database.UserRepository,
) *MessageHandler {
	if machine == nil {
		log.Fatal("MessageHandler: reveal machine dependency is nil")
	}
	if store == nil {
		log.Fatal("MessageHandler: catalog store dependency is nil")
	}
	h := &MessageHandler{
		machine:      machine,
		store:        store,
		policy:       policy,
		version:      version,
		actionLogger: actionLogger,
		userRepo:     userRepo,
	}
	h.commands = []Command{
		{Command: "start", Description: "CmdStartDesc", Handler: h.HandleStart},
		{Command: "help", Description: "CmdHelpDesc", Handler: h.HandleHelp},
		{Command: "add", Description: "CmdAddDesc", AdminOnly: true, Handler: h.HandleAdd},
		{Command: "list", Description: "CmdListDesc", AdminOnly: true, Handler: h.HandleList},
		{Command: "top", Description: "CmdTopDesc", AdminOnly: true, Handler: h.HandleTop},
		{Command: "version", Description: "CmdVersionDesc", Handler: h.HandleVersion},
	}
	return h
}

// GetCommandHandler retrieves the handler function associated with a specific command string (e.g., "start").
// It returns nil if the command is not found.
func (h *MessageHandler) GetCommandHandler(command string) func(context.Context, telegoapi.BotAPI, telego.Message) error {
	for _, cmd := range h.commands {
		if cmd.Command == command {
			return cmd.Handler
		}
	}
	return nil
}

// IsAdmin reports whether userID belongs to the configured admin set.
func (h *MessageHandler) IsAdmin(userID int64) bool {
	return h.policy.IsAdmin(userID)
}
