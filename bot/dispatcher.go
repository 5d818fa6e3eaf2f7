package bot

import (
	"context"
	"strings"

	"trade-tracker/observability"
	"trade-tracker/services"
)

// chatScope says where a command may be used.
type chatScope int

const (
	scopeAny chatScope = iota
	scopeGroup
	scopePrivate
)

type reply struct {
	text           string
	disablePreview bool
}

type handlerFunc func(ctx context.Context, msg *services.Message, args []string) reply

type command struct {
	handler handlerFunc
	scope   chatScope
	// admin commands additionally require the configured admin sender
	admin bool
}

// parseCommand splits a message text into a command name and arguments.
// It accepts the /cmd@BotName form used in groups. ok is false when the
// text is not a command at all.
func parseCommand(text string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:], true
}

// dispatch routes one message to its handler and sends the reply. Unknown
// commands are ignored so the bot stays quiet in busy group chats.
func (b *Bot) dispatch(ctx context.Context, msg *services.Message) {
	name, args, ok := parseCommand(msg.Text)
	if !ok {
		return
	}
	cmd, ok := b.commands[name]
	if !ok {
		return
	}

	timer := observability.GetMetrics().NewTimer()
	r, status := b.runGuarded(ctx, cmd, name, msg, args)
	timer.ObserveCommand(name, status)

	if r.text == "" {
		return
	}
	if err := b.api.SendMessage(ctx, msg.Chat.ID, r.text, r.disablePreview); err != nil {
		observability.WithCommand(name).Warn("reply delivery failed", "error", err)
	}
}

func (b *Bot) runGuarded(ctx context.Context, cmd command, name string, msg *services.Message, args []string) (reply, string) {
	switch cmd.scope {
	case scopeGroup:
		if msg.Chat.IsPrivate() {
			return reply{text: msgGroupOnly}, "denied"
		}
	case scopePrivate:
		if !msg.Chat.IsPrivate() {
			return reply{text: msgPrivateOnly}, "denied"
		}
	}

	// Channel posts carry no sender; Telegram already restricts posting
	// in a channel to its admins, so only direct senders are checked.
	if cmd.admin && b.adminID != 0 && msg.From != nil && msg.From.ID != b.adminID {
		observability.WithCommand(name).Warn("command from non-admin sender", "user_id", msg.From.ID)
		return reply{text: msgAdminOnly}, "denied"
	}

	return cmd.handler(ctx, msg, args), "ok"
}
