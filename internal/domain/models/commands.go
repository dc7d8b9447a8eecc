package models

import "strings"

// CommandType enumerates the chat commands keepers can send.
type CommandType string

const (
	CommandColonies  CommandType = "colonies"
	CommandReminders CommandType = "reminders"
	CommandDone      CommandType = "done"
	CommandObserve   CommandType = "pop"
	CommandHelp      CommandType = "help"
	CommandUnknown   CommandType = "unknown"
)

// Command represents a parsed instruction extracted from a chat message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// Rest joins the arguments starting at index i, which is how colony names
// containing spaces are recovered.
func (c Command) Rest(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return strings.Join(c.Args[i:], " ")
}

// ParseCommand derives a Command instance from free-form text messages.
// Only the command word is lower-cased; arguments keep their casing because
// colony names are case sensitive.
func ParseCommand(message string) Command {
	trimmed := strings.TrimSpace(message)
	cmd := Command{Raw: message}

	tokens := strings.Fields(trimmed)
	if len(tokens) == 0 {
		cmd.Type = CommandUnknown
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandColonies, CommandReminders, CommandDone, CommandObserve, CommandHelp:
		cmd.Type = CommandType(head)
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
