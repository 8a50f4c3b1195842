package chat

import "strings"

// Command is one parsed "!"-prefixed chat instruction.
type Command struct {
	Name string
	Args string
}

// ParseCommand extracts a bot command from a chat line. Returns false for
// ordinary chatter.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "!") {
		return Command{}, false
	}
	body := strings.TrimPrefix(text, "!")
	if body == "" || body[0] == ' ' {
		return Command{}, false
	}
	parts := strings.SplitN(body, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) == 2 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd, true
}
