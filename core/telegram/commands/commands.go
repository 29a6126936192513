// Package commands describes slash commands registered with the bot.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command handler with its menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases route to the same handler but are never listed in the menu.
	Aliases []string
}

// Visible reports whether the command belongs in Telegram's command menu.
func (c Command) Visible() bool {
	return !c.Hidden && !c.AdminOnly
}

// Endpoints returns name followed by the aliases, each with a leading slash.
// Empty aliases are skipped.
func (c Command) Endpoints(name string) []string {
	out := make([]string, 0, len(c.Aliases)+1)
	for _, n := range append([]string{name}, c.Aliases...) {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if !strings.HasPrefix(n, "/") {
			n = "/" + n
		}
		out = append(out, n)
	}
	return out
}
