package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/horoscopebot/core/logger"
	"github.com/m3rciful/horoscopebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrInvalidRegistration rejects empty names, labels or handlers.
	ErrInvalidRegistration = errors.New("telegram: invalid registration")
	// ErrDuplicate rejects a second command, alias or button with one name.
	ErrDuplicate = errors.New("telegram: already registered")
)

// Registry maps slash commands and reply keyboard labels to handlers.
// It is filled during wiring and read concurrently afterwards.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]commands.Command
	// endpoints resolves every "/name" and "/alias" to its command key.
	endpoints map[string]string
	buttons   map[string]tele.HandlerFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		endpoints: make(map[string]string),
		buttons:   make(map[string]tele.HandlerFunc),
	}
}

func rejectRegistration(event, name string, err error) error {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event,
		slog.String("name", name),
		slog.String("reason", err.Error()),
	)
	return fmt.Errorf("%w: %q", err, name)
}

// RegisterCommand adds cmd under name, which must start with "/". A
// command needs a handler and a description for the menu.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "/") || len(name) < 2 || cmd.Handler == nil || cmd.Description == "" {
		return rejectRegistration("register.command.skip", name, ErrInvalidRegistration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	endpoints := cmd.Endpoints(name)
	for _, ep := range endpoints {
		if _, taken := r.endpoints[ep]; taken {
			return rejectRegistration("register.command.duplicate", ep, ErrDuplicate)
		}
	}
	r.commands[name] = cmd
	for _, ep := range endpoints {
		r.endpoints[ep] = name
	}
	return nil
}

// ListCommands returns the commands sorted by name. With visibleOnly,
// hidden and admin-only commands are left out.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if !visibleOnly || cmd.Visible() {
			list = append(list, tele.Command{Text: name, Description: cmd.Description})
		}
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves message text to a command key. Arguments after
// the first word and a "@botname" suffix are ignored, and the leading
// slash is optional.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	word, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	word, _, _ = strings.Cut(word, "\n")
	word, _, _ = strings.Cut(word, "@")
	if !strings.HasPrefix(word, "/") {
		word = "/" + word
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.endpoints[word]
	if !ok {
		return "", commands.Command{}, false
	}
	return key, r.commands[key], true
}

// Commands returns a copy of the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterButton maps an exact reply keyboard label to a handler.
func (r *Registry) RegisterButton(label string, handler tele.HandlerFunc) error {
	label = strings.TrimSpace(label)
	if label == "" || handler == nil {
		return rejectRegistration("register.button.skip", label, ErrInvalidRegistration)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.buttons[label]; taken {
		return rejectRegistration("register.button.duplicate", label, ErrDuplicate)
	}
	r.buttons[label] = handler
	return nil
}

// LookupButton matches text against button labels, ignoring surrounding
// whitespace but not case.
func (r *Registry) LookupButton(text string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.buttons[strings.TrimSpace(text)]
	return h, ok
}

// ListButtons returns the registered labels in order.
func (r *Registry) ListButtons() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	labels := make([]string, 0, len(r.buttons))
	for label := range r.buttons {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// CommandSetter is the part of *tele.Bot that publishes the command menu.
type CommandSetter interface {
	SetCommands(opts ...any) error
}

// InitBotCommands publishes the visible commands. A failure is logged and
// otherwise ignored: the bot works without a menu.
func InitBotCommands(bot CommandSetter, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.Any("err", err),
		)
	}
}
