package state

import tele "gopkg.in/telebot.v4"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the chat.
	StateIdle State = "idle"
)

// Session stores the conversation step and the values collected so far.
type Session struct {
	State State
	Data  map[string]string
}

// Value returns a collected value by key.
func (s Session) Value(key string) string {
	if s.Data == nil {
		return ""
	}
	return s.Data[key]
}

// StepHandler processes a message for a chat whose session is in the
// registered state. The session is passed explicitly.
type StepHandler func(c tele.Context, sess Session) error

// Manager orchestrates chat sessions and FSM state transitions.
type Manager interface {
	// Get returns a copy of the chat session, or an idle session.
	Get(chatID int64) Session
	// Set replaces the chat session. Setting StateIdle clears it.
	Set(chatID int64, sess Session)
	// Clear removes the chat session.
	Clear(chatID int64)
	// InProgress reports whether the chat has a non-idle session.
	InProgress(chatID int64) bool

	// Handle registers the handler for a state.
	Handle(st State, h StepHandler)
	// Lock serializes work for one chat; the returned func unlocks.
	Lock(chatID int64) func()
	// ManagerHandler runs the handler registered for the chat's state.
	// Callers are expected to hold the chat lock.
	ManagerHandler(c tele.Context) error
	// Active returns the number of chats with a pending session.
	Active() int
}
