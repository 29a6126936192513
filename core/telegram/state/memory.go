package state

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/m3rciful/horoscopebot/core/logger"
	tghelpers "github.com/m3rciful/horoscopebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// memoryManager keeps sessions in a map; they do not survive a restart.
type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	steps    map[State]StepHandler

	locks chatLocks
}

// NewMemoryManager returns an in-process Manager keyed by chat id.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]Session),
		steps:    make(map[State]StepHandler),
	}
}

func (m *memoryManager) Get(chatID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[chatID]; ok {
		return sess.clone()
	}
	return Session{State: StateIdle}
}

func (m *memoryManager) Set(chatID int64, sess Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess.idle() {
		delete(m.sessions, chatID)
		return
	}
	m.sessions[chatID] = sess.clone()
}

func (m *memoryManager) Clear(chatID int64) {
	m.Set(chatID, Session{})
}

func (m *memoryManager) InProgress(chatID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[chatID]
	return ok
}

func (m *memoryManager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *memoryManager) Handle(st State, h StepHandler) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[st] = h
}

func (m *memoryManager) Lock(chatID int64) func() {
	return m.locks.acquire(chatID)
}

// ManagerHandler dispatches to the step registered for the chat's state.
// A state with no step is ignored.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	m.mu.RLock()
	sess, pending := m.sessions[chat.ID]
	step := m.steps[sess.State]
	m.mu.RUnlock()
	if !pending {
		sess = Session{State: StateIdle}
		step = m.steps[StateIdle]
	}

	ctx := tghelpers.WithFlow(c, string(sess.State))
	logger.Debug(ctx, "tg", "fsm.manager", slog.String("status", "ok"))
	if step == nil {
		return nil
	}
	return step(c, sess.clone())
}

func (s Session) idle() bool {
	return s.State == "" || s.State == StateIdle
}

// clone copies Data so callers never share the stored map.
func (s Session) clone() Session {
	return Session{State: s.State, Data: maps.Clone(s.Data)}
}
