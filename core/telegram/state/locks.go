package state

import "sync"

// chatLocks hands out one mutex per chat and forgets it once nobody holds
// or waits for it, so idle chats cost nothing.
type chatLocks struct {
	mu   sync.Mutex
	byID map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (l *chatLocks) acquire(chatID int64) func() {
	l.mu.Lock()
	if l.byID == nil {
		l.byID = make(map[int64]*refMutex)
	}
	m, ok := l.byID[chatID]
	if !ok {
		m = &refMutex{}
		l.byID[chatID] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.Unlock()
			l.mu.Lock()
			if m.refs--; m.refs == 0 {
				delete(l.byID, chatID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *chatLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}
