package stats

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore returns a Store that keeps records for the process lifetime.
// It is used when no database is configured.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryStore) Summary(_ context.Context, topN int) (Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum Summary
	chats := make(map[int64]struct{})
	bySign := make(map[string]int)
	for _, r := range m.records {
		sum.Total++
		chats[r.ChatID] = struct{}{}
		if r.Outcome == OutcomeOK {
			sum.OK++
			bySign[r.Sign]++
		} else {
			sum.Failed++
		}
	}
	sum.Chats = len(chats)
	sum.TopSigns = topSigns(bySign, topN)
	return sum, nil
}

func topSigns(bySign map[string]int, n int) []SignCount {
	if n <= 0 {
		return nil
	}
	out := make([]SignCount, 0, len(bySign))
	for s, c := range bySign {
		out = append(out, SignCount{Sign: s, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sign < out[j].Sign
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
