package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger is the process-local ledger used when no redis address is
// configured. Entries are lost on restart.
type MemoryLedger struct {
	mu       sync.RWMutex
	notified map[uuid.UUID]time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{notified: make(map[uuid.UUID]time.Time)}
}

func (l *MemoryLedger) LastNotified(_ context.Context, taskID uuid.UUID) (time.Time, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	at, ok := l.notified[taskID]
	return at, ok, nil
}

func (l *MemoryLedger) MarkNotified(_ context.Context, taskID uuid.UUID, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.notified[taskID]; ok && last.After(at) {
		return nil
	}
	l.notified[taskID] = at
	return nil
}
