package ledger

import (
	"context"
	"sort"
	"sync"
)

// KeyedLock provides mutual exclusion per key. The returned func releases
// the lock and must be called exactly once.
type KeyedLock interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LockAll acquires every key in sorted order so that two callers sharing
// keys cannot deadlock. Duplicate keys are locked once.
func LockAll(ctx context.Context, l KeyedLock, keys ...string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for i, k := range sorted {
		if i > 0 && sorted[i-1] == k {
			continue
		}
		unlock, err := l.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

// NoopLock performs no locking.
type NoopLock struct{}

func (NoopLock) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// MemoryLock serializes holders of the same key within one process.
type MemoryLock struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLock returns an empty in-process keyed lock.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{slots: make(map[string]*lockSlot)}
}

func (m *MemoryLock) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, s, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.release(key, s, true) })
	}, nil
}

func (m *MemoryLock) release(key string, s *lockSlot, held bool) {
	if held {
		<-s.ch
	}
	m.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
	m.mu.Unlock()
}

// Held reports how many keys currently have holders or waiters.
func (m *MemoryLock) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
