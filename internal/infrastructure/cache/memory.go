package cache

import (
	"strings"
	"sync"
	"time"
)

type ttlItem struct {
	value     []byte
	expiresAt time.Time
}

// ttlMap is the process-local store behind the in-memory cache, idempotency
// store and locker. Expired items are invisible immediately and removed by
// the janitor.
type ttlMap struct {
	mu    sync.Mutex
	items map[string]ttlItem
	now   func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newTTLMap(sweepEvery time.Duration) *ttlMap {
	m := &ttlMap{
		items: make(map[string]ttlItem),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if sweepEvery > 0 {
		m.wg.Add(1)
		go m.janitor(sweepEvery)
	}
	return m
}

func (m *ttlMap) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok || !m.now().Before(it.expiresAt) {
		return nil, false
	}
	return it.value, true
}

func (m *ttlMap) set(key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	m.items[key] = ttlItem{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
}

// setNX stores value only when key is absent or expired
func (m *ttlMap) setNX(key string, value []byte, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if it, ok := m.items[key]; ok && now.Before(it.expiresAt) {
		return false
	}
	m.items[key] = ttlItem{value: value, expiresAt: now.Add(ttl)}
	return true
}

// deleteIf removes key when its live value equals want
func (m *ttlMap) deleteIf(key string, want []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok || string(it.value) != string(want) || !m.now().Before(it.expiresAt) {
		return false
	}
	delete(m.items, key)
	return true
}

func (m *ttlMap) deletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *ttlMap) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, it := range m.items {
		if !now.Before(it.expiresAt) {
			delete(m.items, k)
		}
	}
}

func (m *ttlMap) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *ttlMap) janitor(every time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *ttlMap) close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}
