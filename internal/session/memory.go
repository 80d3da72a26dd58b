package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

const memorySweepInterval = time.Minute

// MemoryStore хранит сессии в памяти процесса. Подходит для разработки и тестов:
// данные не переживают перезапуск и не разделяются между экземплярами.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]memoryEntry
	now  func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore создаёт хранилище в памяти со временем жизни записей ttl.
// При ttl > 0 просроченные записи раз в минуту удаляются фоновой горутиной до вызова Close.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	m := &MemoryStore{
		ttl:  ttl,
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
	if ttl > 0 {
		m.stop = make(chan struct{})
		go m.sweepLoop(memorySweepInterval)
	}
	return m
}

func (m *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}

// Sweep удаляет все просроченные записи.
func (m *MemoryStore) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ttl <= 0 {
		return
	}
	now := m.now()
	for key, e := range m.data {
		if !now.Before(e.expiresAt) {
			delete(m.data, key)
		}
	}
}

func memoryKey(sid, namespace string) string {
	return sid + ":" + namespace
}

// Get возвращает значение или ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, sid, namespace string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getLocked(memoryKey(sid, namespace))
}

func (m *MemoryStore) getLocked(key string) ([]byte, error) {
	e, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	if m.ttl > 0 && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set сохраняет копию значения.
func (m *MemoryStore) Set(_ context.Context, sid, namespace string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[memoryKey(sid, namespace)] = memoryEntry{
		value:     v,
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

// Take атомарно читает и удаляет значение.
func (m *MemoryStore) Take(_ context.Context, sid, namespace string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(sid, namespace)
	v, err := m.getLocked(key)
	if err != nil {
		return nil, err
	}
	delete(m.data, key)
	return v, nil
}

// Delete удаляет значение.
func (m *MemoryStore) Delete(_ context.Context, sid, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, memoryKey(sid, namespace))
	return nil
}

// Close останавливает фоновую очистку.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		if m.stop != nil {
			close(m.stop)
		}
	})
	return nil
}
