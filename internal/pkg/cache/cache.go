package cache

import (
	"strings"
	"sync"
	"time"
)

// TTLCache хранит значения в памяти процесса с ограниченным временем жизни.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time

	stop chan struct{}
	once sync.Once
	done sync.WaitGroup
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New создаёт кэш; при cleanupEvery > 0 просроченные записи удаляются в фоне до вызова Close.
func New[V any](ttl, cleanupEvery time.Duration) *TTLCache[V] {
	c := &TTLCache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupEvery > 0 {
		c.done.Add(1)
		go c.cleanup(cleanupEvery)
	}
	return c
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTLCache[V]) InvalidateByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// GetOrSet возвращает значение из кэша или вычисляет и сохраняет его. Ошибки не кэшируются.
func (c *TTLCache[V]) GetOrSet(key string, fn func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close останавливает фоновую очистку. Повторный вызов безопасен.
func (c *TTLCache[V]) Close() {
	c.once.Do(func() { close(c.stop) })
	c.done.Wait()
}

func (c *TTLCache[V]) cleanup(every time.Duration) {
	defer c.done.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *TTLCache[V]) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
