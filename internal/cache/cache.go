package cache

import (
	"sync"

	"github.com/skalibog/indcalc/internal/indicator"
)

// DefaultCapacity емкость кэша по умолчанию
const DefaultCapacity = 200

// Entry закэшированный результат и движок, который его посчитал
type Entry struct {
	Result indicator.Result
	Engine string
}

// Cache ограниченное хранилище результатов.
// При переполнении вытесняется самая старая по вставке запись, повторные чтения порядок не меняют.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[Key]Entry
	order    []Key
}

// New создает кэш; capacity <= 0 заменяется на DefaultCapacity
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[Key]Entry, capacity),
		order:    make([]Key, 0, capacity),
	}
}

// Get возвращает копию результата по ключу
func (c *Cache) Get(k Key) (Entry, bool) {
	c.mu.Lock()
	e, ok := c.entries[k]
	c.mu.Unlock()
	if !ok {
		return Entry{}, false
	}
	e.Result = e.Result.Clone()
	return e, true
}

// Put сохраняет результат, вытесняя самые старые записи
func (c *Cache) Put(k Key, e Entry) {
	e.Result = e.Result.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[k]; exists {
		c.entries[k] = e
		return
	}
	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[k] = e
	c.order = append(c.order, k)
}

// Len возвращает число записей
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity возвращает емкость кэша
func (c *Cache) Capacity() int { return c.capacity }

// Clear очищает кэш
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]Entry, c.capacity)
	c.order = make([]Key, 0, c.capacity)
}
