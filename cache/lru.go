package cache

import (
	"container/list"
	"sync"

	"github.com/timewinder-dev/kclvm/vm"
)

// LRUCache is a Store wrapper that keeps recently used encoded programs
// close at hand, evicting the least recently used entry when full.
type LRUCache struct {
	underlying Store
	mu         sync.Mutex
	cache      map[Hash]*list.Element
	evictList  *list.List
	maxSize    int
	hits       int
	misses     int
}

type cacheEntry struct {
	hash  Hash
	value []byte
}

// NewLRUCache creates a new LRU wrapper around underlying.
// maxSize is the maximum number of entries to cache (0 or negative means the default).
func NewLRUCache(underlying Store, maxSize int) *LRUCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &LRUCache{
		underlying: underlying,
		cache:      make(map[Hash]*list.Element),
		evictList:  list.New(),
		maxSize:    maxSize,
	}
}

// Put stores the program in the underlying store and drops any stale
// cached copy.
func (l *LRUCache) Put(h Hash, p *vm.Program) error {
	if err := l.underlying.Put(h, p); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if elem, ok := l.cache[h]; ok {
		l.evictList.Remove(elem)
		delete(l.cache, h)
	}
	return nil
}

func (l *LRUCache) Has(h Hash) bool {
	l.mu.Lock()
	_, ok := l.cache[h]
	l.mu.Unlock()
	return ok || l.underlying.Has(h)
}

func (l *LRUCache) Get(h Hash) (*vm.Program, bool, error) {
	return get(l, h)
}

// getValue is where caching happens.
func (l *LRUCache) getValue(h Hash) (bool, []byte, error) {
	l.mu.Lock()
	if elem, ok := l.cache[h]; ok {
		l.evictList.MoveToFront(elem)
		l.hits++
		entry := elem.Value.(*cacheEntry)
		l.mu.Unlock()
		return true, entry.value, nil
	}
	l.misses++
	l.mu.Unlock()

	underlying, ok := l.underlying.(directStore)
	if !ok {
		p, has, err := l.underlying.Get(h)
		if err != nil || !has {
			return false, nil, err
		}
		data, err := vm.MarshalProgram(p)
		if err != nil {
			return false, nil, err
		}
		l.addToCache(h, data)
		return true, data, nil
	}

	has, data, err := underlying.getValue(h)
	if err != nil {
		return false, nil, err
	}
	if !has {
		return false, nil, nil
	}
	l.addToCache(h, data)
	return true, data, nil
}

// addToCache adds an entry to the cache and evicts the oldest if necessary.
func (l *LRUCache) addToCache(hash Hash, value []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if elem, ok := l.cache[hash]; ok {
		l.evictList.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	entry := &cacheEntry{
		hash:  hash,
		value: value,
	}
	elem := l.evictList.PushFront(entry)
	l.cache[hash] = elem

	if l.evictList.Len() > l.maxSize {
		l.evictOldest()
	}
}

func (l *LRUCache) evictOldest() {
	elem := l.evictList.Back()
	if elem != nil {
		l.evictList.Remove(elem)
		entry := elem.Value.(*cacheEntry)
		delete(l.cache, entry.hash)
	}
}

// CacheStats returns cache statistics for monitoring
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    int
	Misses  int
}

func (l *LRUCache) Stats() CacheStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return CacheStats{
		Size:    len(l.cache),
		MaxSize: l.maxSize,
		Hits:    l.hits,
		Misses:  l.misses,
	}
}
