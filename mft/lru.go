package mft

import (
	"container/list"
	"sync"
)

// LRU is a small fixed size cache keyed by int64. Decoded entries and
// pages are keyed by their offset in the table so a plain map plus an
// eviction list is all that is needed.
type LRU struct {
	mu sync.Mutex

	size      int
	evictList *list.List
	items     map[int64]*list.Element

	hits   int64
	misses int64
}

type lruEntry struct {
	key   int64
	value interface{}
}

func NewLRU(size int) *LRU {
	if size <= 0 {
		size = 1
	}
	return &LRU{
		size:      size,
		evictList: list.New(),
		items:     make(map[int64]*list.Element),
	}
}

func (self *LRU) Get(key int64) (interface{}, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()

	elem, pres := self.items[key]
	if !pres {
		self.misses++
		return nil, false
	}

	self.hits++
	self.evictList.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, true
}

func (self *LRU) Add(key int64, value interface{}) {
	self.mu.Lock()
	defer self.mu.Unlock()

	elem, pres := self.items[key]
	if pres {
		self.evictList.MoveToFront(elem)
		elem.Value.(*lruEntry).value = value
		return
	}

	self.items[key] = self.evictList.PushFront(&lruEntry{key, value})

	if self.evictList.Len() > self.size {
		oldest := self.evictList.Back()
		if oldest != nil {
			self.evictList.Remove(oldest)
			delete(self.items, oldest.Value.(*lruEntry).key)
		}
	}
}

func (self *LRU) Len() int {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.evictList.Len()
}

func (self *LRU) Purge() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.evictList.Init()
	self.items = make(map[int64]*list.Element)
}

func (self *LRU) HitsMisses() (int64, int64) {
	self.mu.Lock()
	defer self.mu.Unlock()

	return self.hits, self.misses
}
