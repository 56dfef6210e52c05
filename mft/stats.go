package mft

import (
	"encoding/json"
	"sync"
)

var (
	STATS = Stats{}
)

type Stats struct {
	mu sync.Mutex

	MFT_ENTRY          int
	EMPTY_ENTRY        int
	ATTRIBUTE          int
	ATTRIBUTE_LIST     int
	RESOLVED_FRAGMENTS int
	FIXUP_ERRORS       int
	RUNLIST_ERRORS     int
	ENTRY_CACHE_HITS   int
	ENTRY_CACHE_MISSES int
}

func (self *Stats) DebugString() string {
	self.mu.Lock()
	defer self.mu.Unlock()

	serialized, _ := json.MarshalIndent(self, " ", " ")
	return string(serialized)
}

func (self *Stats) Inc_MFT_ENTRY() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.MFT_ENTRY++
}

func (self *Stats) Inc_EMPTY_ENTRY() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.EMPTY_ENTRY++
}

func (self *Stats) Inc_ATTRIBUTE() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.ATTRIBUTE++
}

func (self *Stats) Inc_ATTRIBUTE_LIST() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.ATTRIBUTE_LIST++
}

func (self *Stats) Inc_RESOLVED_FRAGMENTS() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.RESOLVED_FRAGMENTS++
}

func (self *Stats) Inc_FIXUP_ERRORS() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.FIXUP_ERRORS++
}

func (self *Stats) Inc_RUNLIST_ERRORS() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.RUNLIST_ERRORS++
}

func (self *Stats) Inc_ENTRY_CACHE_HITS() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.ENTRY_CACHE_HITS++
}

func (self *Stats) Inc_ENTRY_CACHE_MISSES() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.ENTRY_CACHE_MISSES++
}
