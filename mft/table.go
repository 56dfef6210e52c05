package mft

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/jldantas/go-mft/logger"
	"go.uber.org/zap"
)

// EntryResult is one item of an Entries() stream. A corrupt record is
// reported with Err set so a scan never silently drops a slot.
type EntryResult struct {
	Index int64
	Entry *MFTEntry
	Err   error
}

// MFTTable decodes records out of a raw $MFT file or image. It keeps
// a small LRU of decoded entries so attribute list resolution does
// not decode the same extension record over and over.
type MFTTable struct {
	reader  io.ReaderAt
	size    int64
	options Options

	cache *LRU

	mu sync.Mutex

	// Filled by the stub scan: how extension records relate to their
	// base records.
	scanned      bool
	extension_of map[int64]int64
	extensions   map[int64][]int64
}

// NewMFTTable builds a table over a raw reader. size is the total
// byte length of the table. An options.EntrySize of zero triggers
// autodetection from the data itself.
func NewMFTTable(reader io.ReaderAt, size int64, options Options) (
	*MFTTable, error) {

	if options.SectorSize <= 0 {
		options.SectorSize = DefaultSectorSize
	}
	if options.MaxCachedEntries <= 0 {
		options.MaxCachedEntries = 512
	}

	if options.EntrySize <= 0 {
		detected, err := detectEntrySize(reader)
		if err != nil {
			return nil, err
		}
		options.EntrySize = detected
		logger.Logger.Debug("detected entry size",
			zap.Int64("entry_size", detected))
	}

	return &MFTTable{
		reader:  reader,
		size:    size,
		options: options,
		cache:   NewLRU(options.MaxCachedEntries),
	}, nil
}

var entry_size_candidates = []int64{1024, 4096, 512, 2048, 256, 8192}

// detectEntrySize probes the usual record sizes by checking that both
// the first and the second slot start with a record signature at that
// stride.
func detectEntrySize(reader io.ReaderAt) (int64, error) {
	buffer := make([]byte, 2*MAX_MFT_ENTRY_SIZE)
	n, err := reader.ReadAt(buffer, 0)
	if err != nil && err != io.EOF {
		return 0, err
	}
	buffer = buffer[:n]

	if len(buffer) < 4 || !hasRecordSignature(buffer) {
		return 0, SignatureError
	}

	for _, candidate := range entry_size_candidates {
		if int(candidate)+4 > len(buffer) {
			continue
		}
		if hasRecordSignature(buffer[candidate:]) {
			return candidate, nil
		}
	}

	// Only one record available. Trust its allocated size field.
	if len(buffer) >= 32 {
		alloc := int64(binary.LittleEndian.Uint32(buffer[28:32]))
		for _, candidate := range entry_size_candidates {
			if alloc == candidate {
				return candidate, nil
			}
		}
	}

	return 0, fmt.Errorf("cannot detect entry size: %w", InvalidHeaderError)
}

func hasRecordSignature(buffer []byte) bool {
	if len(buffer) < 4 {
		return false
	}
	sig := buffer[:4]
	return string(sig) == "FILE" || string(sig) == "BAAD"
}

// Count is the number of record slots in the table.
func (self *MFTTable) Count() int64 {
	return self.size / self.options.EntrySize
}

func (self *MFTTable) EntrySize() int64 {
	return self.options.EntrySize
}

func (self *MFTTable) readRecord(index int64) ([]byte, error) {
	if index < 0 || index >= self.Count() {
		return nil, MissingEntryError
	}

	buffer := make([]byte, self.options.EntrySize)
	_, err := self.reader.ReadAt(buffer, index*self.options.EntrySize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading entry %v: %w", index, ShortReadError)
	}
	return buffer, nil
}

// scanStubs makes one cheap pass over the table reading only the
// fields needed to relate extension records to their bases: the
// signature and the base record reference. Neither sits on a sector
// tail so the scan works on unfixed bytes.
func (self *MFTTable) scanStubs() {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.scanned {
		return
	}

	self.extension_of = make(map[int64]int64)
	self.extensions = make(map[int64][]int64)

	count := self.Count()
	buffer := make([]byte, entry_header_size)

	for i := int64(0); i < count; i++ {
		_, err := self.reader.ReadAt(buffer, i*self.options.EntrySize)
		if err != nil && err != io.EOF {
			break
		}

		// Emptiness cannot be judged from the header alone: a zeroed
		// header with a non-zero tail is corruption, not an unused
		// slot. That call belongs to the full decode.
		if !hasRecordSignature(buffer) {
			continue
		}

		base := NewFileReference(binary.LittleEndian.Uint64(buffer[32:40]))
		if base.IsZero() {
			continue
		}

		self.extension_of[i] = int64(base.Entry)
		self.extensions[int64(base.Entry)] = append(
			self.extensions[int64(base.Entry)], i)
	}

	self.scanned = true
}

// IsExtension reports whether the slot only holds overflow attributes
// for another record.
func (self *MFTTable) IsExtension(index int64) bool {
	self.scanStubs()

	self.mu.Lock()
	defer self.mu.Unlock()

	_, pres := self.extension_of[index]
	return pres
}

// decodeRaw decodes a record without resolving attribute lists or
// merging extensions.
func (self *MFTTable) decodeRaw(index int64) (*MFTEntry, error) {
	cached, pres := self.cache.Get(index)
	if pres {
		STATS.Inc_ENTRY_CACHE_HITS()
		return cached.(*MFTEntry), nil
	}
	STATS.Inc_ENTRY_CACHE_MISSES()

	buffer, err := self.readRecord(index)
	if err != nil {
		return nil, err
	}

	entry, err := DecodeEntryWithOptions(buffer, index, self.options)
	if err != nil {
		return nil, err
	}

	self.cache.Add(index, entry)
	return entry, nil
}

// LookupEntry implements EntryLookup. The reference's sequence number
// must match the record or the slot has been reused since the
// reference was written.
func (self *MFTTable) LookupEntry(ref FileReference) (*MFTEntry, error) {
	entry, err := self.decodeRaw(int64(ref.Entry))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, MissingEntryError
	}

	if ref.Sequence != 0 &&
		entry.Header.SequenceNumber != ref.Sequence {
		return nil, fmt.Errorf(
			"entry %v has sequence %v, reference wants %v: %w",
			ref.Entry, entry.Header.SequenceNumber, ref.Sequence,
			StaleReferenceError)
	}

	return entry, nil
}

// GetEntry decodes a record and assembles its full logical attribute
// set. Records with an $ATTRIBUTE_LIST are resolved through it;
// records whose list is gone but whose extensions are still linked by
// their base references are merged from the stub scan. An empty slot
// yields (nil, nil).
func (self *MFTTable) GetEntry(index int64) (*MFTEntry, error) {
	entry, err := self.decodeRaw(index)
	if err != nil || entry == nil {
		return entry, err
	}

	if !self.options.ResolveAttributeLists {
		return entry, nil
	}

	if _, pres := entry.FindAttribute(ATTR_TYPE_ATTRIBUTE_LIST, -1); pres {
		return ResolveAttributeList(entry, self)
	}

	return self.mergeKnownExtensions(entry)
}

// mergeKnownExtensions appends attributes of extension records found
// by the stub scan to a base record that lost its $ATTRIBUTE_LIST.
// Only extensions whose base reference carries the right sequence
// number are trusted.
func (self *MFTTable) mergeKnownExtensions(base *MFTEntry) (*MFTEntry, error) {
	self.scanStubs()

	self.mu.Lock()
	ext_indexes := self.extensions[base.EntryNumber]
	self.mu.Unlock()

	if len(ext_indexes) == 0 {
		return base, nil
	}

	result := &MFTEntry{
		Header:      base.Header,
		EntryNumber: base.EntryNumber,
		Incomplete:  base.Incomplete,
	}
	result.Attributes = append(result.Attributes, base.Attributes...)
	result.Problems = append(result.Problems, base.Problems...)

	fragments := map[string][]*Attribute{}

	for _, idx := range ext_indexes {
		ext, err := self.decodeRaw(idx)
		if err != nil || ext == nil {
			result.Incomplete = true
			result.Problems = append(result.Problems, fmt.Errorf(
				"extension entry %v: %w", idx, MissingEntryError))
			continue
		}

		if ext.Header.BaseRecord.Sequence != 0 &&
			ext.Header.BaseRecord.Sequence != base.Header.SequenceNumber {
			result.Incomplete = true
			result.Problems = append(result.Problems, fmt.Errorf(
				"extension entry %v: %w", idx, StaleReferenceError))
			continue
		}

		for _, attr := range ext.Attributes {
			if attr.NonResident != nil && attr.NonResident.StartVCN > 0 {
				key := fmt.Sprintf("%v/%v", uint32(attr.Type), attr.Name)
				fragments[key] = append(fragments[key], attr)
				continue
			}
			result.Attributes = append(result.Attributes, attr)
		}
	}

	// Splice continuation fragments onto the attribute they extend.
	for i, attr := range result.Attributes {
		if attr.NonResident == nil || attr.NonResident.StartVCN != 0 {
			continue
		}
		key := fmt.Sprintf("%v/%v", uint32(attr.Type), attr.Name)
		chain, pres := fragments[key]
		if !pres {
			continue
		}
		delete(fragments, key)

		sort.Slice(chain, func(a, b int) bool {
			return chain[a].NonResident.StartVCN <
				chain[b].NonResident.StartVCN
		})
		merged, err := mergeFragments(
			attr.Type, attr.Name, append([]*Attribute{attr}, chain...))
		if err != nil {
			result.Incomplete = true
			result.Problems = append(result.Problems, err)
		}
		if merged != nil {
			result.Attributes[i] = merged
			STATS.Inc_RESOLVED_FRAGMENTS()
		}
	}

	// Fragments whose opening attribute never showed up.
	for _, chain := range fragments {
		result.Incomplete = true
		result.Problems = append(result.Problems, &VcnGapError{
			Type:     chain[0].Type,
			Name:     chain[0].Name,
			StartVCN: chain[0].NonResident.StartVCN,
		})
	}

	return result, nil
}

// Entries streams all base records of the table in slot order. Empty
// slots and extension records are skipped; records that fail to
// decode are yielded with Err set. Cancel the context to stop early.
func (self *MFTTable) Entries(ctx context.Context) chan *EntryResult {
	output := make(chan *EntryResult)

	go func() {
		defer close(output)

		self.scanStubs()
		count := self.Count()

		for i := int64(0); i < count; i++ {
			self.mu.Lock()
			_, skip := self.extension_of[i]
			self.mu.Unlock()

			if skip {
				continue
			}

			entry, err := self.GetEntry(i)
			if err != nil {
				logger.Logger.Warn("corrupt entry",
					zap.Int64("entry", i), zap.Error(err))
			}
			if entry == nil && err == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case output <- &EntryResult{Index: i, Entry: entry, Err: err}:
			}
		}
	}()

	return output
}
