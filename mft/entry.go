package mft

import (
	"encoding/binary"
	"fmt"
)

const entry_header_size = 48

// FileReference addresses an MFT record plus the sequence number it
// had when the reference was made. The low 48 bits are the entry
// number, the top 16 the sequence.
type FileReference struct {
	Entry    uint64
	Sequence uint16
}

func NewFileReference(raw uint64) FileReference {
	return FileReference{
		Entry:    raw & 0x0000FFFFFFFFFFFF,
		Sequence: uint16(raw >> 48),
	}
}

func (self FileReference) IsZero() bool {
	return self.Entry == 0 && self.Sequence == 0
}

type EntryFlags uint16

const (
	ENTRY_IN_USE       = EntryFlags(0x0001)
	ENTRY_IS_DIRECTORY = EntryFlags(0x0002)
)

func (self EntryFlags) InUse() bool {
	return self&ENTRY_IN_USE != 0
}

func (self EntryFlags) IsDirectory() bool {
	return self&ENTRY_IS_DIRECTORY != 0
}

type EntryHeader struct {
	// The record carried the BAAD signature the log writer uses for
	// torn multi-sector writes.
	IsBaad bool

	FixupOffset          uint16
	FixupCount           uint16
	LogFileSequence      uint64
	SequenceNumber       uint16
	HardLinkCount        uint16
	FirstAttributeOffset uint16
	Flags                EntryFlags
	UsedSize             uint32
	AllocatedSize        uint32
	BaseRecord           FileReference
	NextAttributeId      uint16
	RecordNumber         uint32
}

// IsExtension is true when this record only holds overflow attributes
// for another (base) record.
func (self *EntryHeader) IsExtension() bool {
	return !self.BaseRecord.IsZero()
}

type MFTEntry struct {
	Header      EntryHeader
	EntryNumber int64

	Attributes []*Attribute

	// AttributeError is set when attribute iteration aborted early.
	// Attributes decoded before the abort are kept.
	AttributeError error

	// Incomplete is set when an attribute list could not be fully
	// resolved. Problems holds every non fatal condition hit while
	// assembling the entry.
	Incomplete bool
	Problems   []error
}

// FindAttribute returns the first attribute of the given type. An id
// of -1 matches any attribute id.
func (self *MFTEntry) FindAttribute(attr_type AttrType, id int) (*Attribute, bool) {
	for _, attr := range self.Attributes {
		if attr.Type == attr_type &&
			(id < 0 || attr.Id == uint16(id)) {
			return attr, true
		}
	}
	return nil, false
}

// FileNames returns all decoded $FILE_NAME contents. Hard linked
// files carry one per link, plus short name variants.
func (self *MFTEntry) FileNames() []*FileName {
	result := []*FileName{}
	for _, attr := range self.Attributes {
		if attr.Type != ATTR_TYPE_FILE_NAME {
			continue
		}
		if fn, ok := attr.Content.(*FileName); ok {
			result = append(result, fn)
		}
	}
	return result
}

// DecodeEntry decodes one MFT record. The buffer is copied before the
// fixups are applied so the caller's bytes are never mutated. An
// empty (all zero) record returns (nil, nil).
func DecodeEntry(buffer []byte, entry_number int64, sector_size int64) (
	*MFTEntry, error) {
	options := GetDefaultOptions()
	options.SectorSize = sector_size
	return DecodeEntryWithOptions(buffer, entry_number, options)
}

func DecodeEntryWithOptions(buffer []byte, entry_number int64,
	options Options) (*MFTEntry, error) {

	if len(buffer) < entry_header_size {
		return nil, EntryTooShortError
	}

	if options.SectorSize <= 0 {
		options.SectorSize = DefaultSectorSize
	}

	record := make([]byte, len(buffer))
	copy(record, buffer)

	if options.ApplyFixups {
		err := ApplyFixups(record, options.SectorSize)
		if err == EmptyEntryError {
			STATS.Inc_EMPTY_ENTRY()
			return nil, nil
		}
		if err == SignatureError && options.IgnoreSignatureCheck {
			err = nil
		}
		if err != nil {
			return nil, err
		}
	} else if isAllZero(record) {
		STATS.Inc_EMPTY_ENTRY()
		return nil, nil
	}

	header := EntryHeader{
		IsBaad:               record[0] == 'B',
		FixupOffset:          binary.LittleEndian.Uint16(record[4:6]),
		FixupCount:           binary.LittleEndian.Uint16(record[6:8]),
		LogFileSequence:      binary.LittleEndian.Uint64(record[8:16]),
		SequenceNumber:       binary.LittleEndian.Uint16(record[16:18]),
		HardLinkCount:        binary.LittleEndian.Uint16(record[18:20]),
		FirstAttributeOffset: binary.LittleEndian.Uint16(record[20:22]),
		Flags:                EntryFlags(binary.LittleEndian.Uint16(record[22:24])),
		UsedSize:             binary.LittleEndian.Uint32(record[24:28]),
		AllocatedSize:        binary.LittleEndian.Uint32(record[28:32]),
		BaseRecord:           NewFileReference(binary.LittleEndian.Uint64(record[32:40])),
		NextAttributeId:      binary.LittleEndian.Uint16(record[40:42]),
		RecordNumber:         binary.LittleEndian.Uint32(record[44:48]),
	}

	if header.UsedSize > header.AllocatedSize ||
		int(header.AllocatedSize) > len(record) {
		return nil, fmt.Errorf("sizes used %v allocated %v exceed record: %w",
			header.UsedSize, header.AllocatedSize, InvalidHeaderError)
	}

	if int(header.FirstAttributeOffset) < entry_header_size ||
		uint32(header.FirstAttributeOffset) >= header.UsedSize {
		return nil, fmt.Errorf("first attribute offset %v: %w",
			header.FirstAttributeOffset, InvalidHeaderError)
	}

	result := &MFTEntry{
		Header:      header,
		EntryNumber: entry_number,
	}

	// Attribute iteration stays inside the used region of the
	// record. Whatever sits between used and allocated size is slack
	// from a previous life of the slot.
	used := record[:header.UsedSize]
	offset := int(header.FirstAttributeOffset)

	for {
		attr, length, err := decodeAttribute(used, offset, options)
		if err != nil {
			result.AttributeError = err
			result.Problems = append(result.Problems, err)
			break
		}
		if attr == nil {
			// ATTR_TYPE_END marker.
			break
		}
		offset += length

		if !options.wantType(attr.Type) {
			continue
		}

		if attr.NonResident != nil && attr.NonResident.RunlistError != nil {
			result.Problems = append(result.Problems,
				fmt.Errorf("attribute %v id %v: %w",
					attr.Type.Name(), attr.Id,
					attr.NonResident.RunlistError))
		}
		if attr.ContentError != nil {
			result.Problems = append(result.Problems, attr.ContentError)
		}

		result.Attributes = append(result.Attributes, attr)
	}

	// A record that was deallocated and has nothing left to say is
	// treated like an empty slot.
	if !header.Flags.InUse() && len(result.Attributes) == 0 &&
		result.AttributeError == nil {
		STATS.Inc_EMPTY_ENTRY()
		return nil, nil
	}

	STATS.Inc_MFT_ENTRY()
	return result, nil
}
