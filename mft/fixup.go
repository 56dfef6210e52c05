package mft

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	DefaultSectorSize = int64(512)
	DefaultEntrySize  = int64(1024)

	// Largest record size we will try to decode when probing.
	MAX_MFT_ENTRY_SIZE = 0xFFFF
)

var (
	file_signature = []byte("FILE")
	baad_signature = []byte("BAAD")
)

// ApplyFixups verifies and undoes the update sequence protection of a
// multi-sector record in place. The last two bytes of each sector
// sized chunk must equal the update sequence number; they are then
// replaced by the original bytes stored in the fixup array.
//
// A buffer of all zero bytes is an allocated but unused slot and
// returns EmptyEntryError.
func ApplyFixups(buffer []byte, sector_size int64) error {
	if sector_size <= 0 {
		sector_size = DefaultSectorSize
	}

	if int64(len(buffer)) < sector_size {
		return EntryTooShortError
	}

	if !bytes.Equal(buffer[:4], file_signature) &&
		!bytes.Equal(buffer[:4], baad_signature) {
		if isAllZero(buffer) {
			return EmptyEntryError
		}
		return SignatureError
	}

	fixup_offset := int(binary.LittleEndian.Uint16(buffer[4:6]))
	fixup_count := int(binary.LittleEndian.Uint16(buffer[6:8]))

	if fixup_count == 0 {
		return nil
	}

	// The array is the USN followed by fixup_count-1 replacement
	// words, one per sector.
	if fixup_offset+fixup_count*2 > len(buffer) {
		return fmt.Errorf("fixup array out of bounds: %w", InvalidHeaderError)
	}

	if int64(fixup_count-1)*sector_size > int64(len(buffer)) {
		return fmt.Errorf("fixup array covers %v sectors: %w",
			fixup_count-1, InvalidHeaderError)
	}

	usn := buffer[fixup_offset : fixup_offset+2]

	for i := 1; i < fixup_count; i++ {
		sector_end := int64(i) * sector_size
		tail := buffer[sector_end-2 : sector_end]

		if !bytes.Equal(tail, usn) {
			STATS.Inc_FIXUP_ERRORS()
			return fmt.Errorf(
				"sector %v tail %02x%02x does not match USN %02x%02x: %w",
				i-1, tail[0], tail[1], usn[0], usn[1], FixupMismatchError)
		}

		copy(tail, buffer[fixup_offset+2*i:fixup_offset+2*i+2])
	}

	return nil
}

func isAllZero(buffer []byte) bool {
	for _, b := range buffer {
		if b != 0 {
			return false
		}
	}
	return true
}
