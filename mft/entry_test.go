package mft

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeEntrySimple(t *testing.T) {
	entry, err := DecodeEntry(simpleFileRecord(), 5, 512)
	assert.NoError(t, err)
	assert.NotNil(t, entry)

	assert.Equal(t, int64(5), entry.EntryNumber)
	assert.Equal(t, uint16(2), entry.Header.SequenceNumber)
	assert.Equal(t, uint32(5), entry.Header.RecordNumber)
	assert.True(t, entry.Header.Flags.InUse())
	assert.False(t, entry.Header.Flags.IsDirectory())
	assert.False(t, entry.Header.IsExtension())
	assert.Equal(t, 3, len(entry.Attributes))
	assert.NoError(t, entry.AttributeError)
	assert.Empty(t, entry.Problems)

	names := entry.FileNames()
	assert.Equal(t, 1, len(names))
	assert.Equal(t, "a.txt", names[0].Name)
	assert.Equal(t, uint64(5), names[0].Parent.Entry)
	assert.Equal(t, uint16(2), names[0].Parent.Sequence)
	assert.Equal(t, "Win32", names[0].NameTypeString())

	data, pres := entry.FindAttribute(ATTR_TYPE_DATA, -1)
	assert.True(t, pres)
	assert.True(t, data.IsResident())
	assert.Equal(t, []byte("abcd"), data.Resident.Data)
	assert.Equal(t, uint64(4), data.DataSize())
}

func TestDecodeEntryDoesNotMutateCaller(t *testing.T) {
	buffer := simpleFileRecord()
	original := make([]byte, len(buffer))
	copy(original, buffer)

	_, err := DecodeEntry(buffer, 5, 512)
	assert.NoError(t, err)
	assert.Equal(t, original, buffer)
}

func TestDecodeEmptyEntry(t *testing.T) {
	entry, err := DecodeEntry(make([]byte, 1024), 0, 512)
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDecodeEntryBadSignature(t *testing.T) {
	buffer := simpleFileRecord()
	copy(buffer, "JUNK")

	_, err := DecodeEntry(buffer, 5, 512)
	assert.Equal(t, SignatureError, err)
}

func TestDecodeEntryTooShort(t *testing.T) {
	_, err := DecodeEntry([]byte("FILE"), 0, 512)
	assert.Equal(t, EntryTooShortError, err)
}

func TestDecodeEntryNonResident(t *testing.T) {
	record := buildRecord(10, 1, uint16(ENTRY_IN_USE), 0,
		nonResidentAttr(ATTR_TYPE_DATA, 1, "", 0, 15, 16*4096,
			[]byte{0x21, 0x10, 0x00, 0x01, 0x00}),
	)

	entry, err := DecodeEntry(record, 10, 512)
	assert.NoError(t, err)

	data, pres := entry.FindAttribute(ATTR_TYPE_DATA, -1)
	assert.True(t, pres)
	assert.False(t, data.IsResident())
	assert.Equal(t, uint64(0), data.NonResident.StartVCN)
	assert.Equal(t, uint64(15), data.NonResident.EndVCN)
	assert.Equal(t, uint64(16*4096), data.DataSize())
	assert.NoError(t, data.NonResident.RunlistError)
	assert.Equal(t, []DataRun{{Length: 0x10, LCN: 0x100}}, data.NonResident.Runs)
}

func TestDecodeEntryBadRunlistKeepsSiblings(t *testing.T) {
	record := buildRecord(10, 1, uint16(ENTRY_IN_USE), 0,
		residentAttr(ATTR_TYPE_STANDARD_INFORMATION, 0, "",
			standardInfoContent(unixEpochFiletime)),
		// Runlist with a zero length nibble.
		nonResidentAttr(ATTR_TYPE_DATA, 1, "", 0, 15, 0,
			[]byte{0x10, 0xE0, 0x00}),
	)

	entry, err := DecodeEntry(record, 10, 512)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(entry.Attributes))

	data, _ := entry.FindAttribute(ATTR_TYPE_DATA, -1)
	assert.Equal(t, ZeroLengthRunError, data.NonResident.RunlistError)
	assert.NotEmpty(t, entry.Problems)

	// The sibling decoded normally.
	si, pres := entry.FindAttribute(ATTR_TYPE_STANDARD_INFORMATION, -1)
	assert.True(t, pres)
	assert.NoError(t, si.ContentError)
}

func TestDecodeEntryAttributeOutOfBounds(t *testing.T) {
	si := residentAttr(ATTR_TYPE_STANDARD_INFORMATION, 0, "",
		standardInfoContent(unixEpochFiletime))

	// An attribute claiming to extend far past the used region.
	bogus := make([]byte, 16)
	binary.LittleEndian.PutUint32(bogus[0:4], uint32(ATTR_TYPE_DATA))
	binary.LittleEndian.PutUint32(bogus[4:8], 0x7000)

	record := buildRecord(10, 1, uint16(ENTRY_IN_USE), 0, si, bogus)

	entry, err := DecodeEntry(record, 10, 512)
	assert.NoError(t, err)
	assert.Equal(t, OutOfBoundsError, entry.AttributeError)

	// The attribute before the bad one survives.
	assert.Equal(t, 1, len(entry.Attributes))
	assert.Equal(t, ATTR_TYPE_STANDARD_INFORMATION, entry.Attributes[0].Type)
}

func TestDecodeEntryInvalidHeader(t *testing.T) {
	buffer := simpleFileRecord()

	// Used size larger than the record.
	binary.LittleEndian.PutUint32(buffer[24:28], 0x8000)
	binary.LittleEndian.PutUint32(buffer[28:32], 0x8000)
	protectRecord(buffer)

	_, err := DecodeEntry(buffer, 5, 512)
	assert.ErrorIs(t, err, InvalidHeaderError)

	// First attribute offset inside the header.
	buffer = simpleFileRecord()
	binary.LittleEndian.PutUint16(buffer[20:22], 10)
	protectRecord(buffer)

	_, err = DecodeEntry(buffer, 5, 512)
	assert.ErrorIs(t, err, InvalidHeaderError)
}

func TestDecodeEntryEndMarkerAtTail(t *testing.T) {
	// Used size trimmed so the END marker is the last 4 bytes of the
	// used region, with no room for a full attribute header behind it.
	buffer := simpleFileRecord()
	used := binary.LittleEndian.Uint32(buffer[24:28])
	binary.LittleEndian.PutUint32(buffer[24:28], used-4)
	protectRecord(buffer)

	entry, err := DecodeEntry(buffer, 5, 512)
	assert.NoError(t, err)
	assert.NoError(t, entry.AttributeError)
	assert.Empty(t, entry.Problems)
	assert.Equal(t, 3, len(entry.Attributes))
}

func TestDecodeEntryDeallocatedAndBare(t *testing.T) {
	// Not in use and nothing decodable left. Treated as empty.
	record := buildRecord(10, 3, 0, 0)

	entry, err := DecodeEntry(record, 10, 512)
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDecodeEntryExtensionHeader(t *testing.T) {
	base_ref := uint64(42) | uint64(7)<<48
	record := buildRecord(100, 1, uint16(ENTRY_IN_USE), base_ref,
		nonResidentAttr(ATTR_TYPE_DATA, 3, "", 16, 31, 0,
			[]byte{0x21, 0x10, 0x00, 0x02, 0x00}),
	)

	entry, err := DecodeEntry(record, 100, 512)
	assert.NoError(t, err)
	assert.True(t, entry.Header.IsExtension())
	assert.Equal(t, uint64(42), entry.Header.BaseRecord.Entry)
	assert.Equal(t, uint16(7), entry.Header.BaseRecord.Sequence)
}

func TestDecodeEntryLoadAttributesFilter(t *testing.T) {
	options := GetDefaultOptions()
	options.LoadAttributes = []AttrType{ATTR_TYPE_FILE_NAME}

	entry, err := DecodeEntryWithOptions(simpleFileRecord(), 5, options)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entry.Attributes))
	assert.Equal(t, ATTR_TYPE_FILE_NAME, entry.Attributes[0].Type)
}

func TestNewFileReference(t *testing.T) {
	ref := NewFileReference(uint64(0x2A) | uint64(0x0007)<<48)
	assert.Equal(t, uint64(0x2A), ref.Entry)
	assert.Equal(t, uint16(7), ref.Sequence)
	assert.False(t, ref.IsZero())
	assert.True(t, NewFileReference(0).IsZero())
}
