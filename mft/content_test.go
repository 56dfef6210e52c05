package mft

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWinFileTime64(t *testing.T) {
	assert.Equal(t,
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		WinFileTime64(unixEpochFiletime))

	assert.Equal(t,
		time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC),
		WinFileTime64(0))

	// 100ns resolution survives the conversion.
	assert.Equal(t,
		time.Date(1970, 1, 1, 0, 0, 0, 300, time.UTC),
		WinFileTime64(unixEpochFiletime+3))
}

func TestDecodeStandardInformation(t *testing.T) {
	content, err := DecodeContent(ATTR_TYPE_STANDARD_INFORMATION,
		standardInfoContent(unixEpochFiletime))
	assert.NoError(t, err)

	si, ok := content.(*StandardInformation)
	assert.True(t, ok)
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		si.Times.Created)
	assert.Equal(t, uint32(0), si.OwnerId)
}

func TestDecodeStandardInformationExtended(t *testing.T) {
	data := make([]byte, 72)
	copy(data, standardInfoContent(unixEpochFiletime))
	binary.LittleEndian.PutUint32(data[52:56], 0x105)
	binary.LittleEndian.PutUint64(data[64:72], 987654)

	content, err := DecodeContent(ATTR_TYPE_STANDARD_INFORMATION, data)
	assert.NoError(t, err)

	si := content.(*StandardInformation)
	assert.Equal(t, uint32(0x105), si.SecurityId)
	assert.Equal(t, uint64(987654), si.USN)
}

func TestDecodeFileName(t *testing.T) {
	parent := uint64(5) | uint64(3)<<48
	content, err := DecodeContent(ATTR_TYPE_FILE_NAME,
		fileNameContent(parent, unixEpochFiletime, 1234, "kitten.jpg",
			FILE_NAME_DOS_WIN))
	assert.NoError(t, err)

	fn := content.(*FileName)
	assert.Equal(t, "kitten.jpg", fn.Name)
	assert.Equal(t, uint64(5), fn.Parent.Entry)
	assert.Equal(t, uint16(3), fn.Parent.Sequence)
	assert.Equal(t, uint64(1234), fn.RealSize)
	assert.Equal(t, "DOS+Win32", fn.NameTypeString())
}

func TestDecodeContentUnknownType(t *testing.T) {
	content, err := DecodeContent(AttrType(0x1234), []byte{1, 2, 3})
	assert.NoError(t, err)

	raw, ok := content.(*RawContent)
	assert.True(t, ok)
	assert.Equal(t, AttrType(0x1234), raw.ContentType())
	assert.Equal(t, []byte{1, 2, 3}, raw.Data)
}

func TestDecodeContentBadPayloadFallsBack(t *testing.T) {
	// Far too short for a $FILE_NAME. Raw bytes are kept and the
	// error reports which decoder failed.
	content, err := DecodeContent(ATTR_TYPE_FILE_NAME, []byte{1, 2, 3})
	assert.Error(t, err)

	content_err, ok := err.(*ContentError)
	assert.True(t, ok)
	assert.Equal(t, ATTR_TYPE_FILE_NAME, content_err.Type)
	assert.ErrorIs(t, err, TruncatedContentError)

	raw, ok := content.(*RawContent)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, raw.Data)
}

func TestDecodeObjectID(t *testing.T) {
	data := []byte{
		0x33, 0x22, 0x11, 0x00,
		0x55, 0x44,
		0x77, 0x66,
		0x88, 0x99,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
	}

	content, err := DecodeContent(ATTR_TYPE_OBJECT_ID, data)
	assert.NoError(t, err)

	oid := content.(*ObjectID)
	assert.Equal(t, "00112233-4455-6677-8899-aabbccddeeff", oid.ObjectId)
	assert.Equal(t, "", oid.BirthVolumeId)
}

func TestDecodeVolumeName(t *testing.T) {
	content, err := DecodeContent(ATTR_TYPE_VOLUME_NAME,
		utf16Bytes("System"))
	assert.NoError(t, err)
	assert.Equal(t, "System", content.(*VolumeName).Name)
}

func TestDecodeVolumeInformation(t *testing.T) {
	data := make([]byte, 12)
	data[8] = 3
	data[9] = 1
	data[10] = 1 // dirty bit

	content, err := DecodeContent(ATTR_TYPE_VOLUME_INFORMATION, data)
	assert.NoError(t, err)

	vi := content.(*VolumeInformation)
	assert.Equal(t, uint8(3), vi.MajorVersion)
	assert.Equal(t, uint8(1), vi.MinorVersion)
	assert.True(t, vi.IsDirty())
}

func TestDecodeReparsePoint(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data[0:4], 0xA000000C) // symlink tag
	binary.LittleEndian.PutUint16(data[4:6], 8)

	content, err := DecodeContent(ATTR_TYPE_REPARSE_POINT, data)
	assert.NoError(t, err)

	rp := content.(*ReparsePoint)
	assert.Equal(t, uint32(0xA000000C), rp.Tag)
	assert.Equal(t, 8, len(rp.Data))
}

func TestDecodeBitmap(t *testing.T) {
	content, err := DecodeContent(ATTR_TYPE_BITMAP, []byte{0x05})
	assert.NoError(t, err)

	bitmap := content.(*Bitmap)
	assert.True(t, bitmap.Test(0))
	assert.False(t, bitmap.Test(1))
	assert.True(t, bitmap.Test(2))
	assert.False(t, bitmap.Test(100))
}

func TestRegisterContentDecoder(t *testing.T) {
	custom := AttrType(0x5000)
	RegisterContentDecoder(custom, func(data []byte) (TypedContent, error) {
		return &VolumeName{Name: "custom"}, nil
	})
	defer delete(content_decoders, custom)

	content, err := DecodeContent(custom, nil)
	assert.NoError(t, err)
	assert.Equal(t, "custom", content.(*VolumeName).Name)
}

func TestAttrTypeNames(t *testing.T) {
	assert.Equal(t, "$FILE_NAME", ATTR_TYPE_FILE_NAME.Name())
	assert.Equal(t, "$DATA", ATTR_TYPE_DATA.Name())
	assert.Equal(t, "$UNKNOWN(0x12345)", AttrType(0x12345).Name())
}
