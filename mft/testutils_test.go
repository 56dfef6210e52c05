package mft

import (
	"encoding/binary"

	"github.com/davecgh/go-spew/spew"
)

func init() {
	spew.Config = spew.ConfigState{
		Indent:                  " ",
		DisablePointerAddresses: true,
	}
}

// FILETIME value of the unix epoch.
const unixEpochFiletime = uint64(116444736000000000)

const testUSN = uint16(0x1234)

func utf16Bytes(name string) []byte {
	result := make([]byte, 0, len(name)*2)
	for _, c := range name {
		result = append(result, byte(c), 0)
	}
	return result
}

// buildRecord assembles a 1024 byte record with a real fixup array
// (USN plus two sector tails).
func buildRecord(entry_number uint32, seq uint16, flags uint16,
	base uint64, attrs ...[]byte) []byte {

	buffer := make([]byte, 1024)
	copy(buffer, "FILE")
	binary.LittleEndian.PutUint16(buffer[4:6], 48)
	binary.LittleEndian.PutUint16(buffer[6:8], 3)
	binary.LittleEndian.PutUint16(buffer[16:18], seq)
	binary.LittleEndian.PutUint16(buffer[18:20], 1)
	binary.LittleEndian.PutUint16(buffer[20:22], 56)
	binary.LittleEndian.PutUint16(buffer[22:24], flags)
	binary.LittleEndian.PutUint64(buffer[32:40], base)
	binary.LittleEndian.PutUint32(buffer[44:48], entry_number)

	offset := 56
	for _, attr := range attrs {
		copy(buffer[offset:], attr)
		offset += len(attr)
	}
	binary.LittleEndian.PutUint32(buffer[offset:], 0xFFFFFFFF)
	offset += 8

	binary.LittleEndian.PutUint32(buffer[24:28], uint32(offset))
	binary.LittleEndian.PutUint32(buffer[28:32], 1024)

	protectRecord(buffer)
	return buffer
}

// protectRecord applies the update sequence protection the way the
// filesystem driver would: stash each sector tail in the fixup array
// and stamp the USN over it.
func protectRecord(buffer []byte) {
	binary.LittleEndian.PutUint16(buffer[48:50], testUSN)
	for i := 0; i < 2; i++ {
		tail := 512*(i+1) - 2
		copy(buffer[50+2*i:52+2*i], buffer[tail:tail+2])
		binary.LittleEndian.PutUint16(buffer[tail:tail+2], testUSN)
	}
}

func residentAttr(attr_type AttrType, id uint16, name string,
	data []byte) []byte {

	name16 := utf16Bytes(name)
	content_offset := 24 + len(name16)
	length := (content_offset + len(data) + 7) &^ 7

	buffer := make([]byte, length)
	binary.LittleEndian.PutUint32(buffer[0:4], uint32(attr_type))
	binary.LittleEndian.PutUint32(buffer[4:8], uint32(length))
	buffer[9] = byte(len(name))
	binary.LittleEndian.PutUint16(buffer[10:12], 24)
	binary.LittleEndian.PutUint16(buffer[14:16], id)
	binary.LittleEndian.PutUint32(buffer[16:20], uint32(len(data)))
	binary.LittleEndian.PutUint16(buffer[20:22], uint16(content_offset))
	copy(buffer[24:], name16)
	copy(buffer[content_offset:], data)
	return buffer
}

func nonResidentAttr(attr_type AttrType, id uint16, name string,
	start_vcn, end_vcn uint64, actual_size uint64, runlist []byte) []byte {

	name16 := utf16Bytes(name)
	runlist_offset := 64 + len(name16)
	length := (runlist_offset + len(runlist) + 7) &^ 7

	buffer := make([]byte, length)
	binary.LittleEndian.PutUint32(buffer[0:4], uint32(attr_type))
	binary.LittleEndian.PutUint32(buffer[4:8], uint32(length))
	buffer[8] = 1
	buffer[9] = byte(len(name))
	binary.LittleEndian.PutUint16(buffer[10:12], 64)
	binary.LittleEndian.PutUint16(buffer[14:16], id)
	binary.LittleEndian.PutUint64(buffer[16:24], start_vcn)
	binary.LittleEndian.PutUint64(buffer[24:32], end_vcn)
	binary.LittleEndian.PutUint16(buffer[32:34], uint16(runlist_offset))
	binary.LittleEndian.PutUint64(buffer[40:48], actual_size)
	binary.LittleEndian.PutUint64(buffer[48:56], actual_size)
	binary.LittleEndian.PutUint64(buffer[56:64], actual_size)
	copy(buffer[64:], name16)
	copy(buffer[runlist_offset:], runlist)
	return buffer
}

func standardInfoContent(filetime uint64) []byte {
	buffer := make([]byte, 48)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(buffer[i*8:], filetime)
	}
	return buffer
}

func fileNameContent(parent uint64, filetime uint64, real_size uint64,
	name string, name_type byte) []byte {

	buffer := make([]byte, 66+len(name)*2)
	binary.LittleEndian.PutUint64(buffer[0:8], parent)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(buffer[8+i*8:], filetime)
	}
	binary.LittleEndian.PutUint64(buffer[40:48], (real_size+1023)&^1023)
	binary.LittleEndian.PutUint64(buffer[48:56], real_size)
	buffer[64] = byte(len(name))
	buffer[65] = name_type
	copy(buffer[66:], utf16Bytes(name))
	return buffer
}

func listRow(attr_type AttrType, id uint16, start_vcn uint64,
	ref uint64, name string) []byte {

	name16 := utf16Bytes(name)
	length := (26 + len(name16) + 7) &^ 7

	buffer := make([]byte, length)
	binary.LittleEndian.PutUint32(buffer[0:4], uint32(attr_type))
	binary.LittleEndian.PutUint16(buffer[4:6], uint16(length))
	buffer[6] = byte(len(name))
	buffer[7] = 26
	binary.LittleEndian.PutUint64(buffer[8:16], start_vcn)
	binary.LittleEndian.PutUint64(buffer[16:24], ref)
	binary.LittleEndian.PutUint16(buffer[24:26], id)
	copy(buffer[26:], name16)
	return buffer
}

// simpleFileRecord is a plain in-use file with the three usual
// resident attributes.
func simpleFileRecord() []byte {
	parent := uint64(5) | uint64(2)<<48
	return buildRecord(5, 2, uint16(ENTRY_IN_USE), 0,
		residentAttr(ATTR_TYPE_STANDARD_INFORMATION, 0, "",
			standardInfoContent(unixEpochFiletime)),
		residentAttr(ATTR_TYPE_FILE_NAME, 2, "",
			fileNameContent(parent, unixEpochFiletime, 4, "a.txt",
				FILE_NAME_WIN32)),
		residentAttr(ATTR_TYPE_DATA, 1, "", []byte("abcd")),
	)
}
