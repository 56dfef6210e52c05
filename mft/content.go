package mft

import (
	"encoding/binary"
	"fmt"
	"time"
)

// TypedContent is the decoded payload of a resident attribute.
type TypedContent interface {
	ContentType() AttrType
}

// ContentDecoder turns raw resident bytes into a typed view. Custom
// decoders may be registered for vendor specific attribute types.
type ContentDecoder func(data []byte) (TypedContent, error)

var content_decoders = map[AttrType]ContentDecoder{
	ATTR_TYPE_STANDARD_INFORMATION: decodeStandardInformation,
	ATTR_TYPE_FILE_NAME:            decodeFileName,
	ATTR_TYPE_ATTRIBUTE_LIST:       decodeAttributeListContent,
	ATTR_TYPE_OBJECT_ID:            decodeObjectID,
	ATTR_TYPE_VOLUME_NAME:          decodeVolumeName,
	ATTR_TYPE_VOLUME_INFORMATION:   decodeVolumeInformation,
	ATTR_TYPE_DATA:                 decodeData,
	ATTR_TYPE_INDEX_ROOT:           decodeIndexRoot,
	ATTR_TYPE_BITMAP:               decodeBitmap,
	ATTR_TYPE_REPARSE_POINT:        decodeReparsePoint,
	ATTR_TYPE_EA_INFORMATION:       decodeEaInformation,
}

func RegisterContentDecoder(attr_type AttrType, decoder ContentDecoder) {
	content_decoders[attr_type] = decoder
}

// DecodeContent dispatches resident bytes to the decoder for the
// attribute's type. Unknown types get a RawContent with no error; a
// failing decoder gets a RawContent plus a *ContentError, so callers
// always have the bytes.
func DecodeContent(attr_type AttrType, data []byte) (TypedContent, error) {
	decoder, pres := content_decoders[attr_type]
	if !pres {
		return &RawContent{Type: attr_type, Data: data}, nil
	}

	content, err := decoder(data)
	if err != nil {
		return &RawContent{Type: attr_type, Data: data},
			&ContentError{Type: attr_type, Err: err}
	}
	return content, nil
}

type Timestamps struct {
	Created     time.Time
	Modified    time.Time
	MFTModified time.Time
	Accessed    time.Time
}

func decodeTimestamps(data []byte) Timestamps {
	return Timestamps{
		Created:     WinFileTime64(binary.LittleEndian.Uint64(data[0:8])),
		Modified:    WinFileTime64(binary.LittleEndian.Uint64(data[8:16])),
		MFTModified: WinFileTime64(binary.LittleEndian.Uint64(data[16:24])),
		Accessed:    WinFileTime64(binary.LittleEndian.Uint64(data[24:32])),
	}
}

type FileAttrFlags uint32

const (
	FILE_ATTR_READ_ONLY = FileAttrFlags(0x0001)
	FILE_ATTR_HIDDEN    = FileAttrFlags(0x0002)
	FILE_ATTR_SYSTEM    = FileAttrFlags(0x0004)
	FILE_ATTR_ARCHIVE   = FileAttrFlags(0x0020)
	FILE_ATTR_DIRECTORY = FileAttrFlags(0x10000000)
)

// StandardInformation comes in a 48 byte form and an extended 72 byte
// form carrying quota and journal fields.
type StandardInformation struct {
	Times        Timestamps
	Flags        FileAttrFlags
	MaxVersions  uint32
	Version      uint32
	ClassId      uint32
	OwnerId      uint32
	SecurityId   uint32
	QuotaCharged uint64
	USN          uint64
}

func (self *StandardInformation) ContentType() AttrType {
	return ATTR_TYPE_STANDARD_INFORMATION
}

func decodeStandardInformation(data []byte) (TypedContent, error) {
	if len(data) < 48 {
		return nil, TruncatedContentError
	}

	result := &StandardInformation{
		Times:       decodeTimestamps(data[0:32]),
		Flags:       FileAttrFlags(binary.LittleEndian.Uint32(data[32:36])),
		MaxVersions: binary.LittleEndian.Uint32(data[36:40]),
		Version:     binary.LittleEndian.Uint32(data[40:44]),
		ClassId:     binary.LittleEndian.Uint32(data[44:48]),
	}

	if len(data) >= 72 {
		result.OwnerId = binary.LittleEndian.Uint32(data[48:52])
		result.SecurityId = binary.LittleEndian.Uint32(data[52:56])
		result.QuotaCharged = binary.LittleEndian.Uint64(data[56:64])
		result.USN = binary.LittleEndian.Uint64(data[64:72])
	}

	return result, nil
}

const (
	FILE_NAME_POSIX   = uint8(0)
	FILE_NAME_WIN32   = uint8(1)
	FILE_NAME_DOS     = uint8(2)
	FILE_NAME_DOS_WIN = uint8(3)
)

type FileName struct {
	Parent        FileReference
	Times         Timestamps
	AllocatedSize uint64
	RealSize      uint64
	Flags         FileAttrFlags
	ReparseValue  uint32
	NameType      uint8
	Name          string
}

func (self *FileName) ContentType() AttrType {
	return ATTR_TYPE_FILE_NAME
}

func (self *FileName) NameTypeString() string {
	switch self.NameType {
	case FILE_NAME_POSIX:
		return "POSIX"
	case FILE_NAME_WIN32:
		return "Win32"
	case FILE_NAME_DOS:
		return "DOS"
	case FILE_NAME_DOS_WIN:
		return "DOS+Win32"
	default:
		return fmt.Sprintf("Unknown(%d)", self.NameType)
	}
}

func decodeFileName(data []byte) (TypedContent, error) {
	if len(data) < 66 {
		return nil, TruncatedContentError
	}

	name_length := int(data[64])
	if 66+name_length*2 > len(data) {
		return nil, TruncatedContentError
	}

	return &FileName{
		Parent:        NewFileReference(binary.LittleEndian.Uint64(data[0:8])),
		Times:         decodeTimestamps(data[8:40]),
		AllocatedSize: binary.LittleEndian.Uint64(data[40:48]),
		RealSize:      binary.LittleEndian.Uint64(data[48:56]),
		Flags:         FileAttrFlags(binary.LittleEndian.Uint32(data[56:60])),
		ReparseValue:  binary.LittleEndian.Uint32(data[60:64]),
		NameType:      data[65],
		Name:          ParseUTF16String(data[66 : 66+name_length*2]),
	}, nil
}

// AttributeListContent is the decoded payload of a resident
// $ATTRIBUTE_LIST. The entries are kept in on-disk order; the
// resolver sorts a copy.
type AttributeListContent struct {
	Entries []*AttributeListEntry
}

func (self *AttributeListContent) ContentType() AttrType {
	return ATTR_TYPE_ATTRIBUTE_LIST
}

func decodeAttributeListContent(data []byte) (TypedContent, error) {
	entries, err := DecodeAttributeListEntries(data)
	if err != nil {
		return nil, err
	}
	return &AttributeListContent{Entries: entries}, nil
}

// DataContent marks a resident $DATA payload. The bytes themselves
// stay on the attribute's ResidentContent.
type DataContent struct {
	Size uint64
}

func (self *DataContent) ContentType() AttrType {
	return ATTR_TYPE_DATA
}

func decodeData(data []byte) (TypedContent, error) {
	return &DataContent{Size: uint64(len(data))}, nil
}

type ObjectID struct {
	ObjectId      string
	BirthVolumeId string
	BirthObjectId string
	BirthDomainId string
}

func (self *ObjectID) ContentType() AttrType {
	return ATTR_TYPE_OBJECT_ID
}

// formatGUID renders the windows mixed endian GUID layout: the first
// three groups are little endian, the rest big endian.
func formatGUID(data []byte) string {
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		binary.LittleEndian.Uint32(data[0:4]),
		binary.LittleEndian.Uint16(data[4:6]),
		binary.LittleEndian.Uint16(data[6:8]),
		data[8], data[9],
		data[10], data[11], data[12], data[13], data[14], data[15])
}

func decodeObjectID(data []byte) (TypedContent, error) {
	if len(data) < 16 {
		return nil, TruncatedContentError
	}

	result := &ObjectID{ObjectId: formatGUID(data[0:16])}

	// The birth ids are optional and usually absent.
	if len(data) >= 32 {
		result.BirthVolumeId = formatGUID(data[16:32])
	}
	if len(data) >= 48 {
		result.BirthObjectId = formatGUID(data[32:48])
	}
	if len(data) >= 64 {
		result.BirthDomainId = formatGUID(data[48:64])
	}

	return result, nil
}

type VolumeName struct {
	Name string
}

func (self *VolumeName) ContentType() AttrType {
	return ATTR_TYPE_VOLUME_NAME
}

func decodeVolumeName(data []byte) (TypedContent, error) {
	if len(data)%2 != 0 {
		return nil, TruncatedContentError
	}
	return &VolumeName{Name: ParseUTF16String(data)}, nil
}

type VolumeInformation struct {
	MajorVersion uint8
	MinorVersion uint8
	Flags        uint16
}

func (self *VolumeInformation) ContentType() AttrType {
	return ATTR_TYPE_VOLUME_INFORMATION
}

func (self *VolumeInformation) IsDirty() bool {
	return self.Flags&0x0001 != 0
}

func decodeVolumeInformation(data []byte) (TypedContent, error) {
	if len(data) < 12 {
		return nil, TruncatedContentError
	}
	return &VolumeInformation{
		MajorVersion: data[8],
		MinorVersion: data[9],
		Flags:        binary.LittleEndian.Uint16(data[10:12]),
	}, nil
}

// IndexRoot only exposes the header fields needed to tell what kind
// of index this is. Walking index nodes is out of scope here.
type IndexRoot struct {
	IndexedAttrType   AttrType
	CollationRule     uint32
	BytesPerRecord    uint32
	ClustersPerRecord uint8
}

func (self *IndexRoot) ContentType() AttrType {
	return ATTR_TYPE_INDEX_ROOT
}

func decodeIndexRoot(data []byte) (TypedContent, error) {
	if len(data) < 16 {
		return nil, TruncatedContentError
	}
	return &IndexRoot{
		IndexedAttrType:   AttrType(binary.LittleEndian.Uint32(data[0:4])),
		CollationRule:     binary.LittleEndian.Uint32(data[4:8]),
		BytesPerRecord:    binary.LittleEndian.Uint32(data[8:12]),
		ClustersPerRecord: data[12],
	}, nil
}

type Bitmap struct {
	Bits []byte
}

func (self *Bitmap) ContentType() AttrType {
	return ATTR_TYPE_BITMAP
}

// Test reports whether bit i is set.
func (self *Bitmap) Test(i int) bool {
	byte_idx := i / 8
	if byte_idx >= len(self.Bits) {
		return false
	}
	return self.Bits[byte_idx]&(1<<uint(i%8)) != 0
}

func decodeBitmap(data []byte) (TypedContent, error) {
	return &Bitmap{Bits: data}, nil
}

type ReparsePoint struct {
	Tag        uint32
	DataLength uint16
	Data       []byte
}

func (self *ReparsePoint) ContentType() AttrType {
	return ATTR_TYPE_REPARSE_POINT
}

func decodeReparsePoint(data []byte) (TypedContent, error) {
	if len(data) < 8 {
		return nil, TruncatedContentError
	}
	data_length := binary.LittleEndian.Uint16(data[4:6])
	if 8+int(data_length) > len(data) {
		return nil, TruncatedContentError
	}
	return &ReparsePoint{
		Tag:        binary.LittleEndian.Uint32(data[0:4]),
		DataLength: data_length,
		Data:       data[8 : 8+data_length],
	}, nil
}

type EaInformation struct {
	PackedSize   uint16
	NeedEaCount  uint16
	UnpackedSize uint32
}

func (self *EaInformation) ContentType() AttrType {
	return ATTR_TYPE_EA_INFORMATION
}

func decodeEaInformation(data []byte) (TypedContent, error) {
	if len(data) < 8 {
		return nil, TruncatedContentError
	}
	return &EaInformation{
		PackedSize:   binary.LittleEndian.Uint16(data[0:2]),
		NeedEaCount:  binary.LittleEndian.Uint16(data[2:4]),
		UnpackedSize: binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

// RawContent is the fallback for unknown attribute types and for
// payloads their decoder rejected.
type RawContent struct {
	Type AttrType
	Data []byte
}

func (self *RawContent) ContentType() AttrType {
	return self.Type
}
