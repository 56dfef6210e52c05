package mft

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

type AttrType uint32

const (
	ATTR_TYPE_STANDARD_INFORMATION  = AttrType(0x10)
	ATTR_TYPE_ATTRIBUTE_LIST        = AttrType(0x20)
	ATTR_TYPE_FILE_NAME             = AttrType(0x30)
	ATTR_TYPE_OBJECT_ID             = AttrType(0x40)
	ATTR_TYPE_SECURITY_DESCRIPTOR   = AttrType(0x50)
	ATTR_TYPE_VOLUME_NAME           = AttrType(0x60)
	ATTR_TYPE_VOLUME_INFORMATION    = AttrType(0x70)
	ATTR_TYPE_DATA                  = AttrType(0x80)
	ATTR_TYPE_INDEX_ROOT            = AttrType(0x90)
	ATTR_TYPE_INDEX_ALLOCATION      = AttrType(0xA0)
	ATTR_TYPE_BITMAP                = AttrType(0xB0)
	ATTR_TYPE_REPARSE_POINT         = AttrType(0xC0)
	ATTR_TYPE_EA_INFORMATION        = AttrType(0xD0)
	ATTR_TYPE_EA                    = AttrType(0xE0)
	ATTR_TYPE_LOGGED_UTILITY_STREAM = AttrType(0x100)
	ATTR_TYPE_END                   = AttrType(0xFFFFFFFF)
)

func (self AttrType) Name() string {
	switch self {
	case ATTR_TYPE_STANDARD_INFORMATION:
		return "$STANDARD_INFORMATION"
	case ATTR_TYPE_ATTRIBUTE_LIST:
		return "$ATTRIBUTE_LIST"
	case ATTR_TYPE_FILE_NAME:
		return "$FILE_NAME"
	case ATTR_TYPE_OBJECT_ID:
		return "$OBJECT_ID"
	case ATTR_TYPE_SECURITY_DESCRIPTOR:
		return "$SECURITY_DESCRIPTOR"
	case ATTR_TYPE_VOLUME_NAME:
		return "$VOLUME_NAME"
	case ATTR_TYPE_VOLUME_INFORMATION:
		return "$VOLUME_INFORMATION"
	case ATTR_TYPE_DATA:
		return "$DATA"
	case ATTR_TYPE_INDEX_ROOT:
		return "$INDEX_ROOT"
	case ATTR_TYPE_INDEX_ALLOCATION:
		return "$INDEX_ALLOCATION"
	case ATTR_TYPE_BITMAP:
		return "$BITMAP"
	case ATTR_TYPE_REPARSE_POINT:
		return "$REPARSE_POINT"
	case ATTR_TYPE_EA_INFORMATION:
		return "$EA_INFORMATION"
	case ATTR_TYPE_EA:
		return "$EA"
	case ATTR_TYPE_LOGGED_UTILITY_STREAM:
		return "$LOGGED_UTILITY_STREAM"
	case ATTR_TYPE_END:
		return "$END"
	default:
		return fmt.Sprintf("$UNKNOWN(%#x)", uint32(self))
	}
}

type AttrFlags uint16

const (
	ATTR_FLAG_COMPRESSED = AttrFlags(0x0001)
	ATTR_FLAG_ENCRYPTED  = AttrFlags(0x4000)
	ATTR_FLAG_SPARSE     = AttrFlags(0x8000)
)

func (self AttrFlags) IsCompressed() bool {
	return self&ATTR_FLAG_COMPRESSED != 0
}

func (self AttrFlags) IsEncrypted() bool {
	return self&ATTR_FLAG_ENCRYPTED != 0
}

func (self AttrFlags) IsSparse() bool {
	return self&ATTR_FLAG_SPARSE != 0
}

func (self AttrFlags) DebugString() string {
	result := ""
	if self.IsCompressed() {
		result += "COMPRESSED "
	}
	if self.IsEncrypted() {
		result += "ENCRYPTED "
	}
	if self.IsSparse() {
		result += "SPARSE "
	}
	return result
}

// ResidentContent holds the payload of a resident attribute. Data is
// a subslice of the entry's private copy of the record, not of the
// caller's buffer.
type ResidentContent struct {
	IndexedFlag uint8
	Data        []byte
}

// NonResidentContent describes where a non resident attribute's data
// lives. A runlist decoding failure is recorded in RunlistError and
// leaves the sizes and VCN range valid.
type NonResidentContent struct {
	StartVCN        uint64
	EndVCN          uint64
	AllocatedSize   uint64
	ActualSize      uint64
	InitializedSize uint64
	CompressionUnit uint16
	Runs            []DataRun
	RunlistError    error
}

type Attribute struct {
	Type  AttrType
	Id    uint16
	Name  string
	Flags AttrFlags

	Resident    *ResidentContent
	NonResident *NonResidentContent

	// Typed view of a resident payload. Always at least *RawContent
	// when decoding was requested.
	Content      TypedContent
	ContentError error

	// Set on merged attributes whose fragment chain could not be
	// fully reassembled.
	Incomplete bool
}

func (self *Attribute) IsResident() bool {
	return self.Resident != nil
}

// DataSize is the logical size of the attribute's value in bytes.
func (self *Attribute) DataSize() uint64 {
	if self.Resident != nil {
		return uint64(len(self.Resident.Data))
	}
	if self.NonResident != nil {
		return self.NonResident.ActualSize
	}
	return 0
}

const (
	attribute_header_size    = 16
	resident_header_size     = 24
	non_resident_header_size = 64
)

// decodeAttribute unpacks a single attribute record at buffer[offset].
// It returns the attribute and the total record length so the caller
// can advance to the next one. The buffer must already be fixed up.
func decodeAttribute(buffer []byte, offset int, options Options) (*Attribute, int, error) {
	// The END marker is only the 4 byte type code. It usually sits
	// closer than a full header to the end of the used region, so the
	// type must be inspected before demanding 16 bytes of headroom.
	if offset+4 > len(buffer) {
		return nil, 0, OutOfBoundsError
	}

	record := buffer[offset:]

	attr_type := AttrType(binary.LittleEndian.Uint32(record[0:4]))
	if attr_type == ATTR_TYPE_END {
		return nil, 0, nil
	}

	if offset+attribute_header_size > len(buffer) {
		return nil, 0, OutOfBoundsError
	}

	length := int(binary.LittleEndian.Uint32(record[4:8]))
	if length < attribute_header_size || offset+length > len(buffer) {
		return nil, 0, OutOfBoundsError
	}
	record = record[:length]

	non_resident := record[8]
	name_length := int(record[9])
	name_offset := int(binary.LittleEndian.Uint16(record[10:12]))

	result := &Attribute{
		Type:  attr_type,
		Flags: AttrFlags(binary.LittleEndian.Uint16(record[12:14])),
		Id:    binary.LittleEndian.Uint16(record[14:16]),
	}

	if name_length > 0 {
		if name_offset+name_length*2 > length {
			return nil, 0, OutOfBoundsError
		}
		result.Name = ParseUTF16String(
			record[name_offset : name_offset+name_length*2])
	}

	if non_resident == 0 {
		if length < resident_header_size {
			return nil, 0, OutOfBoundsError
		}

		content_length := int(binary.LittleEndian.Uint32(record[16:20]))
		content_offset := int(binary.LittleEndian.Uint16(record[20:22]))

		if content_offset+content_length > length {
			return nil, 0, OutOfBoundsError
		}

		result.Resident = &ResidentContent{
			IndexedFlag: record[22],
			Data:        record[content_offset : content_offset+content_length],
		}

		if options.LoadContent {
			result.Content, result.ContentError = DecodeContent(
				attr_type, result.Resident.Data)
		}

	} else {
		if length < non_resident_header_size {
			return nil, 0, OutOfBoundsError
		}

		runlist_offset := int(binary.LittleEndian.Uint16(record[32:34]))

		nr := &NonResidentContent{
			StartVCN:        binary.LittleEndian.Uint64(record[16:24]),
			EndVCN:          binary.LittleEndian.Uint64(record[24:32]),
			CompressionUnit: binary.LittleEndian.Uint16(record[34:36]),
			AllocatedSize:   binary.LittleEndian.Uint64(record[40:48]),
			ActualSize:      binary.LittleEndian.Uint64(record[48:56]),
			InitializedSize: binary.LittleEndian.Uint64(record[56:64]),
		}
		result.NonResident = nr

		if options.LoadDataRuns {
			if runlist_offset < non_resident_header_size ||
				runlist_offset > length {
				nr.RunlistError = TruncatedRunlistError
				STATS.Inc_RUNLIST_ERRORS()
			} else {
				nr.Runs, nr.RunlistError = DecodeRuns(
					record[runlist_offset:])
				if nr.RunlistError != nil {
					STATS.Inc_RUNLIST_ERRORS()
				}
			}
		}
	}

	STATS.Inc_ATTRIBUTE()
	return result, length, nil
}

var utf16_decoder = unicode.UTF16(
	unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

func ParseUTF16String(buffer []byte) string {
	decoded, err := utf16_decoder.Bytes(buffer)
	if err != nil {
		return string(buffer)
	}
	return string(decoded)
}
