package mft

import (
	"encoding/binary"
)

// DataRun is one extent of a non resident attribute. Length is in
// clusters. For a sparse run LCN is meaningless and Sparse is set.
type DataRun struct {
	Length uint64
	LCN    int64
	Sparse bool
}

// DecodeRuns unpacks a runlist into its runs. Each run starts with a
// header byte: the low nibble is the byte width of the length field,
// the high nibble the byte width of the signed offset field. A zero
// offset width means a sparse run. A zero header byte terminates the
// list.
//
// Offsets are deltas from the previous run's LCN, not absolute, so
// the decoder carries a running LCN. Sparse runs do not move it.
func DecodeRuns(buffer []byte) ([]DataRun, error) {
	result := []DataRun{}

	current_lcn := int64(0)
	offset := 0

	for {
		if offset >= len(buffer) {
			return nil, TruncatedRunlistError
		}

		header := buffer[offset]
		if header == 0 {
			return result, nil
		}
		offset++

		length_width := int(header & 0x0F)
		offset_width := int(header >> 4)

		if length_width == 0 || length_width > 8 || offset_width > 8 {
			return nil, ZeroLengthRunError
		}

		if offset+length_width+offset_width > len(buffer) {
			return nil, TruncatedRunlistError
		}

		// Pad out to 8 bytes so we can just use binary.LittleEndian.
		length_bytes := make([]byte, 8)
		copy(length_bytes, buffer[offset:offset+length_width])
		run_length := binary.LittleEndian.Uint64(length_bytes)
		offset += length_width

		if run_length == 0 {
			return nil, ZeroLengthRunError
		}

		if offset_width == 0 {
			result = append(result, DataRun{
				Length: run_length,
				Sparse: true,
			})
			continue
		}

		offset_bytes := make([]byte, 8)
		copy(offset_bytes, buffer[offset:offset+offset_width])

		// Sign extend from the top byte of the encoded field.
		if offset_bytes[offset_width-1]&0x80 != 0 {
			for i := offset_width; i < 8; i++ {
				offset_bytes[i] = 0xFF
			}
		}
		relative_offset := int64(binary.LittleEndian.Uint64(offset_bytes))
		offset += offset_width

		current_lcn += relative_offset
		result = append(result, DataRun{
			Length: run_length,
			LCN:    current_lcn,
		})
	}
}

// EncodeRuns packs runs back into runlist bytes using the minimal
// field widths, terminated by a zero header byte. DecodeRuns of the
// result yields the same runs.
func EncodeRuns(runs []DataRun) ([]byte, error) {
	result := []byte{}

	current_lcn := int64(0)

	for _, run := range runs {
		if run.Length == 0 {
			return nil, ZeroLengthRunError
		}

		length_width := unsignedWidth(run.Length)

		if run.Sparse {
			result = append(result, byte(length_width))
			result = appendLE(result, run.Length, length_width)
			continue
		}

		relative_offset := run.LCN - current_lcn
		offset_width := signedWidth(relative_offset)

		result = append(result, byte(offset_width<<4)|byte(length_width))
		result = appendLE(result, run.Length, length_width)
		result = appendLE(result, uint64(relative_offset), offset_width)

		current_lcn = run.LCN
	}

	return append(result, 0), nil
}

func unsignedWidth(v uint64) int {
	width := 1
	for v > 0xFF {
		v >>= 8
		width++
	}
	return width
}

// signedWidth is the smallest byte count whose top bit still carries
// the sign of v through the decoder's sign extension.
func signedWidth(v int64) int {
	for width := 1; width < 8; width++ {
		shift := uint(width * 8)
		min := -(int64(1) << (shift - 1))
		max := (int64(1) << (shift - 1)) - 1
		if v >= min && v <= max {
			return width
		}
	}
	return 8
}

func appendLE(buffer []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		buffer = append(buffer, byte(v>>(8*uint(i))))
	}
	return buffer
}
