package mft

import (
	"strings"
	"time"

	"github.com/Velocidex/ordereddict"
)

// EntrySummary flattens the interesting parts of a decoded record
// into one row, the shape most triage tools want. The 0x10 and 0x30
// suffixes tell $STANDARD_INFORMATION times apart from $FILE_NAME
// times; a mismatch between the two is a classic timestomping tell.
type EntrySummary struct {
	EntryNumber    int64
	SequenceNumber uint16
	InUse          bool
	IsDir          bool
	IsBaad         bool
	HardLinkCount  uint16

	FileName          string
	FileNames         []string
	ParentEntryNumber uint64
	FileSize          uint64
	ADSNames          []string

	Created0x10     time.Time
	Modified0x10    time.Time
	MFTModified0x10 time.Time
	Accessed0x10    time.Time

	Created0x30     time.Time
	Modified0x30    time.Time
	MFTModified0x30 time.Time
	Accessed0x30    time.Time

	Incomplete bool
	Problems   []string
}

// Summarize builds an EntrySummary from a decoded (and, when
// applicable, resolved) entry.
func Summarize(entry *MFTEntry) *EntrySummary {
	result := &EntrySummary{
		EntryNumber:    entry.EntryNumber,
		SequenceNumber: entry.Header.SequenceNumber,
		InUse:          entry.Header.Flags.InUse(),
		IsDir:          entry.Header.Flags.IsDirectory(),
		IsBaad:         entry.Header.IsBaad,
		HardLinkCount:  entry.Header.HardLinkCount,
		Incomplete:     entry.Incomplete,
	}

	for _, problem := range entry.Problems {
		result.Problems = append(result.Problems, problem.Error())
	}

	if si_attr, pres := entry.FindAttribute(
		ATTR_TYPE_STANDARD_INFORMATION, -1); pres {
		if si, ok := si_attr.Content.(*StandardInformation); ok {
			result.Created0x10 = si.Times.Created
			result.Modified0x10 = si.Times.Modified
			result.MFTModified0x10 = si.Times.MFTModified
			result.Accessed0x10 = si.Times.Accessed
		}
	}

	// Prefer the Win32 name over the DOS 8.3 alias when a file has
	// both.
	var best *FileName
	for _, fn := range entry.FileNames() {
		result.FileNames = append(result.FileNames, fn.Name)
		if best == nil || best.NameType == FILE_NAME_DOS {
			best = fn
		}
	}

	if best != nil {
		result.FileName = best.Name
		result.ParentEntryNumber = best.Parent.Entry
		result.Created0x30 = best.Times.Created
		result.Modified0x30 = best.Times.Modified
		result.MFTModified0x30 = best.Times.MFTModified
		result.Accessed0x30 = best.Times.Accessed
	}

	// The unnamed $DATA attribute is the file content; named ones
	// are alternate data streams.
	for _, attr := range entry.Attributes {
		if attr.Type != ATTR_TYPE_DATA {
			continue
		}
		if attr.Name == "" {
			result.FileSize = attr.DataSize()
		} else {
			result.ADSNames = append(result.ADSNames, attr.Name)
		}
	}

	return result
}

// Describe renders the summary as an ordered dict so serialized
// output keeps a stable column order.
func (self *EntrySummary) Describe() *ordereddict.Dict {
	result := ordereddict.NewDict().
		Set("EntryNumber", self.EntryNumber).
		Set("SequenceNumber", self.SequenceNumber).
		Set("InUse", self.InUse).
		Set("IsDir", self.IsDir).
		Set("HardLinkCount", self.HardLinkCount).
		Set("FileName", self.FileName).
		Set("FileNames", strings.Join(self.FileNames, ", ")).
		Set("ParentEntryNumber", self.ParentEntryNumber).
		Set("FileSize", self.FileSize).
		Set("Created0x10", self.Created0x10).
		Set("Modified0x10", self.Modified0x10).
		Set("MFTModified0x10", self.MFTModified0x10).
		Set("Accessed0x10", self.Accessed0x10).
		Set("Created0x30", self.Created0x30).
		Set("Modified0x30", self.Modified0x30).
		Set("MFTModified0x30", self.MFTModified0x30).
		Set("Accessed0x30", self.Accessed0x30)

	if len(self.ADSNames) > 0 {
		result.Set("ADSNames", self.ADSNames)
	}
	if self.IsBaad {
		result.Set("IsBaad", true)
	}
	if self.Incomplete {
		result.Set("Incomplete", true)
	}
	if len(self.Problems) > 0 {
		result.Set("Problems", self.Problems)
	}

	return result
}
