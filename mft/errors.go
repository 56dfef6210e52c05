package mft

import (
	"errors"
	"fmt"
)

var (
	// Fixup engine conditions. An empty entry is not corruption - it
	// is an allocated but never used slot and is silently skipped.
	EmptyEntryError    = errors.New("EmptyEntryError")
	SignatureError     = errors.New("SignatureError")
	FixupMismatchError = errors.New("FixupMismatchError")

	EntryTooShortError = errors.New("EntryTooShortError")
	ShortReadError     = errors.New("ShortReadError")
	InvalidHeaderError = errors.New("InvalidHeaderError")

	// An attribute whose declared length runs past the entry's used
	// size. Attributes decoded before the bad one remain valid.
	OutOfBoundsError = errors.New("OutOfBoundsError")

	// Runlist codec conditions. They make the owning attribute's non
	// resident content unusable but never affect sibling attributes.
	ZeroLengthRunError    = errors.New("ZeroLengthRunError")
	TruncatedRunlistError = errors.New("TruncatedRunlistError")

	// The content of an $ATTRIBUTE_LIST attribute ended mid-entry.
	TruncatedListError = errors.New("TruncatedListError")

	// The referenced MFT slot was reused by a different object - the
	// sequence numbers no longer match.
	StaleReferenceError = errors.New("StaleReferenceError")

	MissingEntryError = errors.New("MissingEntryError")

	// A typed content payload shorter than its fixed layout.
	TruncatedContentError = errors.New("TruncatedContentError")
)

// MissingFragmentError reports that one entry of an attribute list
// could not be resolved - the record it points to is deleted,
// overwritten or unreadable. The resolver keeps going and returns the
// resolved prefix explicitly marked incomplete.
type MissingFragmentError struct {
	Type AttrType
	Name string
	Base FileReference
	Err  error
}

func (self *MissingFragmentError) Error() string {
	return fmt.Sprintf(
		"missing fragment of %v attribute (entry %d seq %d): %v",
		self.Type.Name(), self.Base.Entry, self.Base.Sequence, self.Err)
}

func (self *MissingFragmentError) Unwrap() error {
	return self.Err
}

// VcnGapError reports that two adjacent fragments of one logical non
// resident attribute are not contiguous in VCN space.
type VcnGapError struct {
	Type        AttrType
	Name        string
	ExpectedVCN uint64
	StartVCN    uint64
}

func (self *VcnGapError) Error() string {
	return fmt.Sprintf(
		"VCN gap in %v attribute: expected fragment at VCN %d, got %d",
		self.Type.Name(), self.ExpectedVCN, self.StartVCN)
}

// VcnOverlapError reports two fragments claiming overlapping VCN
// ranges. Which fragment should win is undefined on disk, so the
// condition is surfaced instead of guessed at.
type VcnOverlapError struct {
	Type        AttrType
	Name        string
	ExpectedVCN uint64
	StartVCN    uint64
}

func (self *VcnOverlapError) Error() string {
	return fmt.Sprintf(
		"VCN overlap in %v attribute: fragment at VCN %d starts before %d",
		self.Type.Name(), self.StartVCN, self.ExpectedVCN)
}

// ContentError records the failure of a typed content decoder. The
// attribute stays present with its raw bytes - a bad payload never
// aborts the entry.
type ContentError struct {
	Type AttrType
	Err  error
}

func (self *ContentError) Error() string {
	return fmt.Sprintf("decoding %v content: %v", self.Type.Name(), self.Err)
}

func (self *ContentError) Unwrap() error {
	return self.Err
}
