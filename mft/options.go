package mft

// Options control how much work the decoder does per entry. The zero
// value decodes headers only; use GetDefaultOptions() for the full
// treatment.
type Options struct {
	// Size of one MFT record and of a disk sector. Zero means the
	// usual 1024/512.
	EntrySize  int64
	SectorSize int64

	// Verify and undo the update sequence protection. Only turn this
	// off for buffers that were already fixed up elsewhere.
	ApplyFixups bool

	// Accept records whose signature is neither FILE nor BAAD.
	// Carved records sometimes lose their header magic.
	IgnoreSignatureCheck bool

	// Decode runlists of non resident attributes.
	LoadDataRuns bool

	// Decode resident payloads into typed content structs.
	LoadContent bool

	// Follow $ATTRIBUTE_LIST entries into extension records when a
	// lookup source is available.
	ResolveAttributeLists bool

	// When non empty, only attributes of these types are decoded.
	LoadAttributes []AttrType

	// Number of decoded entries the table keeps around.
	MaxCachedEntries int
}

func GetDefaultOptions() Options {
	return Options{
		EntrySize:             DefaultEntrySize,
		SectorSize:            DefaultSectorSize,
		ApplyFixups:           true,
		LoadDataRuns:          true,
		LoadContent:           true,
		ResolveAttributeLists: true,
		MaxCachedEntries:      512,
	}
}

func (self Options) wantType(attr_type AttrType) bool {
	if len(self.LoadAttributes) == 0 {
		return true
	}
	for _, t := range self.LoadAttributes {
		if t == attr_type {
			return true
		}
	}
	return false
}
