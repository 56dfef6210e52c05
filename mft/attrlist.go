package mft

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const attribute_list_entry_size = 26

// AttributeListEntry is one row of an $ATTRIBUTE_LIST payload. Each
// row names an attribute living in this or another record, and for
// fragmented non resident attributes the VCN its fragment starts at.
type AttributeListEntry struct {
	Type        AttrType
	EntryLength uint16
	NameLength  uint8
	NameOffset  uint8
	StartVCN    uint64
	Base        FileReference
	Id          uint16
	Name        string
}

func DecodeAttributeListEntries(data []byte) ([]*AttributeListEntry, error) {
	result := []*AttributeListEntry{}

	offset := 0
	for offset < len(data) {
		if offset+attribute_list_entry_size > len(data) {
			return nil, TruncatedListError
		}

		row := data[offset:]
		entry := &AttributeListEntry{
			Type:        AttrType(binary.LittleEndian.Uint32(row[0:4])),
			EntryLength: binary.LittleEndian.Uint16(row[4:6]),
			NameLength:  row[6],
			NameOffset:  row[7],
			StartVCN:    binary.LittleEndian.Uint64(row[8:16]),
			Base:        NewFileReference(binary.LittleEndian.Uint64(row[16:24])),
			Id:          binary.LittleEndian.Uint16(row[24:26]),
		}

		// entry_length includes the header and the name and is what
		// we advance by, so a short one would loop forever.
		if int(entry.EntryLength) < attribute_list_entry_size ||
			offset+int(entry.EntryLength) > len(data) {
			return nil, TruncatedListError
		}

		if entry.NameLength > 0 {
			name_end := int(entry.NameOffset) + int(entry.NameLength)*2
			if name_end > int(entry.EntryLength) {
				return nil, TruncatedListError
			}
			entry.Name = ParseUTF16String(
				row[entry.NameOffset:name_end])
		}

		result = append(result, entry)
		offset += int(entry.EntryLength)
	}

	return result, nil
}

// EntryLookup fetches the MFT record a FileReference points to. It
// must verify the reference's sequence number against the record and
// return StaleReferenceError on mismatch.
type EntryLookup interface {
	LookupEntry(ref FileReference) (*MFTEntry, error)
}

// ResolveAttributeList rebuilds the complete logical attribute set of
// a base record whose attributes overflowed into extension records.
//
// The input entry is not modified. The result is a new entry holding
// resident attributes as found, and one merged attribute per
// fragmented non resident attribute. Rows that cannot be resolved are
// recorded as problems and the result is marked Incomplete, never
// silently dropped.
func ResolveAttributeList(base *MFTEntry, lookup EntryLookup) (*MFTEntry, error) {
	list_attr, pres := base.FindAttribute(ATTR_TYPE_ATTRIBUTE_LIST, -1)
	if !pres {
		return base, nil
	}

	STATS.Inc_ATTRIBUTE_LIST()

	result := &MFTEntry{
		Header:      base.Header,
		EntryNumber: base.EntryNumber,
		Incomplete:  base.Incomplete,
	}
	result.Problems = append(result.Problems, base.Problems...)

	var rows []*AttributeListEntry

	switch {
	case list_attr.IsResident():
		if content, ok := list_attr.Content.(*AttributeListContent); ok {
			rows = content.Entries
		} else {
			var err error
			rows, err = DecodeAttributeListEntries(list_attr.Resident.Data)
			if err != nil {
				result.Incomplete = true
				result.Problems = append(result.Problems, err)
			}
		}

	default:
		// A non resident list needs cluster reads we do not have
		// here. Fall back to the base record's own attributes.
		result.Incomplete = true
		result.Problems = append(result.Problems, fmt.Errorf(
			"non resident $ATTRIBUTE_LIST in entry %v: %w",
			base.EntryNumber, TruncatedListError))
	}

	if len(rows) == 0 {
		result.Attributes = base.Attributes
		return result, nil
	}

	sorted := make([]*AttributeListEntry, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Type != sorted[j].Type {
			return sorted[i].Type < sorted[j].Type
		}
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		if sorted[i].StartVCN != sorted[j].StartVCN {
			return sorted[i].StartVCN < sorted[j].StartVCN
		}
		return sorted[i].Id < sorted[j].Id
	})

	// Group consecutive rows that form one logical attribute: same
	// type and name, with continuation rows at StartVCN > 0. A row at
	// StartVCN 0 always opens a new group (several $FILE_NAME rows
	// share type and VCN 0 but are distinct attributes).
	var groups [][]*AttributeListEntry
	for _, row := range sorted {
		n := len(groups)
		if n > 0 {
			last := groups[n-1]
			first := last[0]
			if row.Type == first.Type && row.Name == first.Name &&
				row.StartVCN > 0 {
				groups[n-1] = append(last, row)
				continue
			}
		}
		groups = append(groups, []*AttributeListEntry{row})
	}

	for _, group := range groups {
		fragments := []*Attribute{}
		for _, row := range group {
			attr, err := fetchFragment(base, row, lookup)
			if err != nil {
				result.Incomplete = true
				result.Problems = append(result.Problems,
					&MissingFragmentError{
						Type: row.Type,
						Name: row.Name,
						Base: row.Base,
						Err:  err,
					})
				continue
			}
			fragments = append(fragments, attr)
		}

		if len(fragments) == 0 {
			continue
		}

		merged, err := mergeFragments(group[0].Type, group[0].Name, fragments)
		if err != nil {
			result.Incomplete = true
			result.Problems = append(result.Problems, err)
		}
		if merged != nil {
			if len(fragments) < len(group) && !merged.Incomplete {
				// Never mark the caller's attribute object.
				clone := *merged
				clone.Incomplete = true
				merged = &clone
			}
			result.Attributes = append(result.Attributes, merged)
			STATS.Inc_RESOLVED_FRAGMENTS()
		}
	}

	return result, nil
}

// fetchFragment locates the attribute a list row names. Rows pointing
// at the base record itself are served locally. Fetched extension
// records are searched directly and never have their own attribute
// lists expanded, otherwise a crafted image with an $ATTRIBUTE_LIST
// pointing back at itself would recurse forever.
func fetchFragment(base *MFTEntry, row *AttributeListEntry,
	lookup EntryLookup) (*Attribute, error) {

	var holder *MFTEntry

	if int64(row.Base.Entry) == base.EntryNumber {
		holder = base
	} else {
		if lookup == nil {
			return nil, MissingEntryError
		}
		entry, err := lookup.LookupEntry(row.Base)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, MissingEntryError
		}
		holder = entry
	}

	for _, attr := range holder.Attributes {
		if attr.Type == row.Type &&
			attr.Id == row.Id &&
			attr.Name == row.Name {
			return attr, nil
		}
	}

	return nil, MissingEntryError
}

// mergeFragments folds the fragments of one logical non resident
// attribute into a single attribute with a combined runlist. The
// fragments must already be sorted by StartVCN. On a gap or overlap
// the merged prefix is returned alongside the error, marked
// incomplete.
func mergeFragments(attr_type AttrType, name string,
	fragments []*Attribute) (*Attribute, error) {

	if len(fragments) == 1 {
		return fragments[0], nil
	}

	first := fragments[0]
	if first.NonResident == nil {
		// Resident attributes never fragment. Multiple resident
		// fragments under one name would be a corrupt list; just
		// return the first one.
		return first, nil
	}

	merged := &Attribute{
		Type:  attr_type,
		Id:    first.Id,
		Name:  name,
		Flags: first.Flags,
		NonResident: &NonResidentContent{
			StartVCN:        first.NonResident.StartVCN,
			EndVCN:          first.NonResident.EndVCN,
			CompressionUnit: first.NonResident.CompressionUnit,
		},
	}
	merged.NonResident.Runs = append(
		merged.NonResident.Runs, first.NonResident.Runs...)

	// The sizes are only valid on the first fragment (StartVCN 0);
	// continuation fragments carry zeros there.
	if first.NonResident.StartVCN == 0 {
		merged.NonResident.AllocatedSize = first.NonResident.AllocatedSize
		merged.NonResident.ActualSize = first.NonResident.ActualSize
		merged.NonResident.InitializedSize = first.NonResident.InitializedSize
	}

	for _, frag := range fragments[1:] {
		if frag.NonResident == nil {
			continue
		}

		expected := merged.NonResident.EndVCN + 1

		if frag.NonResident.StartVCN < expected {
			merged.Incomplete = true
			return merged, &VcnOverlapError{
				Type:        attr_type,
				Name:        name,
				ExpectedVCN: expected,
				StartVCN:    frag.NonResident.StartVCN,
			}
		}

		if frag.NonResident.StartVCN > expected {
			merged.Incomplete = true
			return merged, &VcnGapError{
				Type:        attr_type,
				Name:        name,
				ExpectedVCN: expected,
				StartVCN:    frag.NonResident.StartVCN,
			}
		}

		merged.NonResident.Runs = append(
			merged.NonResident.Runs, frag.NonResident.Runs...)
		merged.NonResident.EndVCN = frag.NonResident.EndVCN
	}

	return merged, nil
}
