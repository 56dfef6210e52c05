package mft

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	entry, err := DecodeEntry(simpleFileRecord(), 5, 512)
	assert.NoError(t, err)

	summary := Summarize(entry)
	assert.Equal(t, int64(5), summary.EntryNumber)
	assert.True(t, summary.InUse)
	assert.Equal(t, "a.txt", summary.FileName)
	assert.Equal(t, uint64(5), summary.ParentEntryNumber)
	assert.Equal(t, uint64(4), summary.FileSize)
	assert.Equal(t, summary.Created0x10, summary.Created0x30)
}

func TestSummarizePrefersWin32Name(t *testing.T) {
	parent := uint64(5) | uint64(2)<<48
	record := buildRecord(5, 2, uint16(ENTRY_IN_USE), 0,
		residentAttr(ATTR_TYPE_FILE_NAME, 2, "",
			fileNameContent(parent, unixEpochFiletime, 0, "LONGFI~1.TXT",
				FILE_NAME_DOS)),
		residentAttr(ATTR_TYPE_FILE_NAME, 3, "",
			fileNameContent(parent, unixEpochFiletime, 0,
				"long file name.txt", FILE_NAME_WIN32)),
	)

	entry, err := DecodeEntry(record, 5, 512)
	assert.NoError(t, err)

	summary := Summarize(entry)
	assert.Equal(t, "long file name.txt", summary.FileName)
	assert.Equal(t, 2, len(summary.FileNames))
}

func TestSummarizeADSNames(t *testing.T) {
	record := buildRecord(5, 2, uint16(ENTRY_IN_USE), 0,
		residentAttr(ATTR_TYPE_DATA, 1, "", []byte("abcd")),
		residentAttr(ATTR_TYPE_DATA, 2, "Zone.Identifier",
			[]byte("[ZoneTransfer]")),
	)

	entry, err := DecodeEntry(record, 5, 512)
	assert.NoError(t, err)

	summary := Summarize(entry)
	assert.Equal(t, uint64(4), summary.FileSize)
	assert.Equal(t, []string{"Zone.Identifier"}, summary.ADSNames)
}

func TestSummarizeGolden(t *testing.T) {
	entry, err := DecodeEntry(simpleFileRecord(), 5, 512)
	assert.NoError(t, err)

	serialized, err := json.MarshalIndent(Summarize(entry).Describe(), " ", " ")
	assert.NoError(t, err)

	goldie.Assert(t, "TestSummarizeGolden", serialized)
}
