package main

import (
	"os"

	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/jldantas/go-mft/mft"
)

func getTable(file *os.File, entry_size int64) *mft.MFTTable {
	st, err := file.Stat()
	kingpin.FatalIfError(err, "Can not stat MFT file")

	reader, err := mft.NewPagedReader(file, 0x10000, 100)
	kingpin.FatalIfError(err, "Can not open MFT file")

	options := mft.GetDefaultOptions()
	options.EntrySize = entry_size

	table, err := mft.NewMFTTable(reader, st.Size(), options)
	kingpin.FatalIfError(err, "Can not parse MFT file")

	return table
}
