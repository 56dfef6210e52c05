package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/jldantas/go-mft/mft"
)

var (
	mft_command = app.Command(
		"mft", "Process a raw $MFT file.")

	mft_command_file_arg = mft_command.Arg(
		"file", "The $MFT file to process",
	).Required().File()

	mft_command_entry_size = mft_command.Flag(
		"entry_size", "The MFT record size (0 to autodetect).",
	).Int64()

	mft_command_filename_filter = mft_command.Flag(
		"filename_filter", "A regex to filter on filename",
	).Default(".").String()

	mft_command_as_table = mft_command.Flag(
		"table", "Render as a table instead of JSON.",
	).Bool()
)

func doMFT() {
	filename_filter := regexp.MustCompile(*mft_command_filename_filter)
	table := getTable(*mft_command_file_arg, *mft_command_entry_size)

	var writer *tablewriter.Table
	if *mft_command_as_table {
		writer = tablewriter.NewWriter(os.Stdout)
		writer.SetHeader([]string{
			"Entry", "InUse", "Dir", "Name", "Size", "Created"})
		defer writer.Render()
	}

	for result := range table.Entries(context.Background()) {
		if result.Entry == nil {
			continue
		}

		summary := mft.Summarize(result.Entry)
		if len(filename_filter.FindStringIndex(summary.FileName)) == 0 {
			continue
		}

		if writer != nil {
			writer.Append([]string{
				fmt.Sprintf("%v", summary.EntryNumber),
				fmt.Sprintf("%v", summary.InUse),
				fmt.Sprintf("%v", summary.IsDir),
				summary.FileName,
				fmt.Sprintf("%v", summary.FileSize),
				summary.Created0x10.String(),
			})
			continue
		}

		serialized, err := json.MarshalIndent(summary.Describe(), " ", " ")
		kingpin.FatalIfError(err, "Marshal")

		fmt.Println(string(serialized))
	}
}

func init() {
	registerCommand(mft_command.FullCommand(), doMFT)
}
