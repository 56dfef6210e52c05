package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Velocidex/ordereddict"
	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	stat_command = app.Command(
		"stat", "Show one MFT entry in detail.")

	stat_command_file_arg = stat_command.Arg(
		"file", "The $MFT file to process",
	).Required().File()

	stat_command_entry_arg = stat_command.Arg(
		"entry", "The entry number to show",
	).Required().Int64()

	stat_command_entry_size = stat_command.Flag(
		"entry_size", "The MFT record size (0 to autodetect).",
	).Int64()
)

func doStat() {
	table := getTable(*stat_command_file_arg, *stat_command_entry_size)

	entry, err := table.GetEntry(*stat_command_entry_arg)
	kingpin.FatalIfError(err, "Can not decode entry")

	if entry == nil {
		fmt.Printf("Entry %v is empty.\n", *stat_command_entry_arg)
		return
	}

	header := ordereddict.NewDict().
		Set("EntryNumber", entry.EntryNumber).
		Set("SequenceNumber", entry.Header.SequenceNumber).
		Set("HardLinkCount", entry.Header.HardLinkCount).
		Set("InUse", entry.Header.Flags.InUse()).
		Set("IsDir", entry.Header.Flags.IsDirectory()).
		Set("LogFileSequence", entry.Header.LogFileSequence).
		Set("UsedSize", entry.Header.UsedSize).
		Set("AllocatedSize", entry.Header.AllocatedSize)

	if entry.Header.IsExtension() {
		header.Set("BaseRecord", entry.Header.BaseRecord.Entry)
	}
	if entry.Incomplete {
		header.Set("Incomplete", true)
	}

	serialized, err := json.MarshalIndent(header, " ", " ")
	kingpin.FatalIfError(err, "Marshal")
	fmt.Println(string(serialized))

	writer := tablewriter.NewWriter(os.Stdout)
	writer.SetHeader([]string{"Type", "Id", "Name", "Resident", "Size"})

	for _, attr := range entry.Attributes {
		writer.Append([]string{
			attr.Type.Name(),
			fmt.Sprintf("%v", attr.Id),
			attr.Name,
			fmt.Sprintf("%v", attr.IsResident()),
			fmt.Sprintf("%v", attr.DataSize()),
		})
	}
	writer.Render()

	for _, problem := range entry.Problems {
		fmt.Printf("Problem: %v\n", problem)
	}
}

func init() {
	registerCommand(stat_command.FullCommand(), doStat)
}
