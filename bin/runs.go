package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	runs_command = app.Command(
		"runs", "Show the data runs of an entry.")

	runs_command_file_arg = runs_command.Arg(
		"file", "The $MFT file to process",
	).Required().File()

	runs_command_entry_arg = runs_command.Arg(
		"entry", "The entry number to show",
	).Required().Int64()

	runs_command_entry_size = runs_command.Flag(
		"entry_size", "The MFT record size (0 to autodetect).",
	).Int64()
)

func doRuns() {
	table := getTable(*runs_command_file_arg, *runs_command_entry_size)

	entry, err := table.GetEntry(*runs_command_entry_arg)
	kingpin.FatalIfError(err, "Can not decode entry")

	if entry == nil {
		fmt.Printf("Entry %v is empty.\n", *runs_command_entry_arg)
		return
	}

	writer := tablewriter.NewWriter(os.Stdout)
	writer.SetHeader([]string{"Attribute", "Name", "VCN", "LCN", "Length"})

	vcn := uint64(0)
	for _, attr := range entry.Attributes {
		if attr.NonResident == nil {
			continue
		}

		if attr.NonResident.RunlistError != nil {
			fmt.Printf("Attribute %v id %v: %v\n",
				attr.Type.Name(), attr.Id,
				attr.NonResident.RunlistError)
			continue
		}

		vcn = attr.NonResident.StartVCN
		for _, run := range attr.NonResident.Runs {
			lcn := fmt.Sprintf("%v", run.LCN)
			if run.Sparse {
				lcn = "sparse"
			}
			writer.Append([]string{
				attr.Type.Name(),
				attr.Name,
				fmt.Sprintf("%v", vcn),
				lcn,
				fmt.Sprintf("%v", run.Length),
			})
			vcn += run.Length
		}
	}
	writer.Render()
}

func init() {
	registerCommand(runs_command.FullCommand(), doRuns)
}
