package main

import (
	"encoding/json"
	"fmt"

	"github.com/Velocidex/ordereddict"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/jldantas/go-mft/mft"
)

var (
	boot_command = app.Command(
		"boot", "Decode the boot sector of an NTFS image.")

	boot_command_image_arg = boot_command.Arg(
		"image", "An NTFS volume image",
	).Required().File()

	boot_command_offset = boot_command.Flag(
		"offset", "The volume offset in the image.",
	).Int64()
)

func doBoot() {
	buffer := make([]byte, 512)
	_, err := (*boot_command_image_arg).ReadAt(buffer, *boot_command_offset)
	kingpin.FatalIfError(err, "Can not read boot sector")

	boot, err := mft.DecodeBootSector(buffer)
	kingpin.FatalIfError(err, "Can not decode boot sector")
	kingpin.FatalIfError(boot.Validate(), "Not an NTFS boot sector")

	serialized, err := json.MarshalIndent(ordereddict.NewDict().
		Set("OemId", boot.OemId).
		Set("BytesPerSector", boot.BytesPerSector).
		Set("SectorsPerCluster", boot.SectorsPerCluster).
		Set("ClusterSize", boot.ClusterSize()).
		Set("RecordSize", boot.RecordSize()).
		Set("TotalSectors", boot.TotalSectors).
		Set("MFTCluster", boot.MFTCluster).
		Set("MFTOffset", boot.MFTOffset()).
		Set("MFTMirrorCluster", boot.MFTMirrorCluster).
		Set("SerialNumber", fmt.Sprintf("%016X", boot.SerialNumber)),
		" ", " ")
	kingpin.FatalIfError(err, "Marshal")

	fmt.Println(string(serialized))
}

func init() {
	registerCommand(boot_command.FullCommand(), doBoot)
}
