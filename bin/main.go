package main

import (
	"os"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("gomft",
		"A tool for inspecting raw $MFT tables.")

	// Subcommand files register themselves here, keyed by the full
	// kingpin command path.
	commands = make(map[string]func())
)

func registerCommand(name string, handler func()) {
	commands[name] = handler
}

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	handler, pres := commands[command]
	if !pres {
		app.Fatalf("unknown command %q", command)
	}
	handler()
}
