package mft

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
)

var MFT_DEBUG *bool

func Debug(arg interface{}) {
	spew.Dump(arg)
}

type Debugger interface {
	DebugString() string
}

func DebugPrint(fmt_str string, v ...interface{}) {
	if MFT_DEBUG == nil {
		// os.Environ() is expensive in Go so we cache the lookup.
		value := false
		for _, x := range os.Environ() {
			if x == "MFT_DEBUG=1" || x == "MFT_DEBUG=true" {
				value = true
				break
			}
		}
		MFT_DEBUG = &value
	}

	if *MFT_DEBUG {
		fmt.Printf(fmt_str, v...)
	}
}
