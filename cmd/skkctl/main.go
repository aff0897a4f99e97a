// skkctl is the command line companion for the skkime conversion core:
// dictionary import and inspection, user dictionary editing, and a key
// replay driver for the engine.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "skkctl:", err)
		os.Exit(1)
	}
}
