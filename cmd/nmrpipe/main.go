// Command nmrpipe replays and edits persisted NMR filter chains.
//
// Usage:
//
//	nmrpipe [--config file] <command> [flags]
//
// Examples:
//
//	nmrpipe kinds
//	nmrpipe replay -d spectrum.json --verify
//	nmrpipe apply -d spectrum.json -k shiftX -o '{"shift":2}' -w shifted.json
//	nmrpipe convert -d spectrum.json --to yaml
//	nmrpipe store put -d spectrum.json
//	nmrpipe store list
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nmrpipe:", err)
		os.Exit(1)
	}
}
