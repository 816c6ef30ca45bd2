// Command vcfaid bundles the four population-genetic variant tools
// (annotate, gq-mask, subset, replicate) behind a single entry point. Each
// subcommand below drives the same internal/* packages the standalone
// binaries in cmd/annotate, cmd/gq-mask, cmd/subset, and cmd/replicate use.
package main

import (
	"fmt"
	"os"
)

const version string = "0.1.0"

// commands maps each subcommand name to its entry point and one-line
// description. Add a new tool by adding an entry here and its name to
// commandOrder.
var commands = map[string]struct {
	run   func(args []string)
	blurb string
}{
	"annotate":  {runAnnotate, "recompute allele/genotype frequencies, F, rsq, HWE p-value, and GQ"},
	"gq-mask":   {runGQMask, "set genotypes below a GQ threshold to missing"},
	"subset":    {runSubset, "filter a variant stream by id/score table or by coordinate pairs"},
	"replicate": {runReplicate, "compare control/tumor sample pairs for rare-variant replication"},
}

// commandOrder fixes the order commands print in, independent of Go's
// randomized map iteration.
var commandOrder = []string{"annotate", "gq-mask", "subset", "replicate"}

func usage() {
	fmt.Printf("vcfaid %s - population-genetic variant annotation toolkit\n\n", version)
	fmt.Println("Usage: vcfaid <command> [options]")
	fmt.Println("\nCommands:")
	for _, name := range commandOrder {
		fmt.Printf("  %-10s %s\n", name, commands[name].blurb)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		usage()
		if os.Args[1] != "-h" && os.Args[1] != "--help" {
			errExit(fmt.Sprintf("ERROR: unknown command %q", os.Args[1]))
		}
		return
	}
	cmd.run(os.Args[2:])
}

func errExit(err string) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
