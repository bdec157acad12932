// Command rill is an informational CLI for inspecting, querying, merging,
// and rotating rill store directories. It is not load-bearing on the
// library's semantics; every command is a thin wrapper over the store,
// rotation, and queryfacade packages.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var gitCommitSHA = ""

func main() {
	app := &cli.App{
		Name:        "rill",
		Version:     gitCommitSHA,
		Usage:       "inspect, query, merge, and rotate rill store directories",
		Commands: []*cli.Command{
			newDumpCmd(),
			newQueryCmd(),
			newMergeCmd(),
			newRotateCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		klog.Errorf("rill: %s", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
