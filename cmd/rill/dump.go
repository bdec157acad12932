package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/rpcpool/rill/store"
)

func newDumpCmd() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "print a store file's header and column summary",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "a", Usage: "list distinct column-A values"},
			&cli.BoolFlag{Name: "b", Usage: "list distinct column-B values"},
			&cli.Uint64Flag{Name: "nearest", Usage: "print the nearest column value >= key (column chosen by -a/-b, default -a)"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("dump: missing <path>", 1)
			}

			s, err := store.Open(path)
			if err != nil {
				return cli.Exit(err, 1)
			}
			defer s.Close()

			if err := s.Dump(os.Stdout); err != nil {
				return cli.Exit(err, 1)
			}

			info, err := os.Stat(path)
			if err == nil {
				fmt.Printf("size: %s\n", humanize.IBytes(uint64(info.Size())))
			}

			if c.Bool("a") {
				dumpValues(s, store.ColumnA)
			}
			if c.Bool("b") {
				dumpValues(s, store.ColumnB)
			}

			if c.IsSet("nearest") {
				col := store.ColumnA
				if c.Bool("b") && !c.Bool("a") {
					col = store.ColumnB
				}
				dumpNearest(s, col, c.Uint64("nearest"))
			}
			return nil
		},
	}
}

func dumpNearest(s *store.Store, col store.Column, key uint64) {
	value, exact, ok := s.Nearest(col, key)
	if !ok {
		fmt.Printf("nearest: no value >= %d\n", key)
		return
	}
	fmt.Printf("nearest: %d (exact=%v)\n", value, exact)
}

func dumpValues(s *store.Store, col store.Column) {
	n := s.ValueCount(col)
	vals := make([]uint64, n)
	s.Values(col, vals)
	for _, v := range vals {
		fmt.Println(v)
	}
}
