package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/rill/store"
)

func newMergeCmd() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "merge a set of store files into one output file",
		ArgsUsage: "<input.rill>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "o", Usage: "output path", Required: true},
			&cli.Uint64Flag{Name: "t", Usage: "output timestamp", Required: true},
			&cli.Uint64Flag{Name: "q", Usage: "output quantum"},
		},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return cli.Exit("merge: at least one input is required", 1)
			}

			stores := make([]*store.Store, 0, len(paths))
			for _, p := range paths {
				s, err := store.Open(p)
				if err != nil {
					for _, opened := range stores {
						opened.Close()
					}
					return cli.Exit(err, 1)
				}
				stores = append(stores, s)
			}
			defer func() {
				for _, s := range stores {
					s.Close()
				}
			}()

			out, err := store.Merge(stores, c.String("o"), c.Uint64("t"), c.Uint64("q"))
			if err != nil {
				return cli.Exit(err, 1)
			}
			defer out.Close()

			fmt.Printf("wrote %s: %d rows\n", out.Path(), out.Rows())
			return nil
		},
	}
}
