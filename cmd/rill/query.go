package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/rill/internal/rowset"
	"github.com/rpcpool/rill/queryfacade"
	"github.com/rpcpool/rill/store"
)

func newQueryCmd() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "look up every row matching a key across all store files in a directory",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "a", Usage: "look up by column-A value"},
			&cli.Uint64Flag{Name: "b", Usage: "look up by column-B value"},
		},
		Action: func(c *cli.Context) error {
			dir := c.Args().First()
			if dir == "" {
				return cli.Exit("query: missing <dir>", 1)
			}

			var col store.Column
			var key uint64
			switch {
			case c.IsSet("a"):
				col, key = store.ColumnA, c.Uint64("a")
			case c.IsSet("b"):
				col, key = store.ColumnB, c.Uint64("b")
			default:
				return cli.Exit("query: one of -a or -b is required", 1)
			}

			f, err := queryfacade.Open(dir)
			if err != nil {
				return cli.Exit(err, 1)
			}
			defer f.Close()

			out := rowset.New(0)
			if err := f.Query(col, key, out); err != nil {
				return cli.Exit(err, 1)
			}

			for _, r := range out.Rows() {
				fmt.Println(strconv.FormatUint(r.A, 10) + " " + strconv.FormatUint(r.B, 10))
			}
			return nil
		},
	}
}
