package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rpcpool/rill/rotation"
)

func newRotateCmd() *cli.Command {
	return &cli.Command{
		Name:      "rotate",
		Usage:     "run one rotation pass over a store directory at the current wall-clock time",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML rotation config"},
			&cli.Uint64Flag{Name: "t", Usage: "override wall-clock time (unix seconds)"},
		},
		Action: func(c *cli.Context) error {
			dir := c.Args().First()
			if dir == "" {
				return cli.Exit("rotate: missing <dir>", 1)
			}

			cfg := rotation.DefaultConfig()
			if path := c.String("config"); path != "" {
				loaded, err := rotation.LoadConfig(path)
				if err != nil {
					return cli.Exit(err, 1)
				}
				cfg = loaded
			}

			now := c.Uint64("t")
			if now == 0 {
				now = uint64(time.Now().Unix())
			}

			if err := rotation.Run(dir, cfg, now); err != nil {
				return cli.Exit(err, 1)
			}

			fmt.Printf("rotated %s at t=%d\n", dir, now)
			return nil
		},
	}
}
