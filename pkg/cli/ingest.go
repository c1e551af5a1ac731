package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/usecase/ingest"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg  config
		dir  string
		seed bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Directory of documents to ingest",
			Sources:     cli.EnvVars("SARTHI_DATA_DIR"),
			Destination: &dir,
		},
		&cli.BoolFlag{
			Name:        "seed",
			Usage:       "Load the built-in sample documents",
			Destination: &seed,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Load documents into the vector index",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if dir == "" && !seed {
				return goerr.New("either --dir or --seed is required")
			}

			d, err := cfg.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			loader := ingest.New(d.embedder, d.index, d.repo)

			if seed {
				n, err := loader.Seed(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to seed documents")
				}
				fmt.Fprintf(c.Root().Writer, "seeded %d chunks\n", n)
			}

			if dir != "" {
				if err := loader.LoadDir(ctx, dir); err != nil {
					return goerr.Wrap(err, "failed to load directory", goerr.V("dir", dir))
				}
				fmt.Fprintf(c.Root().Writer, "loaded documents from %s\n", dir)
			}

			return nil
		},
	}
}
