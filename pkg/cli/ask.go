package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Run a single query through the pipeline",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.Args().First()
			if query == "" {
				return goerr.New("query is required")
			}

			d, err := cfg.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " processing query..."
			sp.Start()
			result, err := d.pipeline.Run(ctx, query)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "query failed")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n\n", result.Response)
			fmt.Fprintf(c.Root().Writer, "execution: %s\n", result.ExecutionID)
			return nil
		},
	}
}
