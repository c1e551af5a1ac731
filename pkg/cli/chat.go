package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive query session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			d, err := cfg.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat session started. Type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				query := strings.TrimSpace(line)
				if query == "" {
					continue
				}
				if query == "exit" {
					break
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " processing query..."
				sp.Start()
				result, err := d.pipeline.Run(ctx, query)
				sp.Stop()
				if err != nil {
					fmt.Fprintf(c.Root().Writer, "error: %s\n", err)
					continue
				}

				fmt.Fprintf(c.Root().Writer, "%s\n", result.Response)
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}
