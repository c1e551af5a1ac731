package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/urfave/cli/v3"
)

func eventsCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:      "events",
		Usage:     "Show the observability event log for an execution",
		ArgsUsage: "<execution-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().First()
			if id == "" {
				return goerr.New("execution-id is required")
			}

			if err := cfg.load(); err != nil {
				return err
			}
			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			exec, err := repo.GetExecution(ctx, model.ExecutionID(id))
			if err != nil {
				return goerr.Wrap(err, "failed to get execution", goerr.V("id", id))
			}

			fmt.Fprintf(c.Root().Writer, "execution %s [%s]\nquery: %s\n\n", exec.ID, exec.Status, exec.Query)

			events, err := repo.ListEvents(ctx, exec.ID)
			if err != nil {
				return goerr.Wrap(err, "failed to list events", goerr.V("id", id))
			}

			for _, ev := range events {
				fmt.Fprintf(c.Root().Writer, "%s %-16s %-16s %s\n",
					ev.Timestamp.Format("15:04:05.000"), ev.EventType, ev.AgentName, ev.Message)
			}
			return nil
		},
	}
}
