package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/m-mizutani/sarthi/pkg/usecase/feedback"
	"github.com/urfave/cli/v3"
)

func feedbackCommand() *cli.Command {
	var (
		cfg     config
		rating  string
		comment string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "rating",
			Aliases:     []string{"r"},
			Usage:       "Rating (up or down)",
			Required:    true,
			Destination: &rating,
		},
		&cli.StringFlag{
			Name:        "comment",
			Aliases:     []string{"m"},
			Usage:       "Optional comment explaining the rating",
			Destination: &comment,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "feedback",
		Usage:     "Record feedback on an execution",
		ArgsUsage: "<execution-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().First()
			if id == "" {
				return goerr.New("execution-id is required")
			}

			d, err := cfg.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			svc := feedback.New(d.repo, d.llm, d.memory)
			if err := svc.Submit(ctx, model.ExecutionID(id), model.Rating(rating), comment); err != nil {
				return goerr.Wrap(err, "failed to record feedback", goerr.V("id", id))
			}

			fmt.Fprintf(c.Root().Writer, "feedback recorded for %s\n", id)
			return nil
		},
	}
}
