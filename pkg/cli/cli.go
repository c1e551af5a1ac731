// Package cli wires the command-line surface: flag parsing, configuration and
// dependency construction for each command.
package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "sarthi",
		Usage: "Incident query agent with resilient retrieval and dual-store memory",
		Commands: []*cli.Command{
			askCommand(),
			chatCommand(),
			ingestCommand(),
			memoryCommand(),
			eventsCommand(),
			feedbackCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
