package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/model"
	"github.com/urfave/cli/v3"
)

func memoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Inspect and manage stored memory",
		Commands: []*cli.Command{
			memoryListCommand(),
			memorySearchCommand(),
			memoryUpdateCommand(),
			memoryDeleteCommand(),
		},
	}
}

func memoryListCommand() *cli.Command {
	var (
		cfg     config
		memType string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Filter by memory type (episodic, semantic, conversation, working)",
			Destination: &memType,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List stored memory items",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			d, err := cfg.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			memories, err := d.memory.Read(ctx, "", model.MemoryType(memType), 0)
			if err != nil {
				return goerr.Wrap(err, "failed to list memories")
			}

			for _, mem := range memories {
				fmt.Fprintf(c.Root().Writer, "[%s] %s (%s) %s\n", mem.Type, mem.ID, mem.CreatedAt.Format("2006-01-02 15:04:05"), mem.Content)
			}
			fmt.Fprintf(c.Root().Writer, "%d items\n", len(memories))
			return nil
		},
	}
}

func memorySearchCommand() *cli.Command {
	var (
		cfg     config
		memType string
		topK    int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "type",
			Aliases:     []string{"t"},
			Usage:       "Filter by memory type",
			Destination: &memType,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"k"},
			Usage:       "Maximum number of results",
			Value:       5,
			Destination: &topK,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search memory by relevance",
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

			memories, err := d.memory.Read(ctx, query, model.MemoryType(memType), int(topK))
			if err != nil {
				return goerr.Wrap(err, "failed to search memories")
			}

			for _, mem := range memories {
				fmt.Fprintf(c.Root().Writer, "[%s] %s %s\n", mem.Type, mem.ID, mem.Content)
			}
			fmt.Fprintf(c.Root().Writer, "%d items\n", len(memories))
			return nil
		},
	}
}

func memoryUpdateCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "update",
		Usage:     "Replace a memory item's content",
		ArgsUsage: "<memory-id> <content>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().Get(0)
			content := c.Args().Get(1)
			if id == "" || content == "" {
				return goerr.New("memory-id and content are required")
			}

			d, err := cfg.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.memory.Update(ctx, model.MemoryID(id), content); err != nil {
				return goerr.Wrap(err, "failed to update memory", goerr.V("id", id))
			}

			fmt.Fprintf(c.Root().Writer, "updated %s\n", id)
			return nil
		},
	}
}

func memoryDeleteCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a memory item",
		ArgsUsage: "<memory-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().First()
			if id == "" {
				return goerr.New("memory-id is required")
			}

			d, err := cfg.newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.memory.Delete(ctx, model.MemoryID(id)); err != nil {
				return goerr.Wrap(err, "failed to delete memory", goerr.V("id", id))
			}

			fmt.Fprintf(c.Root().Writer, "deleted %s\n", id)
			return nil
		},
	}
}
