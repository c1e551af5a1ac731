package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sarthi/pkg/adapter"
	"github.com/m-mizutani/sarthi/pkg/guardrail"
	"github.com/m-mizutani/sarthi/pkg/pipeline"
	"github.com/m-mizutani/sarthi/pkg/repository"
	memoryuc "github.com/m-mizutani/sarthi/pkg/usecase/memory"
	"github.com/m-mizutani/sarthi/pkg/usecase/retrieval"
	"github.com/m-mizutani/sarthi/pkg/utils/logging"
	"github.com/m-mizutani/sarthi/pkg/vectorindex"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	configFile string
	logLevel   string

	// Stores
	dbPath    string
	indexPath string

	// Adapters
	provider        string
	anthropicAPIKey string
	geminiProject   string
	geminiLocation  string
}

// fileConfig mirrors the optional YAML configuration file. Flag and
// environment values take precedence over file values.
type fileConfig struct {
	DBPath          string `yaml:"db_path"`
	IndexPath       string `yaml:"index_path"`
	Provider        string `yaml:"provider"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GeminiProject   string `yaml:"gemini_project"`
	GeminiLocation  string `yaml:"gemini_location"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML configuration file",
			Sources:     cli.EnvVars("SARTHI_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "db",
			Aliases:     []string{"d"},
			Usage:       "Path to SQLite database file",
			Value:       "sarthi.db",
			Sources:     cli.EnvVars("SARTHI_DB"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "index",
			Aliases:     []string{"i"},
			Usage:       "Path to vector index directory",
			Value:       "sarthi.index",
			Sources:     cli.EnvVars("SARTHI_INDEX"),
			Destination: &cfg.indexPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("SARTHI_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "Language model provider (gemini or claude)",
			Value:       "gemini",
			Sources:     cli.EnvVars("SARTHI_PROVIDER"),
			Destination: &cfg.provider,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// load applies the YAML configuration file, if any, to fields not already set
// by flags or environment variables.
func (cfg *config) load() error {
	if cfg.configFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.configFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configFile))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configFile))
	}

	if cfg.dbPath == "" || cfg.dbPath == "sarthi.db" {
		if fc.DBPath != "" {
			cfg.dbPath = fc.DBPath
		}
	}
	if cfg.indexPath == "" || cfg.indexPath == "sarthi.index" {
		if fc.IndexPath != "" {
			cfg.indexPath = fc.IndexPath
		}
	}
	if fc.Provider != "" && cfg.provider == "gemini" {
		cfg.provider = fc.Provider
	}
	if cfg.anthropicAPIKey == "" {
		cfg.anthropicAPIKey = fc.AnthropicAPIKey
	}
	if cfg.geminiProject == "" {
		cfg.geminiProject = fc.GeminiProject
	}
	if cfg.geminiLocation == "" || cfg.geminiLocation == "us-central1" {
		if fc.GeminiLocation != "" {
			cfg.geminiLocation = fc.GeminiLocation
		}
	}

	return nil
}

// newRepository creates a new repository instance
func (cfg *config) newRepository() (repository.Repository, error) {
	if cfg.dbPath == "" {
		return nil, goerr.New("db path is required")
	}

	repo, err := repository.New(cfg.dbPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newEmbedder creates the embedding adapter. Embeddings always go through
// Gemini regardless of the generation provider.
func (cfg *config) newEmbedder(ctx context.Context) (adapter.Embedder, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
}

// newLLM creates the generation adapter for the configured provider.
func (cfg *config) newLLM(ctx context.Context) (adapter.LLM, error) {
	switch cfg.provider {
	case "claude":
		if cfg.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required")
		}
		return adapter.NewClaude(cfg.anthropicAPIKey), nil
	case "gemini":
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-project is required")
		}
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
	default:
		return nil, goerr.New("unknown provider", goerr.V("provider", cfg.provider))
	}
}

// deps bundles everything a query command needs.
type deps struct {
	repo      repository.Repository
	index     vectorindex.Index
	embedder  adapter.Embedder
	llm       adapter.LLM
	retriever *retrieval.Retriever
	memory    *memoryuc.Manager
	pipeline  *pipeline.Pipeline
}

// newDeps builds the full dependency graph for a command.
func (cfg *config) newDeps(ctx context.Context) (*deps, error) {
	if err := cfg.load(); err != nil {
		return nil, err
	}

	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))

	repo, err := cfg.newRepository()
	if err != nil {
		return nil, err
	}

	embedder, err := cfg.newEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	llm, err := cfg.newLLM(ctx)
	if err != nil {
		return nil, err
	}

	index, err := vectorindex.NewChromemPersistent(cfg.indexPath)
	if err != nil {
		return nil, err
	}
	retriever := retrieval.New(embedder, index, repo)
	memory := memoryuc.New(repo, index, embedder, retriever)

	p := pipeline.New(pipeline.NewInput{
		Repo:      repo,
		Validator: guardrail.New(),
		Retriever: retriever,
		Memory:    memory,
		LLM:       llm,
	})

	return &deps{
		repo:      repo,
		index:     index,
		embedder:  embedder,
		llm:       llm,
		retriever: retriever,
		memory:    memory,
		pipeline:  p,
	}, nil
}

func (d *deps) Close() {
	if d.repo != nil {
		_ = d.repo.Close()
	}
}
