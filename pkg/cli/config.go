package cli

import (
	"context"
	"os"

	"github.com/halcyonlabs/mnemo/pkg/adapter"
	"github.com/halcyonlabs/mnemo/pkg/repository"
	"github.com/halcyonlabs/mnemo/pkg/service/policy"
	"github.com/halcyonlabs/mnemo/pkg/usecase/recall"
	"github.com/halcyonlabs/mnemo/pkg/utils/logging"
	"github.com/halcyonlabs/mnemo/pkg/utils/metrics"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	logLevel string

	// Store
	backend    string
	project    string
	database   string
	sqlitePath string

	// Embedding
	geminiProject  string
	geminiLocation string

	// Policy and tuning
	policyDir  string
	tuningPath string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("MNEMO_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "Store backend (firestore, sqlite, memory)",
			Value:       "firestore",
			Sources:     cli.EnvVars("MNEMO_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "Path to the local SQLite database",
			Value:       "mnemo.db",
			Sources:     cli.EnvVars("MNEMO_SQLITE_PATH"),
			Destination: &cfg.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini embeddings",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini embeddings",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of rego policies for the integrity gate",
			Sources:     cli.EnvVars("MNEMO_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.StringFlag{
			Name:        "tuning",
			Usage:       "Path to a YAML tuning file overriding score weights",
			Sources:     cli.EnvVars("MNEMO_TUNING"),
			Destination: &cfg.tuningPath,
		},
	}
}

func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newStore creates the configured store backend. The returned closer may be
// nil for backends without resources to release.
func (cfg *config) newStore(ctx context.Context) (repository.Store, repository.GravityStore, func() error, error) {
	switch cfg.backend {
	case "firestore":
		if cfg.project == "" {
			return nil, nil, nil, goerr.New("project is required for the firestore backend")
		}
		repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, repo, repo.Close, nil

	case "sqlite":
		repo, err := repository.NewSQLite(cfg.sqlitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, repo, repo.Close, nil

	case "memory":
		repo := repository.NewMemory()
		return repo, repo, nil, nil

	default:
		return nil, nil, nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
}

// newEmbedder creates the Gemini embedder when configured; nil disables the
// semantic stream.
func (cfg *config) newEmbedder(ctx context.Context) (adapter.Embedder, error) {
	if cfg.geminiProject == "" {
		return nil, nil
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
}

// newUseCase wires a recall UseCase from the configured backends.
func (cfg *config) newUseCase(ctx context.Context) (*recall.UseCase, func() error, error) {
	store, gravity, closer, err := cfg.newStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := cfg.newEmbedder(ctx)
	if err != nil {
		return nil, nil, err
	}

	gate, err := policy.New(ctx, cfg.policyDir)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load gate policy")
	}

	tuning := recall.DefaultTuning()
	if cfg.tuningPath != "" {
		tuning, err = recall.LoadTuning(cfg.tuningPath)
		if err != nil {
			return nil, nil, err
		}
	}

	opts := []recall.Option{
		recall.WithGravityStore(gravity),
		recall.WithPolicy(gate),
		recall.WithTuning(tuning),
		recall.WithCounter(metrics.NewInMemory()),
	}
	if embedder != nil {
		opts = append(opts, recall.WithEmbedder(embedder))
	}

	return recall.New(store, opts...), closer, nil
}
