package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"techwriter/internal/config"
	"techwriter/internal/llm"
	"techwriter/internal/logging"
	"techwriter/internal/pipeline"
	"techwriter/internal/store"
	"techwriter/internal/ui"
)

// app carries the flags and the state PersistentPreRunE builds for every
// subcommand.
type app struct {
	configPath string
	envFile    string
	verbose    bool
	model      string
	noDB       bool

	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
	stderr *os.File
}

func newRootCmd() *cobra.Command {
	a := &app{stderr: os.Stderr}

	rootCmd := &cobra.Command{
		Use:   "techwriter <input> <output>",
		Short: "Critique and rewrite a technical article with a three-stage LLM pipeline",
		Long: `techwriter runs an article through three Gemini agents:

  1. Analyst:   diagnoses where the article overloads the reader
  2. Architect: designs a blueprint for the rewrite
  3. Writer:    executes the blueprint

All three outputs are written to <output> as one markdown document, and the run
is logged to the article_optimization_logs table.`,
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stdout = cmd.OutOrStdout()
			return a.init(cmd.Flags().Changed("env-file"))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runPipeline,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&a.model, "model", "m", "", "Gemini model (overrides GEMINI_MODEL)")
	rootCmd.Flags().BoolVar(&a.noDB, "no-db", false, "Do not log the run to the database")

	rootCmd.AddCommand(a.historyCmd(), a.dbCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// init loads the dotenv file, then the config, then builds the logger.
// Variables already in the environment win over the dotenv file. A missing
// dotenv file is only an error when it was named explicitly.
func (a *app) init(envFileRequired bool) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			if envFileRequired || !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", a.envFile, err)
			}
		}
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: a.verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func (a *app) runPipeline(cmd *cobra.Command, args []string) error {
	// argument errors print usage, runtime errors do not
	cmd.SilenceUsage = true

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	boot := logging.For(a.logger, logging.CategoryBoot)
	if a.model != "" {
		a.cfg.LLM.Model = a.model
	}
	persist := !a.noDB && a.cfg.Database.Enabled
	validate := a.cfg.ValidateLLM
	if persist {
		validate = a.cfg.Validate
	}
	if err := validate(); err != nil {
		boot.Error("Invalid configuration", zap.Error(err))
		return err
	}

	console := ui.NewConsole(a.stdout, ui.WithConsoleLogger(boot))

	apiLog := logging.For(a.logger, logging.CategoryAPI)
	gemini, err := llm.NewGeminiClient(ctx, llm.GeminiConfigFrom(a.cfg), apiLog)
	if err != nil {
		return err
	}
	client := llm.NewProgressClient(gemini, ui.NewSpinner(a.stderr, console.Styles()), apiLog)

	var records pipeline.RecordInserter
	if !persist {
		boot.Info("Database logging disabled")
	} else {
		s, closeStore, err := a.openStore(ctx)
		if err != nil {
			console.Warn("Database unavailable, the run will not be saved", err)
		} else {
			defer closeStore()
			records = s
		}
	}

	orchestrator := pipeline.New(client, records,
		pipeline.WithReporter(console),
		pipeline.WithLogger(logging.For(a.logger, logging.CategoryPipeline)),
		pipeline.WithModelName(gemini.Model()),
	)

	res, err := orchestrator.Run(ctx, args[0], args[1])
	if err != nil {
		if errors.Is(err, pipeline.ErrInputNotFound) {
			console.Error(fmt.Errorf("input file %s not found", args[0]))
		} else {
			console.Error(err)
		}
		return err
	}

	boot.Info("Pipeline finished",
		zap.String("run_id", res.RunID),
		zap.Bool("persisted", res.Persisted),
		zap.Int64("record_id", res.RecordID))
	return nil
}

// openStore opens the configured pool, wraps it in a Store and makes sure the
// table exists. A schema failure is only logged; the first real query will
// report it. The returned func closes the pool.
func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	if err := a.cfg.Database.Validate(); err != nil {
		return nil, nil, err
	}

	openCtx, cancel := context.WithTimeout(ctx, a.cfg.GetDatabaseTimeout())
	defer cancel()

	storeLog := logging.For(a.logger, logging.CategoryStore)
	pool, err := store.OpenPool(openCtx, a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	storeLog.Debug("Pool opened", zap.String("dialect", pool.Dialect().String()))

	closeFn := func() {
		if err := pool.Close(); err != nil {
			storeLog.Warn("Pool close failed", zap.Error(err))
		}
	}
	s := store.NewFromPool(pool, store.WithLogger(storeLog))
	if err := s.EnsureSchema(openCtx); err != nil {
		storeLog.Warn("Schema check failed", zap.Error(err))
	}
	return s, closeFn, nil
}
