package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gradegraph/internal/config"
	"gradegraph/internal/dataprocessing"
	"gradegraph/internal/infrastructure"
	"gradegraph/internal/store"
	"gradegraph/internal/validation"
	"gradegraph/pkg/contracts"
)

// cli carries what every subcommand needs once flags are parsed.
type cli struct {
	configFile string
	logLevel   string
	dbPath     string

	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	validator *validation.FileValidator
	now       func() time.Time
}

func newRootCmd() *cobra.Command {
	c := &cli{now: time.Now}

	root := &cobra.Command{
		Use:           "gradegraph",
		Short:         "Classify and analyze student assessment workbooks",
		Long:          "gradegraph reads a marks workbook, classifies every student and reports subject and class statistics.",
		Version:       contracts.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate("{{.Name}} " + contracts.GetFullVersionString() + "\n")

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "Path to a YAML config file (defaults to the usual search locations)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level written to stderr")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "Path to a SQLite history database (overrides the configured store)")

	root.AddCommand(
		newAnalyzeCmd(c),
		newSubjectsCmd(c),
		newStudentCmd(c),
		newHistoryCmd(c),
		newServeCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	var err error
	if c.configFile != "" {
		c.cfg, err = config.LoadFrom(c.configFile)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logging := c.cfg.Logging
	logging.Level = c.logLevel
	logging.Output = "console"
	logging.Format = "text"
	c.logger, err = infrastructure.NewLogger(logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))
	// Local files have no upload size limit.
	c.validator = validation.NewFileValidator(0, c.logger)

	c.paths, err = config.GetPaths(c.cfg.Paths)
	return err
}

// analyze parses a workbook and runs the classifier over it.
func (c *cli) analyze(ctx context.Context, file, sheet string) (*dataprocessing.ParsedSheet, *dataprocessing.Result, error) {
	if err := c.validator.ValidateFile(file); err != nil {
		return nil, nil, err
	}

	parsed, err := dataprocessing.ParseFile(file, dataprocessing.ParseOptions{
		Sheet:          sheet,
		HeaderScanRows: c.cfg.Upload.HeaderScanRows,
		Logger:         c.logger,
	})
	if err != nil {
		return nil, nil, err
	}

	result, err := dataprocessing.NewProcessor(c.cfg.Policy(), c.logger).Process(ctx, parsed.Table)
	if err != nil {
		return nil, nil, err
	}
	return parsed, result, nil
}

// openHistory opens the upload history. --db forces a SQLite file; otherwise
// the configured store is used, or nothing when it is disabled.
func (c *cli) openHistory(ctx context.Context) (store.History, error) {
	if c.dbPath != "" {
		return store.OpenSQLStore(ctx, store.DriverSQLite, config.SQLiteFileDSN(c.dbPath))
	}
	if !c.cfg.Store.Enabled {
		return nil, fmt.Errorf("upload history is disabled; enable store in the config or pass --db")
	}

	dsn := c.cfg.Store.DSN
	driver := store.Driver(c.cfg.Store.Driver)
	if dsn == "" && driver == store.DriverSQLite {
		dsn = c.paths.SQLiteDSN()
	}
	return store.OpenSQLStore(ctx, driver, dsn)
}
