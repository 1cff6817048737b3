package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/CTAG07/Drosera/pkg/corpus"
	"github.com/CTAG07/Drosera/pkg/ledger"
	"github.com/CTAG07/Drosera/pkg/pagegen"
	"github.com/CTAG07/Drosera/pkg/templating"
	"github.com/facebookgo/flagenv"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	var (
		fConfig = flag.String("config", "./config.json", "Path to the config file, JSON or TOML.")
		fOnce   = flag.Bool("once", false, "Run a single cycle and exit.")
	)
	flag.Parse()

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := flagenv.ParseSet("DROSERA_", flag.CommandLine); err != nil {
		baseLogger.Error("Failed to read flags from environment", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan
		baseLogger.Info("OS signal received, stopping after the current cycle.")
		cancel()
	}()

	baseLogger.Info("Starting Drosera", "version", Version, "commit", Commit, "build_date", BuildDate)
	if err := run(ctx, *fConfig, *fOnce); err != nil {
		baseLogger.Error("An error occurred, shutting down.", "error", err)
		os.Exit(1)
	}
	baseLogger.Info("Drosera has shut down.")
}

// run wires everything together from the config at configPath and generates
// until ctx is cancelled, or for a single cycle when once is set.
func run(ctx context.Context, configPath string, once bool) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(config.App.LogLevel)}))

	var lg *ledger.Ledger
	if config.App.LedgerPath != "" {
		var db *sql.DB
		db, err = openLedger(config.App.LedgerPath)
		if err != nil {
			return fmt.Errorf("failed to initialize ledger: %w", err)
		}
		defer func() {
			logger.Info("Closing ledger database.")
			if err := db.Close(); err != nil {
				logger.Error("Failed to close ledger database", "error", err)
			}
		}()
		lg = ledger.New(db)
		if summary, err := lg.Summary(ctx); err != nil {
			logger.Warn("Failed to summarize ledger", "error", err)
		} else {
			logger.Info("Ledger opened",
				"cycles", summary.Cycles,
				"pages_written", summary.PagesWritten,
				"pages_failed", summary.PagesFailed,
				"folders", summary.Folders)
		}
	}

	c := loadCorpus(logger, config.App)

	tm, err := templating.NewTemplateManager(logger, config.Templates, config.App.TemplateDir)
	if err != nil {
		return fmt.Errorf("failed to create template manager: %w", err)
	}

	var gl pagegen.Ledger
	if lg != nil {
		gl = lg
	}
	gen, err := pagegen.NewGenerator(logger, config.Generator, c, tm, gl, nil)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	if config.App.WatchInputs {
		w, err := newInputWatcher(logger, config.App, tm, gen)
		if err != nil {
			logger.Error("Failed to start input watcher, continuing without it", "error", err)
		} else {
			defer w.Close()
			go w.Run(ctx)
		}
	}

	if once {
		_, err = gen.RunCycle(ctx, config.Generator.Count)
		return err
	}
	gen.Run(ctx, config.Generator.Count, config.Generator.Interval.Std())
	return nil
}

// openLedger opens the ledger database, creating its directory and schema.
func openLedger(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	db, err := initDB(path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err = ledger.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// loadCorpus reads the keyword files. Read errors are logged; whatever could
// be read is still used, and empty lists fall back at text-build time.
func loadCorpus(logger *slog.Logger, app *AppConfig) *corpus.Corpus {
	c, err := corpus.Load(app.KeywordsAr, app.KeywordsEn)
	if err != nil {
		logger.Error("Failed to read keyword files", "error", err)
	}
	logger.Info("Loaded keywords", "arabic", c.Len(corpus.LangArabic), "english", c.Len(corpus.LangEnglish))
	return c
}
