package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pbarbosa/descobre/internal/app"
	"github.com/pbarbosa/descobre/internal/config"
	"github.com/pbarbosa/descobre/internal/query"
	"github.com/pbarbosa/descobre/internal/session"
	"github.com/pbarbosa/descobre/internal/web"
	"github.com/pbarbosa/descobre/pkg/spotify"
)

// sweepInterval is how often the cache sweeper and session pruner run.
const sweepInterval = 30 * time.Minute

var (
	serveAddr     string
	serveLogFile  string
	serveLogLevel string
	serveDataDir  string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Run the web server that fronts the Spotify catalog.

The server will:
- Serve the search and artist pages under /pt-BR and /en
- Redirect the bare root to the visitor's preferred locale
- Cache catalog responses and prefetch the next result page
- Persist per-session language choices and search snapshots
- Handle graceful shutdown on SIGINT/SIGTERM

The server runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a rotated file instead.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: :8080 or config)")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Log file path (default: stderr)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Data directory for the session database (default: ~/.local/share/descobre)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveDataDir != "" {
		cfg.DataDir = serveDataDir
	}

	logger := setupLogger(serveLogFile, serveLogLevel)

	logger.Info().
		Str("version", version).
		Str("addr", cfg.Addr).
		Msg("Starting descobre server")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	sessions, err := session.NewStore(filepath.Join(cfg.DataDir, "sessions.db"))
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() { _ = sessions.Close() }()

	client, err := spotify.NewClient(spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		BaseURL:      cfg.Spotify.BaseURL,
		TokenURL:     cfg.Spotify.TokenURL,
		Logger:       zerologAdapter{logger},
	})
	if err != nil {
		return fmt.Errorf("failed to create spotify client: %w", err)
	}

	queries := query.NewService(client, app.NewStore(), logger)

	server, err := web.NewServer(web.Config{Addr: cfg.Addr, Market: cfg.Market},
		queries, sessions, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go queries.StartSweeper(ctx, sweepInterval)
	go pruneSessions(ctx, sessions, logger)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info().Msg("Server stopped")
	return nil
}

// pruneSessions drops sessions idle for more than thirty days.
func pruneSessions(ctx context.Context, sessions *session.Store, logger zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-30 * 24 * time.Hour)
			if err := sessions.PruneBefore(ctx, cutoff); err != nil {
				logger.Warn().Err(err).Msg("Session prune failed")
			}
		}
	}
}

// zerologAdapter lets the spotify client log through the app logger.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug().Msgf(format, args...)
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output io.Writer = os.Stderr
	if logFile != "" {
		output = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if logFile == "" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
