package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/teenjuna/framed/internal/logging"
	"github.com/teenjuna/framed/internal/recorder"
	"github.com/teenjuna/framed/internal/sqlite"
)

type app struct {
	configFile  string
	metricsAddr string
	logLevel    string

	settings settings
	logger   zerolog.Logger
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{
		settings: defaultSettings(),
		logger:   zerolog.Nop(),
		registry: prometheus.NewRegistry(),
	}

	cmd := &cobra.Command{
		Use:   "framecat",
		Short: "Move frames between codecs",
		Long: `framecat decodes a byte stream into frames with one codec and encodes them with another.

Frames can be recorded into a SQLite journal, replayed from it and relayed between TCP peers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "TOML config file")
	cmd.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")

	cmd.AddCommand(
		newCatCmd(a),
		newReplayCmd(a),
		newProxyCmd(a),
		newJournalCmd(a),
	)

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.configFile != "" {
		s, err := loadSettings(a.configFile)
		if err != nil {
			return err
		}
		a.settings = s
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		a.settings.LogLevel = a.logLevel
	}
	if flags.Changed("metrics-addr") {
		a.settings.MetricsAddr = a.metricsAddr
	}

	level, ok := logging.ParseLevel(a.settings.LogLevel)
	if !ok {
		return errors.New("invalid log level " + a.settings.LogLevel)
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Out = cmd.ErrOrStderr()
	a.logger = logging.New("framecat", cfg)

	if a.settings.MetricsAddr != "" {
		a.serveMetrics(cmd.Context(), a.settings.MetricsAddr)
	}

	return nil
}

func (a *app) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})
}

func (a *app) openJournal(file string) (*sqlite.Journal, error) {
	return sqlite.New(func(c *sqlite.Config) {
		c.File(file)
		c.Retain(a.settings.Retain)
	})
}

// openRecorder returns a recorder writing to the journal file, or nil if file is empty. The
// returned function closes the recorder and then the journal.
func (a *app) openRecorder(file string) (*recorder.Recorder, func() error, error) {
	if file == "" {
		return nil, func() error { return nil }, nil
	}

	j, err := a.openJournal(file)
	if err != nil {
		return nil, nil, err
	}

	rec := recorder.New(j, func(c *recorder.Config) {
		c.FlushSize(a.settings.FlushSize)
		c.FlushTimeout(a.settings.FlushTimeout)
		c.Logger(a.logger.With().Str("journal", file).Logger())
	})

	return rec, func() error {
		return errors.Join(rec.Close(), j.Close())
	}, nil
}
