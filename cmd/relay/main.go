package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ourspace/internal/relay"
	"ourspace/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Document relay for ourspace rooms",
	RunE:  runRelay,
}

var (
	flagAddr     string
	flagDataPath string
	flagLogLevel string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAddr, "addr", ":8080", "listen address")
	flags.StringVar(&flagDataPath, "data-path", "", "optional directory to persist documents via PebbleDB")
	flags.StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute relay command")
	}
}

func runRelay(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		opts    []store.Option
		persist *store.Pebble
	)
	if flagDataPath != "" {
		persist, err = store.OpenPebble(flagDataPath)
		if err != nil {
			return err
		}
		opts = append(opts, store.WithPersister(persist))
		log.Info().Str("path", flagDataPath).Msg("[relay] persisting to pebble")
	} else {
		log.Warn().Msg("[relay] no --data-path; documents live in memory only")
	}
	backend, err := store.NewMemory(opts...)
	if err != nil {
		if persist != nil {
			_ = persist.Close()
		}
		return err
	}

	srv := relay.NewServer(backend, log.Logger)
	httpSrv := &http.Server{
		Addr:              flagAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", flagAddr).Msg("[relay] listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("[relay] http error")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("[relay] http server shutdown error")
	}
	srv.Close()
	if err := backend.Close(); err != nil {
		log.Warn().Err(err).Msg("[relay] store close error")
	}
	log.Info().Msg("[relay] shutdown complete")
	return nil
}
