package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ourspace/internal/app"
)

const passphraseEnv = "OURSPACE_PASSPHRASE"

var (
	home       string
	relayURL   string
	namespace  string
	salt       string
	logLevel   string
	passphrase string
	name       string
	room       string

	cfg    app.Config
	wire   *app.Wire
	logger zerolog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:          "ourspace",
		Short:        "Passphrase-encrypted chat rooms",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				home = app.DefaultHome()
			}
			var err error
			cfg, err = app.Load(home)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("relay") {
				cfg.RelayURL = relayURL
			}
			if flags.Changed("namespace") {
				cfg.Namespace = namespace
			}
			if flags.Changed("salt") {
				cfg.Salt = salt
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).
				With().
				Timestamp().
				Logger()

			wire, err = app.NewWire(cfg, logger)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&home, "home", "", "config dir (default ~/.ourspace)")
	pf.StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	pf.StringVar(&namespace, "namespace", "", "collection namespace shared by all clients")
	pf.StringVar(&salt, "salt", "", "key derivation salt shared by all clients")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(addressCmd(), chatCmd(), sendCmd(), sendImageCmd(), configCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

// roomFlags registers the flags every room command takes.
func roomFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&name, "name", "n", "", "your display name")
	cmd.Flags().StringVarP(&room, "room", "r", "", "room label")
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "room passphrase (or $"+passphraseEnv+")")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("room")
}

func roomPassphrase() ([]byte, error) {
	p := passphrase
	if p == "" {
		p = os.Getenv(passphraseEnv)
	}
	if strings.TrimSpace(p) == "" {
		return nil, errors.New("passphrase required (-p or $" + passphraseEnv + ")")
	}
	return []byte(p), nil
}
