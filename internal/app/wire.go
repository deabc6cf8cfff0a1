package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"ourspace/internal/crypto"
	"ourspace/internal/domain"
	"ourspace/internal/relay"
	messagesvc "ourspace/internal/services/message"
	presencesvc "ourspace/internal/services/presence"
	sessionsvc "ourspace/internal/services/session"
)

// Wire bundles the clients and services the CLI needs.
type Wire struct {
	Config   Config
	Relay    *relay.Client
	Messages domain.MessageService
	Presence domain.PresenceService
	Sessions *sessionsvc.Controller
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, logger zerolog.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	rc := relay.NewClient(cfg.RelayURL, logger.With().Str("component", "relay").Logger())
	rc.HTTP = httpClient

	messages := messagesvc.New(rc, messagesvc.Options{
		Namespace: cfg.Namespace,
		Attempts:  cfg.PublishAttempts,
		Backoff:   cfg.PublishBackoff,
	}, logger.With().Str("component", "message").Logger())
	presence := presencesvc.New(rc, presencesvc.Options{
		Namespace: cfg.Namespace,
	}, logger.With().Str("component", "presence").Logger())

	sessions := sessionsvc.New(
		crypto.NewKDF(cfg.Salt),
		rc,
		messages,
		presence,
		logger.With().Str("component", "session").Logger(),
	)

	return &Wire{
		Config:   cfg,
		Relay:    rc,
		Messages: messages,
		Presence: presence,
		Sessions: sessions,
	}, nil
}
