package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"ourspace/internal/crypto"
	"ourspace/internal/store"
)

const (
	DefaultNamespace = "ourspace-v1"
	DefaultRelayURL  = "http://127.0.0.1:8080"
	ConfigFile       = "config.yaml"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string `yaml:"-"`         // config directory, e.g. $HOME/.ourspace
	RelayURL string `yaml:"relay_url"` // relay base URL
	// Namespace prefixes every collection. Clients must agree on it.
	Namespace string `yaml:"namespace"`
	// Salt feeds key derivation. Clients must agree on it; changing it
	// makes existing rooms unreadable.
	Salt            string        `yaml:"salt"`
	PublishAttempts int           `yaml:"publish_attempts"`
	PublishBackoff  time.Duration `yaml:"publish_backoff"`
	LogLevel        string        `yaml:"log_level"`

	HTTP *http.Client `yaml:"-"` // optional; defaults to http.DefaultClient
}

// Default returns the configuration used when no file exists.
func Default(home string) Config {
	return Config{
		Home:            home,
		RelayURL:        DefaultRelayURL,
		Namespace:       DefaultNamespace,
		Salt:            crypto.LegacySalt,
		PublishAttempts: 1,
		PublishBackoff:  250 * time.Millisecond,
		LogLevel:        "info",
	}
}

// DefaultHome is $HOME/.ourspace, or .ourspace when no home is known.
func DefaultHome() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ".ourspace"
	}
	return filepath.Join(h, ".ourspace")
}

// Path is the config file location under home.
func Path(home string) string { return filepath.Join(home, ConfigFile) }

// Load reads home/config.yaml over the defaults. A missing file is not an
// error.
func Load(home string) (Config, error) {
	cfg := Default(home)
	b, err := store.ReadFile(Path(home))
	if err != nil {
		return cfg, err
	}
	if b != nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	cfg.Home = home
	return cfg, cfg.Validate()
}

// Save writes cfg to home/config.yaml atomically.
func (c Config) Save() error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return store.WriteFile(Path(c.Home), b, 0o600)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	switch {
	case c.RelayURL == "":
		return fmt.Errorf("%w: relay_url is empty", ErrInvalidConfig)
	case c.Namespace == "":
		return fmt.Errorf("%w: namespace is empty", ErrInvalidConfig)
	case c.Salt == "":
		return fmt.Errorf("%w: salt is empty", ErrInvalidConfig)
	case c.PublishAttempts < 1:
		return fmt.Errorf("%w: publish_attempts must be at least 1", ErrInvalidConfig)
	case c.PublishBackoff < 0:
		return fmt.Errorf("%w: publish_backoff is negative", ErrInvalidConfig)
	}
	return nil
}
