// Package config resolves runtime settings from flags, environment variables,
// dotenv files and an optional YAML/JSON config file. Precedence, highest
// first: flags, environment, config file, defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stockyhq/stocky/internal/logging"
	"github.com/stockyhq/stocky/internal/quote"
	"github.com/stockyhq/stocky/internal/tmx"
)

// Extraction modes.
const (
	ModeStatic   = "static"
	ModeRendered = "rendered"
)

// BrowserPathEnv names the variable holding the browser executable path.
const BrowserPathEnv = "BROWSER_PATH"

// Config holds runtime configuration for one quote lookup.
type Config struct {
	Symbol string
	Mode   string

	// Static page
	StaticURL   string
	UserAgent   string
	HTTPTimeout time.Duration

	// Rendered page
	RenderedURL string
	SettleDelay time.Duration
	BrowserPath string
	Headless    bool
	Reload      bool
	// ReplayPath serves a saved page instead of launching a browser.
	ReplayPath string

	// Logging
	LogFile string
	Verbose bool
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Mode:        ModeStatic,
		StaticURL:   tmx.DefaultStaticURL,
		RenderedURL: tmx.DefaultRenderedURL,
		HTTPTimeout: 30 * time.Second,
		SettleDelay: tmx.DefaultSettleDelay,
		Headless:    true,
		LogFile:     logging.DefaultFile,
	}
}

// Validate checks the settings needed before any network or browser work.
func Validate(cfg Config) error {
	if err := quote.Symbol(cfg.Symbol).Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch cfg.Mode {
	case ModeStatic:
		if !strings.Contains(cfg.StaticURL, quote.SymbolPlaceholder) {
			return fmt.Errorf("config: static url must contain %s", quote.SymbolPlaceholder)
		}
	case ModeRendered:
		if !strings.Contains(cfg.RenderedURL, quote.SymbolPlaceholder) {
			return fmt.Errorf("config: rendered url must contain %s", quote.SymbolPlaceholder)
		}
		if cfg.SettleDelay < 0 {
			return errors.New("config: settle delay must not be negative")
		}
		if strings.TrimSpace(cfg.ReplayPath) == "" && strings.TrimSpace(cfg.BrowserPath) == "" {
			return fmt.Errorf("config: browser path is required in rendered mode (set %s)", BrowserPathEnv)
		}
	default:
		return fmt.Errorf("config: unknown mode %q (want %s or %s)", cfg.Mode, ModeStatic, ModeRendered)
	}
	if cfg.HTTPTimeout < 0 {
		return errors.New("config: http timeout must not be negative")
	}
	return nil
}
