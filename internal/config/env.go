package config

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"time"
)

// LoadEnvFiles loads one or more dotenv files of KEY=VALUE pairs into the
// process environment. Later files override earlier ones. Lines starting with
// '#' and blank lines are ignored. Values are not expanded.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := loadEnvFile(p); err != nil {
			// Missing files are not fatal; continue to next path
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		// Simple KEY=VALUE parser; stops at first '='
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}
		_ = os.Setenv(key, val)
	}
	return scanner.Err()
}

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. Values that fail to parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}

	setString(&cfg.Symbol, "STOCKY_SYMBOL")
	setString(&cfg.Mode, "STOCKY_MODE")
	setString(&cfg.StaticURL, "STOCKY_STATIC_URL")
	setString(&cfg.RenderedURL, "STOCKY_RENDERED_URL")
	setString(&cfg.UserAgent, "STOCKY_USER_AGENT")
	setString(&cfg.LogFile, "STOCKY_LOG_FILE")
	setString(&cfg.ReplayPath, "STOCKY_REPLAY")
	setString(&cfg.BrowserPath, BrowserPathEnv)
	setDuration(&cfg.HTTPTimeout, "STOCKY_HTTP_TIMEOUT")
	setDuration(&cfg.SettleDelay, "STOCKY_SETTLE_DELAY")
	setBool(&cfg.Headless, "STOCKY_HEADLESS")
	setBool(&cfg.Reload, "STOCKY_RELOAD")
	setBool(&cfg.Verbose, "VERBOSE")
}
