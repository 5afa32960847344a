package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the config file schema.
type FileConfig struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Mode   string `yaml:"mode" json:"mode"`

	Static struct {
		URL       string   `yaml:"url" json:"url"`
		UserAgent string   `yaml:"userAgent" json:"userAgent"`
		Timeout   Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"static" json:"static"`

	Rendered struct {
		URL      string   `yaml:"url" json:"url"`
		Settle   *Duration `yaml:"settle" json:"settle"`
		Browser  string   `yaml:"browser" json:"browser"`
		Headless *bool    `yaml:"headless" json:"headless"`
		Reload   bool     `yaml:"reload" json:"reload"`
		Replay   string   `yaml:"replay" json:"replay"`
	} `yaml:"rendered" json:"rendered"`

	Log struct {
		File    string `yaml:"file" json:"file"`
		Verbose bool   `yaml:"verbose" json:"verbose"`
	} `yaml:"log" json:"log"`
}

// Duration accepts Go duration strings ("5s", "1m30s") in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values present in fc onto cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if fc.Symbol != "" {
		cfg.Symbol = fc.Symbol
	}
	if fc.Mode != "" {
		cfg.Mode = fc.Mode
	}
	if fc.Static.URL != "" {
		cfg.StaticURL = fc.Static.URL
	}
	if fc.Static.UserAgent != "" {
		cfg.UserAgent = fc.Static.UserAgent
	}
	if fc.Static.Timeout > 0 {
		cfg.HTTPTimeout = time.Duration(fc.Static.Timeout)
	}
	if fc.Rendered.URL != "" {
		cfg.RenderedURL = fc.Rendered.URL
	}
	if fc.Rendered.Settle != nil {
		cfg.SettleDelay = time.Duration(*fc.Rendered.Settle)
	}
	if fc.Rendered.Browser != "" {
		cfg.BrowserPath = fc.Rendered.Browser
	}
	if fc.Rendered.Headless != nil {
		cfg.Headless = *fc.Rendered.Headless
	}
	if fc.Rendered.Reload {
		cfg.Reload = true
	}
	if fc.Rendered.Replay != "" {
		cfg.ReplayPath = fc.Rendered.Replay
	}
	if fc.Log.File != "" {
		cfg.LogFile = fc.Log.File
	}
	if fc.Log.Verbose {
		cfg.Verbose = true
	}
}
