package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockyhq/stocky/internal/browser"
	"github.com/stockyhq/stocky/internal/config"
	"github.com/stockyhq/stocky/internal/fetch"
	"github.com/stockyhq/stocky/internal/logging"
	"github.com/stockyhq/stocky/internal/pagetext"
	"github.com/stockyhq/stocky/internal/quote"
	"github.com/stockyhq/stocky/internal/tmx"
)

// Exit codes.
const (
	exitOK        = 0
	exitStartup   = 1
	exitStructure = 2
	exitFormat    = 3
	exitRuntime   = 4
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stocky", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath string
		envFiles   string
		flagCfg    = config.Defaults()
	)
	fs.StringVar(&configPath, "config", "", "Path to YAML or JSON config file (defaults to $STOCKY_CONFIG)")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading the environment")
	fs.StringVar(&flagCfg.Symbol, "symbol", "", "Ticker symbol to quote, e.g. RY")
	fs.StringVar(&flagCfg.Mode, "mode", flagCfg.Mode, "Extraction mode: static or rendered")
	fs.StringVar(&flagCfg.StaticURL, "static.url", flagCfg.StaticURL, "Static quote page URL template ({symbol} is replaced)")
	fs.StringVar(&flagCfg.UserAgent, "http.ua", "", "User-Agent for static page requests")
	fs.DurationVar(&flagCfg.HTTPTimeout, "http.timeout", flagCfg.HTTPTimeout, "Timeout for the static page request")
	fs.StringVar(&flagCfg.RenderedURL, "rendered.url", flagCfg.RenderedURL, "Rendered quote page URL template ({symbol} is replaced)")
	fs.DurationVar(&flagCfg.SettleDelay, "settle", flagCfg.SettleDelay, "Fixed wait for client-side rendering before reading the page")
	fs.StringVar(&flagCfg.BrowserPath, "browser", "", "Browser executable (defaults to $"+config.BrowserPathEnv+")")
	fs.BoolVar(&flagCfg.Headless, "headless", flagCfg.Headless, "Run the browser headless")
	fs.BoolVar(&flagCfg.Reload, "reload", false, "Reload the rendered page once after navigating")
	fs.StringVar(&flagCfg.ReplayPath, "replay", "", "Read a saved rendered page instead of launching a browser")
	fs.StringVar(&flagCfg.LogFile, "log.file", flagCfg.LogFile, "Append-only debug log file")
	fs.BoolVar(&flagCfg.Verbose, "v", false, "Also show debug logging on the console")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitStartup
	}
	if flagCfg.Symbol == "" && fs.NArg() > 0 {
		flagCfg.Symbol = fs.Arg(0)
	}

	if err := config.LoadEnvFiles(splitList(envFiles)...); err != nil {
		fmt.Fprintf(stderr, "stocky: load env: %v\n", err)
		return exitStartup
	}
	if strings.TrimSpace(configPath) == "" {
		configPath = os.Getenv("STOCKY_CONFIG")
	}
	cfg := config.Defaults()
	if strings.TrimSpace(configPath) != "" {
		fc, err := config.LoadConfigFile(configPath)
		if err != nil {
			fmt.Fprintf(stderr, "stocky: load config: %v\n", err)
			return exitStartup
		}
		config.ApplyFileConfig(&cfg, fc)
	}
	config.ApplyEnvOverrides(&cfg)
	applyFlags(fs, &cfg, flagCfg)

	logOpts := logging.DefaultOptions()
	logOpts.File = cfg.LogFile
	logOpts.Console = stderr
	if cfg.Verbose {
		logOpts.ConsoleLevel = zerolog.DebugLevel
	}
	logger, closer, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintf(stderr, "stocky: %v\n", err)
		return exitStartup
	}
	defer closer.Close()

	if err := config.Validate(cfg); err != nil {
		logger.WithLevel(zerolog.FatalLevel).Err(err).Msg("invalid configuration")
		return exitStartup
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	price, err := run(ctx, cfg, logger)
	if err != nil {
		logger.WithLevel(zerolog.FatalLevel).Err(err).Str("symbol", cfg.Symbol).Str("mode", cfg.Mode).Msg("quote failed")
		return exitCode(err)
	}
	logger.Info().Str("symbol", cfg.Symbol).Str("mode", cfg.Mode).Float64("price", price).Msg("quote")
	fmt.Fprintln(stdout, strconv.FormatFloat(price, 'f', -1, 64))
	return exitOK
}

// applyFlags copies explicitly set flags from fromFlags into cfg so they take
// precedence over the environment and the config file.
func applyFlags(fs *flag.FlagSet, cfg *config.Config, fromFlags config.Config) {
	if fromFlags.Symbol != "" {
		cfg.Symbol = fromFlags.Symbol
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = fromFlags.Mode
		case "static.url":
			cfg.StaticURL = fromFlags.StaticURL
		case "http.ua":
			cfg.UserAgent = fromFlags.UserAgent
		case "http.timeout":
			cfg.HTTPTimeout = fromFlags.HTTPTimeout
		case "rendered.url":
			cfg.RenderedURL = fromFlags.RenderedURL
		case "settle":
			cfg.SettleDelay = fromFlags.SettleDelay
		case "browser":
			cfg.BrowserPath = fromFlags.BrowserPath
		case "headless":
			cfg.Headless = fromFlags.Headless
		case "reload":
			cfg.Reload = fromFlags.Reload
		case "replay":
			cfg.ReplayPath = fromFlags.ReplayPath
		case "log.file":
			cfg.LogFile = fromFlags.LogFile
		case "v":
			cfg.Verbose = fromFlags.Verbose
		}
	})
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) (float64, error) {
	symbol := quote.Symbol(cfg.Symbol)
	switch cfg.Mode {
	case config.ModeRendered:
		return runRendered(ctx, cfg, symbol, logger)
	default:
		client := &fetch.Client{
			UserAgent:         cfg.UserAgent,
			PerRequestTimeout: cfg.HTTPTimeout,
			Logger:            logger,
		}
		s := tmx.NewStaticScraper(client, tmx.WithURL(cfg.StaticURL), tmx.WithLogger(logger))
		return s.Price(ctx, symbol)
	}
}

func runRendered(ctx context.Context, cfg config.Config, symbol quote.Symbol, logger zerolog.Logger) (float64, error) {
	var sess browser.Session
	if cfg.ReplayPath != "" {
		replay, err := pagetext.Open(cfg.ReplayPath, logger)
		if err != nil {
			return 0, err
		}
		sess = replay
	} else {
		chrome, err := browser.Launch(ctx, browser.Options{
			ExecPath:  cfg.BrowserPath,
			Headless:  cfg.Headless,
			UserAgent: cfg.UserAgent,
			Logger:    logger,
		})
		if err != nil {
			return 0, err
		}
		sess = chrome
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn().Err(err).Msg("close session")
		}
	}()

	if err := tmx.NavigateToQuote(ctx, sess, cfg.RenderedURL, symbol); err != nil {
		return 0, err
	}
	if cfg.Reload {
		if err := tmx.ReloadQuote(ctx, sess); err != nil {
			return 0, err
		}
	}
	e := tmx.NewRenderedExtractor(tmx.WithSettleDelay(cfg.SettleDelay), tmx.WithRenderedLogger(logger))
	return e.Price(ctx, sess)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, quote.ErrStructure):
		return exitStructure
	case errors.Is(err, quote.ErrFormat):
		return exitFormat
	default:
		return exitRuntime
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			list = append(list, v)
		}
	}
	return list
}
