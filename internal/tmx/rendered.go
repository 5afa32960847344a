package tmx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/stockyhq/stocky/internal/browser"
	"github.com/stockyhq/stocky/internal/quote"
)

const (
	// DefaultRenderedURL is the client-rendered quote page.
	DefaultRenderedURL = "https://money.tmx.com/en/quote/" + quote.SymbolPlaceholder

	// RootSelector is the root content container of the rendered page.
	RootSelector = "#root"
	// PriceMarker precedes the price in the container text.
	PriceMarker = "PRICE"
	// ChangeMarker follows the price in the container text.
	ChangeMarker = "CHANGE"

	// DefaultSettleDelay is the fixed wait for client-side rendering.
	// It is a blind wait, not a readiness check, and pages that render
	// slower than this produce StructureErrors.
	DefaultSettleDelay = 5 * time.Second
)

// NavigateToQuote points s at the rendered quote page for symbol.
func NavigateToQuote(ctx context.Context, s browser.Session, template string, symbol quote.Symbol) error {
	u, err := quote.URL(template, symbol)
	if err != nil {
		return err
	}
	return s.Navigate(ctx, u)
}

// ReloadQuote refreshes the page s is currently showing.
func ReloadQuote(ctx context.Context, s browser.Session) error {
	return s.Reload(ctx)
}

// RenderedExtractor reads the price from a session already showing the
// rendered quote page.
type RenderedExtractor struct {
	settle   time.Duration
	selector string
	log      zerolog.Logger
}

// RenderedOption configures a RenderedExtractor.
type RenderedOption func(*RenderedExtractor)

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) RenderedOption {
	return func(e *RenderedExtractor) { e.settle = d }
}

// WithSelector overrides RootSelector.
func WithSelector(sel string) RenderedOption {
	return func(e *RenderedExtractor) { e.selector = sel }
}

// WithRenderedLogger sets the logger used for debug output.
func WithRenderedLogger(l zerolog.Logger) RenderedOption {
	return func(e *RenderedExtractor) { e.log = l }
}

// NewRenderedExtractor creates a RenderedExtractor with the default settle
// delay and root selector.
func NewRenderedExtractor(opts ...RenderedOption) *RenderedExtractor {
	e := &RenderedExtractor{
		settle:   DefaultSettleDelay,
		selector: RootSelector,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Price blocks for the settle delay, then reads the root container text from
// s and extracts the price from it. Navigation and reloads are left to the
// caller.
func (e *RenderedExtractor) Price(ctx context.Context, s browser.Session) (float64, error) {
	if e.settle > 0 {
		e.log.Debug().Dur("delay", e.settle).Msg("waiting for page to settle")
		t := time.NewTimer(e.settle)
		select {
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		case <-t.C:
		}
	}

	text, err := s.Text(ctx, e.selector)
	if err != nil {
		if errors.Is(err, browser.ErrNoElement) {
			return 0, &quote.StructureError{Page: pageRendered, Marker: e.selector}
		}
		return 0, fmt.Errorf("read rendered text: %w", err)
	}
	e.log.Debug().Int("chars", len(text)).Msg("read rendered text")

	price, err := ExtractRenderedPrice(text)
	if err != nil {
		return 0, err
	}
	e.log.Debug().Float64("price", price).Msg("price extracted")
	return price, nil
}

// ExtractRenderedPrice returns the number found between the first PRICE
// marker and the first CHANGE marker after it. A leading currency symbol and
// thousands separators are removed before parsing.
//
// A missing marker yields a *quote.StructureError; text that is not a finite
// number yields a *quote.FormatError.
func ExtractRenderedPrice(text string) (float64, error) {
	_, rest, ok := strings.Cut(text, PriceMarker)
	if !ok {
		return 0, &quote.StructureError{Page: pageRendered, Marker: PriceMarker}
	}
	raw, _, ok := strings.Cut(rest, ChangeMarker)
	if !ok {
		return 0, &quote.StructureError{Page: pageRendered, Marker: ChangeMarker}
	}

	cleaned := strings.TrimSpace(norm.NFKC.String(raw))
	cleaned = strings.TrimLeftFunc(cleaned, func(r rune) bool {
		return unicode.Is(unicode.Sc, r) || unicode.IsSpace(r)
	})
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	price, err := parseDecimal(cleaned)
	if err != nil {
		return 0, &quote.FormatError{Page: pageRendered, Text: raw, Err: err}
	}
	return price, nil
}
