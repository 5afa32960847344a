package tmx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/stockyhq/stocky/internal/quote"
)

const (
	// DefaultStaticURL is the server-rendered quote page.
	DefaultStaticURL = "https://web.tmxmoney.com/quote.php?qm_symbol=" + quote.SymbolPlaceholder

	// PriceSelector marks the element carrying the display price.
	PriceSelector = "span.price"
	// PriceTextSelector is the text-bearing child inside PriceSelector.
	PriceTextSelector = "span"
)

// ParseDocument parses a fetched quote page into a read-only document.
func ParseDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse quote page: %w", err)
	}
	return doc, nil
}

// ExtractStaticPrice returns the price shown in the first span.price element
// of doc. Thousands separators are removed before parsing.
//
// A missing element yields a *quote.StructureError; text that is not a finite
// number yields a *quote.FormatError.
func ExtractStaticPrice(doc *goquery.Document) (float64, error) {
	outer := doc.Find(PriceSelector).First()
	if outer.Length() == 0 {
		return 0, &quote.StructureError{Page: pageStatic, Marker: PriceSelector}
	}
	inner := outer.Find(PriceTextSelector).First()
	if inner.Length() == 0 {
		return 0, &quote.StructureError{Page: pageStatic, Marker: PriceSelector + " > " + PriceTextSelector}
	}

	raw := inner.Text()
	cleaned := strings.ReplaceAll(strings.TrimSpace(norm.NFKC.String(raw)), ",", "")
	price, err := parseDecimal(cleaned)
	if err != nil {
		return 0, &quote.FormatError{Page: pageStatic, Text: raw, Err: err}
	}
	return price, nil
}

// Fetcher returns the HTML body found at url.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// StaticScraper fetches the server-rendered quote page and extracts its price.
type StaticScraper struct {
	fetcher  Fetcher
	template string
	log      zerolog.Logger
}

// StaticOption configures a StaticScraper.
type StaticOption func(*StaticScraper)

// WithURL overrides the quote page URL template. It must contain {symbol}.
func WithURL(template string) StaticOption {
	return func(s *StaticScraper) { s.template = template }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) StaticOption {
	return func(s *StaticScraper) { s.log = l }
}

// NewStaticScraper creates a StaticScraper reading pages through f.
func NewStaticScraper(f Fetcher, opts ...StaticOption) *StaticScraper {
	s := &StaticScraper{
		fetcher:  f,
		template: DefaultStaticURL,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Price fetches the quote page for symbol and returns its price.
func (s *StaticScraper) Price(ctx context.Context, symbol quote.Symbol) (float64, error) {
	u, err := quote.URL(s.template, symbol)
	if err != nil {
		return 0, err
	}
	s.log.Debug().Str("symbol", symbol.String()).Str("url", u).Msg("fetching quote page")

	body, err := s.fetcher.Get(ctx, u)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", u, err)
	}
	doc, err := ParseDocument(bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	price, err := ExtractStaticPrice(doc)
	if err != nil {
		var fe *quote.FormatError
		if errors.As(err, &fe) {
			s.log.Debug().Str("symbol", symbol.String()).Str("text", fe.Text).Msg("price text not numeric")
		}
		return 0, err
	}
	s.log.Debug().Str("symbol", symbol.String()).Float64("price", price).Msg("price extracted")
	return price, nil
}
