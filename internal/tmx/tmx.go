// Package tmx reads quote prices from the TMX Money quote pages. Two
// independent adapters exist, one per page layout: the server-rendered
// quote.php page (see StaticScraper) and the client-rendered quote page read
// through a browser session (see RenderedExtractor).
package tmx

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var errOutOfRange = errors.New("value out of float64 range")

const (
	pageStatic   = "static"
	pageRendered = "rendered"
)

// parseDecimal converts cleaned price text to a finite float64. Only plain
// decimal notation with an optional sign and exponent is accepted.
func parseDecimal(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errOutOfRange
	}
	return f, nil
}
