// Package quote holds the vocabulary shared by the quote page adapters:
// ticker symbols, quote page URL templates and the extraction error kinds.
package quote

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
)

// SymbolPlaceholder is replaced by the escaped symbol in URL templates.
const SymbolPlaceholder = "{symbol}"

// Symbol identifies a tradable instrument. It is opaque to this package and
// only ever ends up in a request URL.
type Symbol string

// Validate rejects symbols that cannot sensibly be placed in a quote URL.
// Surrounding spaces are tolerated; control characters are not, wherever
// they appear.
func (s Symbol) Validate() error {
	for _, r := range string(s) {
		if unicode.IsControl(r) {
			return errors.New("symbol contains control characters")
		}
	}
	v := strings.TrimSpace(string(s))
	if v == "" {
		return errors.New("symbol is empty")
	}
	if strings.IndexFunc(v, unicode.IsSpace) >= 0 {
		return errors.New("symbol contains whitespace")
	}
	return nil
}

func (s Symbol) String() string { return strings.TrimSpace(string(s)) }

// URL expands template for symbol. Every occurrence of SymbolPlaceholder is
// replaced with the query-escaped symbol.
func URL(template string, symbol Symbol) (string, error) {
	if !strings.Contains(template, SymbolPlaceholder) {
		return "", errors.New("url template has no " + SymbolPlaceholder + " placeholder")
	}
	if err := symbol.Validate(); err != nil {
		return "", err
	}
	return strings.ReplaceAll(template, SymbolPlaceholder, url.QueryEscape(symbol.String())), nil
}
