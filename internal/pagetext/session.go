package pagetext

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/stockyhq/stocky/internal/browser"
)

// Session serves a saved HTML page through the browser.Session interface.
// Navigate only records the URL; Reload re-reads the file from disk.
type Session struct {
	Path   string
	Logger zerolog.Logger

	mu  sync.Mutex
	doc *html.Node
	url string
}

var _ browser.Session = (*Session)(nil)

// Open parses the page at path.
func Open(path string, logger zerolog.Logger) (*Session, error) {
	s := &Session{Path: path, Logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromHTML builds a Session over in-memory HTML. Reload is a no-op for it.
func FromHTML(page []byte) (*Session, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Session{doc: doc, Logger: zerolog.Nop()}, nil
}

func (s *Session) load() error {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return fmt.Errorf("read replay page: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("parse replay page %s: %w", s.Path, err)
	}
	s.doc = doc
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
	s.Logger.Debug().Str("url", url).Str("replay", s.Path).Msg("navigate (replay)")
	return nil
}

// URL returns the last URL passed to Navigate.
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Session) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Path == "" {
		return nil
	}
	return s.load()
}

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.lookup(selector)
	if n == nil {
		return "", fmt.Errorf("%w: %s", browser.ErrNoElement, selector)
	}
	return Visible(n), nil
}

// lookup resolves bare "#id" and tag selectors by walking the tree directly;
// anything else goes through a CSS selector engine.
func (s *Session) lookup(selector string) *html.Node {
	sel := strings.TrimSpace(selector)
	if id, ok := strings.CutPrefix(sel, "#"); ok && isName(id) {
		return FindByID(s.doc, id)
	}
	if isName(sel) {
		return FindFirst(s.doc, sel)
	}
	found := goquery.NewDocumentFromNode(s.doc).Find(selector)
	if found.Length() == 0 {
		return nil
	}
	return found.Get(0)
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

func (s *Session) Close() error { return nil }
