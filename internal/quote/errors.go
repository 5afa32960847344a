package quote

import (
	"errors"
	"fmt"
)

var (
	// ErrStructure matches any *StructureError via errors.Is.
	ErrStructure = errors.New("page structure not recognised")
	// ErrFormat matches any *FormatError via errors.Is.
	ErrFormat = errors.New("price text is not numeric")
)

// StructureError reports that an expected element or text marker is missing
// from a page. It usually means the site layout changed.
type StructureError struct {
	// Page names the layout being read, e.g. "static" or "rendered".
	Page string
	// Marker is the selector or literal token that could not be found.
	Marker string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s page: marker %q not found", e.Page, e.Marker)
}

func (e *StructureError) Is(target error) bool { return target == ErrStructure }

// FormatError reports that the price text was located but does not parse as
// a finite number.
type FormatError struct {
	Page string
	// Text is the raw text as it was found on the page.
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s page: price %q is not numeric", e.Page, e.Text)
	}
	return fmt.Sprintf("%s page: price %q is not numeric: %v", e.Page, e.Text, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }
