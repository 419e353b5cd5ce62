// Package extract turns listing page markup into raw resort records. The
// markup contract lives behind Extractor so the crawler and validator do not
// depend on the page structure.
package extract

import (
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/skiresort-ranker/internal/resort"
)

// ErrNoResortList is wrapped by Error when a page has no resort list container.
var ErrNoResortList = errors.New("resort list container not found")

// ErrPagination is wrapped by Error when the pagination control cannot be read.
var ErrPagination = errors.New("unreadable pagination control")

// Extractor reads one listing page.
type Extractor interface {
	// PageCount returns the number of listing pages advertised by the first page.
	PageCount(doc *goquery.Document) (int, error)
	// Extract returns the raw records of one page, in page order.
	Extract(doc *goquery.Document) ([]resort.RawRecord, error)
}

// Error is a page-level extraction failure.
type Error struct {
	Version string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract (%s): %v", e.Version, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
