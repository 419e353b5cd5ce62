package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/resort"
)

// SkiresortV1 is the version tag of the skiresort.info listing layout contract:
//
//	#resortList > *                                  one entry per resort
//	  a.h3 (minus any span badge)                    display name
//	  .info-table tr:nth-child(2) td:last-child > *  [drop, highest, lowest] as "<n> m"
//	#pagebrowser1 li:last-child > a[href*="page/N"]  last page index
const SkiresortV1 = "skiresort/v1"

const (
	resortListSelector = "#resortList"
	titleSelector      = "a.h3"
	badgeSelector      = "span"
	heightCellSelector = ".info-table tr:nth-child(2) td:last-child"
	pagerSelector      = "#pagebrowser1"
	lastPageSelector   = "#pagebrowser1 li:last-child > a"
)

var leadingNumber = regexp.MustCompile(`^[-+]?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`)

// Skiresort implements Extractor for the SkiresortV1 layout.
type Skiresort struct {
	logger *zap.Logger
}

// NewSkiresort creates a Skiresort extractor.
func NewSkiresort(logger *zap.Logger) *Skiresort {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Skiresort{logger: logger}
}

// PageCount reads the last page index from the pager. Pages without a pager
// have exactly one page.
func (s *Skiresort) PageCount(doc *goquery.Document) (int, error) {
	if doc.Find(pagerSelector).Length() == 0 {
		return 1, nil
	}
	href, ok := doc.Find(lastPageSelector).First().Attr("href")
	if !ok {
		return 0, &Error{Version: SkiresortV1, Err: fmt.Errorf("%w: last page link missing", ErrPagination)}
	}
	_, rest, found := strings.Cut(href, "page/")
	if !found {
		return 0, &Error{Version: SkiresortV1, Err: fmt.Errorf("%w: no page segment in %q", ErrPagination, href)}
	}
	segment, _, _ := strings.Cut(rest, "/")
	n, err := strconv.Atoi(strings.TrimSpace(segment))
	if err != nil || n < 1 {
		return 0, &Error{Version: SkiresortV1, Err: fmt.Errorf("%w: page index %q", ErrPagination, segment)}
	}
	return n, nil
}

// Extract reads every entry of the resort list. Entries without a height cell
// holding at least two values are skipped.
func (s *Skiresort) Extract(doc *goquery.Document) ([]resort.RawRecord, error) {
	list := doc.Find(resortListSelector).First()
	if list.Length() == 0 {
		return nil, &Error{Version: SkiresortV1, Err: ErrNoResortList}
	}

	var out []resort.RawRecord
	list.Children().Each(func(_ int, entry *goquery.Selection) {
		title := entry.Find(titleSelector).First()
		title.Find(badgeSelector).Remove()
		name := strings.TrimSpace(title.Text())

		cell := entry.Find(heightCellSelector).First()
		values := cell.Children()
		if cell.Length() == 0 || values.Length() < 2 {
			s.logger.Info("failed to find height information", zap.String("resort", name))
			return
		}

		raw := resort.RawRecord{
			Name:    name,
			Drop:    parseMeters(values.Eq(0).Text()),
			Highest: parseMeters(values.Eq(1).Text()),
		}
		if values.Length() > 2 {
			raw.Lowest = parseMeters(values.Eq(2).Text())
		}
		out = append(out, raw)
	})
	return out, nil
}

// parseMeters reads the leading number of a "<number> m" label. Labels that do
// not start with a number yield NaN.
func parseMeters(label string) *float64 {
	m := leadingNumber.FindString(strings.TrimSpace(label))
	if m == "" {
		return resort.Float(math.NaN())
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return resort.Float(math.NaN())
	}
	return resort.Float(v)
}
