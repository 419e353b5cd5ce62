package crawler

import (
	"strconv"
	"strings"
)

// PageAddress names one page of a listing relative to the site base URL.
type PageAddress struct {
	Base string
	Page int
}

// String renders the first page as the bare base and later pages as
// "<base>/page/<n>".
func (a PageAddress) String() string {
	base := strings.TrimSuffix(a.Base, "/")
	if a.Page <= 1 {
		return base
	}
	return base + "/page/" + strconv.Itoa(a.Page)
}

// Pages lists the addresses of pages 2..count in order.
func Pages(base string, count int) []PageAddress {
	if count < 2 {
		return nil
	}
	out := make([]PageAddress, 0, count-1)
	for i := 2; i <= count; i++ {
		out = append(out, PageAddress{Base: base, Page: i})
	}
	return out
}
