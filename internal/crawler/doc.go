// Package crawler walks the paginated resort listing for one address and
// turns every page into validated resort records.
//
// Pages are fetched strictly one after another. The first page decides how
// many pages exist; a failure on any later page only costs that page.
package crawler
