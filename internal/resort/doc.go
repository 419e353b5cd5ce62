// Package resort defines the elevation records produced by a crawl and the
// validation that promotes raw extraction output into persisted records.
package resort
