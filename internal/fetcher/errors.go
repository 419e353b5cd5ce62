package fetcher

import "fmt"

// Kind classifies why a page fetch failed.
type Kind int

// Fetch failure kinds.
const (
	KindUnknown Kind = iota
	KindRateLimited
	KindNotFound
	KindRedirected
	KindAddressMismatch
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindRedirected:
		return "redirected"
	case KindAddressMismatch:
		return "address_mismatch"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrRateLimited     = &Error{Kind: KindRateLimited}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrRedirected      = &Error{Kind: KindRedirected}
	ErrAddressMismatch = &Error{Kind: KindAddressMismatch}
	ErrUnknown         = &Error{Kind: KindUnknown}
)

// Error is returned by Fetch for every non-success outcome.
type Error struct {
	Kind       Kind
	Address    string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindRateLimited:
		msg = "too many requests, try again later with --slow"
	case KindNotFound, KindAddressMismatch:
		msg = fmt.Sprintf("invalid address: %s", e.Address)
	case KindRedirected:
		msg = "redirected, try again with --redirect"
	default:
		msg = fmt.Sprintf("failed to fetch: %s", e.Address)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
