package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies why a refresh cycle could not produce a table.
type Kind string

const (
	// KindFetch covers network and HTTP status failures.
	KindFetch Kind = "fetch"

	// KindParse covers undecodable or malformed tabular data.
	KindParse Kind = "parse"

	// KindFeedLookup means the index feed had no entry with the wanted title.
	KindFeedLookup Kind = "feed_lookup"
)

var (
	// ErrFeedEntryNotFound is wrapped by feed lookup errors.
	ErrFeedEntryNotFound = errors.New("feed entry not found")

	// ErrBodyTooLarge is wrapped when a download exceeds the size limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Error wraps a refresh failure with its kind. All kinds are recoverable: the
// refresher keeps the previous snapshot and retries on the next tick.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, url string, err error) *Error {
	return &Error{Kind: kind, URL: url, Err: err}
}

// KindOf returns the kind of err, or "" when err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
