package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Fetchers and the aggregator
// return these (optionally wrapped) so callers can classify failures
// without inspecting messages.
//
//   - ErrNotFound: a publisher no longer serves the requested file
//   - ErrNotLoaded: a dataset store has never received a snapshot
//   - ErrUnavailable: a publisher answered with a non-success status
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrNotLoaded   = errors.New("not loaded")
	ErrUnavailable = errors.New("unavailable")
)
