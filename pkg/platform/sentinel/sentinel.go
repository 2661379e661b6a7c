package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Catalogs and infrastructure layers
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
//   - ErrNotFound: the key is not in the catalog
//   - ErrUnavailable: an upstream resource could not be reached
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
