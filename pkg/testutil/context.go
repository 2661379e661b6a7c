package testutil

import (
	"context"
	"time"

	"plaingov/pkg/requestcontext"
)

// FixedTime is the clock value tests use for provenance dates.
var FixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// FixedDate is FixedTime formatted the way attribution lines print it.
const FixedDate = "2025-03-14"

// Context returns a background context carrying a request ID.
func Context() context.Context {
	return requestcontext.WithRequestID(context.Background(), "test-request")
}

// Clock returns a clock func pinned to FixedTime.
func Clock() func() time.Time {
	return func() time.Time { return FixedTime }
}
