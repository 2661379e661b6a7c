package retrieval

// Outcome is the result of one retrieval: either Success or Failure, never
// both. Callers switch on the concrete type.
type Outcome interface {
	isOutcome()
}

// Success carries the extracted page text and the UTC date it was fetched
// (YYYY-MM-DD). VerifiedOn is shown to users verbatim.
type Success struct {
	Text       string
	VerifiedOn string
}

// FailureKind classifies why a retrieval failed.
type FailureKind string

const (
	KindHTTP    FailureKind = "http"
	KindNetwork FailureKind = "network"
	KindTimeout FailureKind = "timeout"
	KindExtract FailureKind = "extract"
)

// Failure describes a retrieval that produced no usable text.
type Failure struct {
	Kind    FailureKind
	Details string
}

func (Success) isOutcome() {}
func (Failure) isOutcome() {}

// String renders the failure the way it is shown to users. HTTP failures
// already read "HTTP <code>: <status text>" and are returned as is.
func (f Failure) String() string {
	if f.Kind == KindHTTP {
		return f.Details
	}
	return string(f.Kind) + ": " + f.Details
}

// transient reports whether another attempt could succeed.
func (f Failure) transient(status int) bool {
	switch f.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindHTTP:
		return status >= 500 || status == 429
	}
	return false
}
