package scan

import "errors"

// ErrSpanExtraction reports a match whose spans could not be derived.
// Callers treat it as "no candidate this step" rather than fatal.
var ErrSpanExtraction = errors.New("cannot extract label spans")
