package texdoc

import "errors"

// Errors returned by document operations.
var (
	ErrReadOnly          = errors.New("document is read-only")
	ErrClosed            = errors.New("document is closed")
	ErrClonesOpen        = errors.New("document has open clones")
	ErrTransactionActive = errors.New("transaction already active")
	ErrTransactionDone   = errors.New("transaction already finished")
)
