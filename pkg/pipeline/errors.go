package pipeline

import "errors"

var (
	// ErrBusy indicates another Transaction occupies the pipeline.
	ErrBusy = errors.New("pipeline busy")
	// ErrNotCurrent indicates the Transaction has already finished
	// and no longer owns the pipeline.
	ErrNotCurrent = errors.New("transaction not current")
	// ErrInvalidState indicates the operation isn't allowed in the
	// current state of the Transaction.
	ErrInvalidState = errors.New("invalid pipeline state")
)
