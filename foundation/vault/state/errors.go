package state

import "errors"

// Set of failures the four mutating operations report. Every failure is
// all-or-nothing: no ledger effect survives a failed operation.
var (
	ErrZeroDeposit          = errors.New("deposit value must be greater than zero")
	ErrZeroDuration         = errors.New("lock duration must be greater than zero")
	ErrPositionDoesNotExist = errors.New("position does not exist")
	ErrNotOwner             = errors.New("caller does not own the position")
	ErrStakeNotMatured      = errors.New("stake has not matured")
	ErrAlreadyMatured       = errors.New("stake has already matured")
	ErrNothingToHarvest     = errors.New("nothing to harvest")
	ErrReentrancy           = errors.New("nested operation detected")
)
