package payout

import "errors"

var (
	ErrBelowMinimum          = errors.New("amount below minimum payout threshold")
	ErrRequestAlreadyPending = errors.New("a pending payout request already exists")
	ErrMethodNotFound        = errors.New("payout method not found")
	ErrRequestNotFound       = errors.New("payout request not found")
	ErrNotPending            = errors.New("payout request is not pending")
)
