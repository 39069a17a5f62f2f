package purchase

import "errors"

var (
	ErrNotFound       = errors.New("purchase not found")
	ErrAmountMismatch = errors.New("confirmation amount does not match purchase")
	ErrAlreadyFailed  = errors.New("purchase already marked failed")
	ErrNotPending     = errors.New("purchase is not pending")
)
