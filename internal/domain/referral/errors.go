package referral

import "errors"

var ErrAlreadyGranted = errors.New("commission already granted for purchase")
