package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks runs that cannot be anchored to the target period.
	ErrConfiguration = errors.New("analysis configuration error")

	ErrTargetPriceColumnMissing = fmt.Errorf("%w: target price column missing", ErrConfiguration)
	ErrTargetIndexColumnMissing = fmt.Errorf("%w: target market index column missing", ErrConfiguration)

	ErrInvalidMode = errors.New("invalid analysis mode")
)
