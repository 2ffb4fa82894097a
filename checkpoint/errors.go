package checkpoint

import "errors"

var (
	ErrLoadFailed   = errors.New("checkpoint load failed")
	ErrSaveFailed   = errors.New("checkpoint save failed")
	ErrUnknownStore = errors.New("unknown checkpoint store")
)
