package fastalloc

import "errors"

var (
	ErrNoSpace            = errors.New("memory no space")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrZeroBatch          = errors.New("batch num is zero")
	ErrNilPointer         = errors.New("nil pointer")
	ErrPoolClosed         = errors.New("pool closed")
	ErrUnsupportedMemory  = errors.New("memory type not support")
	ErrThreadCacheClosed  = errors.New("thread cache closed")
	ErrInvalidPageRequest = errors.New("page count must be positive")
)
