package analysis

import "errors"

var (
	ErrInvalidUpload   = errors.New("invalid upload")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoText          = errors.New("document contains no readable text")
)
