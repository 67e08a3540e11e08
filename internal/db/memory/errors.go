package memory

import "errors"

var (
	ErrNotFound     = errors.New("[memory]: key not found")
	ErrDuplicateKey = errors.New("[memory]: duplicate key")
)
