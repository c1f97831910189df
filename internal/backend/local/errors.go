package local

import "errors"

var (
	errModelClosed  = errors.New("local model is closed")
	errNotBuilt     = errors.New("llama support not built (missing 'llama' build tag)")
	errModelNotInit = errors.New("llama model not initialized")
)
