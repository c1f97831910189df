//go:build !llama

package local

import "bloomed/internal/chat"

// loadLlama refuses to load without the llama runtime linked in, so builds
// without cgo never fake a local model.
func loadLlama(modelPath string, o loadOptions) (predictor, error) {
	return nil, chat.ErrConfiguration("local backend unavailable", errNotBuilt)
}
