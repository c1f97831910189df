// Package registry locates the GGUF weights and tokenizer metadata that make
// up a local model source.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bloomed/internal/common/fsutil"
)

// TokenizerConfigName is the Hugging Face tokenizer metadata file looked up
// next to the weights.
const TokenizerConfigName = "tokenizer_config.json"

// Source describes a resolved local model.
type Source struct {
	// ModelFile is the absolute path of the .gguf weights.
	ModelFile string
	// Dir is the directory holding ModelFile.
	Dir string
	// TokenizerConfig is the absolute path of tokenizer_config.json, or empty
	// when the source has none.
	TokenizerConfig string
}

// ErrNoModel is returned when a directory holds no .gguf file.
var ErrNoModel = errors.New("no .gguf model found")

// Resolve turns a configured model location into a Source. The location is
// either a .gguf file or a directory; in a directory the first .gguf in
// lexical order is used.
func Resolve(location string) (Source, error) {
	abs, err := fsutil.AbsPath(location)
	if err != nil {
		return Source{}, err
	}
	if abs == "" {
		return Source{}, errors.New("model path is empty")
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Source{}, fmt.Errorf("model source: %w", err)
	}
	var src Source
	if fi.IsDir() {
		files, err := Scan(abs)
		if err != nil {
			return Source{}, err
		}
		if len(files) == 0 {
			return Source{}, fmt.Errorf("%w in %s", ErrNoModel, abs)
		}
		src = Source{ModelFile: files[0], Dir: abs}
	} else {
		if !isGGUF(abs) {
			return Source{}, fmt.Errorf("model source %s is not a .gguf file", abs)
		}
		src = Source{ModelFile: abs, Dir: filepath.Dir(abs)}
	}
	if tc := filepath.Join(src.Dir, TokenizerConfigName); fsutil.IsRegularFile(tc) {
		src.TokenizerConfig = tc
	}
	return src, nil
}

// Scan lists the .gguf files directly inside dir, sorted by name.
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isGGUF(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func isGGUF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".gguf")
}
