// Package local implements chat.Backend with a GGUF model loaded in-process
// through llama.cpp.
//
// The llama.cpp runtime is only linked with `-tags=llama` (cgo). Without the
// tag New fails with a configuration error instead of pretending to generate.
package local

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"bloomed/internal/chat"
	"bloomed/internal/registry"
)

const (
	backendName = "local"
	// minTemperature keeps sampling on: llama.cpp decodes greedily at 0.
	minTemperature = 0.01
)

// Config configures the local backend.
type Config struct {
	// ModelPath is a .gguf file or a directory holding one, optionally next to
	// a tokenizer_config.json.
	ModelPath   string
	ContextSize int
	Threads     int
	// GPULayers: >0 offloads that many layers, <0 forces CPU, 0 decides from
	// the detected hardware.
	GPULayers int
	Logger    zerolog.Logger
}

// loadOptions are applied once when the weights are loaded.
type loadOptions struct {
	ContextSize int
	GPULayers   int
}

// predictOptions are applied per generation.
type predictOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	Threads     int
	StopWords   []string
}

// predictor is a loaded model able to continue a prompt.
type predictor interface {
	// Predict returns the continuation of prompt (and, on some runtimes, the
	// prompt itself as a prefix).
	Predict(ctx context.Context, prompt string, o predictOptions) (string, error)
	Close() error
}

// loadModel is swapped in tests.
var loadModel = loadLlama

// Backend runs a locally resident model. Generation is serialized because the
// llama.cpp context is not reentrant.
type Backend struct {
	mu       sync.Mutex
	model    predictor
	template chat.Template
	eos      string
	special  []string
	threads  int
	device   string
}

// New resolves the model source, reads its tokenizer metadata, picks the
// device and loads the weights. Every failure is a configuration error.
func New(cfg Config) (*Backend, error) {
	log := cfg.Logger.With().Str("backend", backendName).Logger()
	src, err := registry.Resolve(cfg.ModelPath)
	if err != nil {
		return nil, chat.ErrConfiguration("local model source", err)
	}
	tc, err := loadTokenizerConfig(src.TokenizerConfig)
	if err != nil {
		return nil, chat.ErrConfiguration("tokenizer config", err)
	}
	tmpl, err := newJinjaTemplate(tc.ChatTemplate, tc.BOS, tc.EOS)
	if err != nil {
		// An unusable template is not fatal: prompts use the plain format.
		log.Warn().Err(err).Msg("chat template unavailable, using fallback prompt format")
		tmpl = nil
	}
	device, layers := placement(cfg.GPULayers)
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	log.Info().
		Str("model", src.ModelFile).
		Str("device", device).
		Int("gpu_layers", layers).
		Int("ctx", cfg.ContextSize).
		Bool("chat_template", tmpl != nil).
		Msg("loading local model")
	m, err := loadModel(src.ModelFile, loadOptions{ContextSize: cfg.ContextSize, GPULayers: layers})
	if err != nil {
		if chat.IsConfiguration(err) {
			return nil, err
		}
		return nil, chat.ErrConfiguration("load model "+src.ModelFile, err)
	}
	return &Backend{
		model:    m,
		template: tmpl,
		eos:      tc.EOS,
		special:  tc.Special,
		threads:  threads,
		device:   device,
	}, nil
}

// Device reports where the model was placed at load time.
func (b *Backend) Device() string { return b.device }

// Generate renders the conversation into a prompt and samples a continuation.
func (b *Backend) Generate(ctx context.Context, msgs []chat.Message, p chat.Resolved) (chat.Completion, error) {
	prompt, _ := chat.RenderPrompt(b.template, msgs)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model == nil {
		return chat.Completion{}, chat.ErrGeneration(backendName, errModelClosed)
	}
	text, err := b.model.Predict(ctx, prompt, b.predictOptions(p))
	if err != nil {
		return chat.Completion{}, chat.ErrGeneration(backendName, err)
	}
	// The echoed prompt still carries the template's special tokens, so it is
	// removed before they are.
	text = strings.TrimPrefix(text, prompt)
	return chat.Completion{Text: stripSpecial(text, b.special), Prompt: prompt}, nil
}

func (b *Backend) predictOptions(p chat.Resolved) predictOptions {
	o := predictOptions{
		MaxTokens:   max(1, p.MaxNewTokens),
		Temperature: max(minTemperature, p.Temperature),
		TopP:        p.TopP,
		Threads:     b.threads,
	}
	// EOS doubles as the pad/terminator text so generation ends naturally.
	// Caller stop sequences are applied by the service after generation, in
	// list order; the runtime would cut at the earliest one instead.
	if b.eos != "" {
		o.StopWords = []string{b.eos}
	}
	return o
}

// Close releases the model. The backend fails every later Generate.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model == nil {
		return nil
	}
	err := b.model.Close()
	b.model = nil
	return err
}
