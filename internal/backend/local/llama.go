//go:build llama

package local

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaPredictor owns a model loaded through go-llama.cpp.
type llamaPredictor struct {
	model *llama.LLama
}

func loadLlama(modelPath string, o loadOptions) (predictor, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{}
	if o.ContextSize > 0 {
		mo = append(mo, llama.SetContext(o.ContextSize))
	}
	if o.GPULayers > 0 {
		mo = append(mo, llama.SetGPULayers(o.GPULayers))
	}
	m, err := llama.New(modelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaPredictor{model: m}, nil
}

func (p *llamaPredictor) Predict(ctx context.Context, prompt string, o predictOptions) (string, error) {
	if p.model == nil {
		return "", errModelNotInit
	}
	// Stop early once the caller gives up.
	p.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	defer p.model.SetTokenCallback(nil)

	text, err := p.model.Predict(prompt, mapPredictOptions(o)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return text, nil
}

func (p *llamaPredictor) Close() error {
	if p.model != nil {
		p.model.Free()
		p.model = nil
	}
	return nil
}

// mapPredictOptions converts our options into go-llama.cpp options. EOS is
// never ignored.
func mapPredictOptions(o predictOptions) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, o.MaxTokens)),
		llama.SetThreads(max(1, o.Threads)),
		llama.SetTemperature(float32(o.Temperature)),
		llama.SetTopP(float32(o.TopP)),
		llama.SetTopK(llama.DefaultOptions.TopK),
		llama.SetPenalty(llama.DefaultOptions.Penalty),
	}
	if len(o.StopWords) > 0 {
		po = append(po, llama.SetStopWords(o.StopWords...))
	}
	return po
}
