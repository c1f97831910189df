package cli

import (
	"context"

	"github.com/rs/zerolog"

	"bloomed/internal/backend/local"
	"bloomed/internal/backend/remote"
	"bloomed/internal/chat"
	"bloomed/internal/config"
	"bloomed/internal/persona"
)

// backendFactory returns the chat.Factory for the configured backend kind.
func backendFactory(cfg config.Config, log zerolog.Logger) chat.Factory {
	if cfg.Backend == config.BackendLocal {
		return func(context.Context) (chat.Backend, error) {
			b, err := local.New(local.Config{
				ModelPath:   cfg.ModelPath,
				ContextSize: cfg.LlamaCtx,
				Threads:     cfg.LlamaThreads,
				GPULayers:   cfg.GPULayers,
				Logger:      log.With().Str("backend", config.BackendLocal).Logger(),
			})
			if err != nil {
				return nil, err
			}
			return b, nil
		}
	}
	return func(context.Context) (chat.Backend, error) {
		b, err := remote.New(remote.Config{
			BaseURL:        cfg.BaseURL,
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			RequestTimeout: cfg.RequestTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// newService wires config, persona and the backend factory into a chat.Service.
func newService(cfg config.Config, log zerolog.Logger) *chat.Service {
	return chat.New(fnBackendFactory(cfg, log), chat.Options{
		Defaults: chat.Defaults{
			MaxNewTokens: cfg.MaxNewTokens,
			Temperature:  cfg.Temp(),
			TopP:         cfg.TopPValue(),
		},
		Persona:     persona.DefaultSystem,
		Logger:      log,
		BackendName: cfg.Backend,
	})
}
