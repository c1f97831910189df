package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Options configures a Service.
type Options struct {
	Defaults Defaults
	// Persona returns the system prompt injected when a conversation has none.
	Persona func() string
	Logger  zerolog.Logger
	// BackendName labels log lines ("remote", "local").
	BackendName string
}

// Service is the single generation entry point. The Backend is built on first
// use (or Load) and reused for the life of the process.
type Service struct {
	factory  Factory
	defaults Defaults
	persona  func() string
	log      zerolog.Logger

	mu      sync.RWMutex
	backend Backend
	builds  singleflight.Group
}

// New constructs a Service around factory. The factory is not called until
// Load or the first Generate.
func New(factory Factory, opts Options) *Service {
	persona := opts.Persona
	if persona == nil {
		persona = func() string { return "" }
	}
	name := opts.BackendName
	if name == "" {
		name = "backend"
	}
	return &Service{
		factory:  factory,
		defaults: opts.Defaults,
		persona:  persona,
		log:      opts.Logger.With().Str("backend", name).Logger(),
	}
}

// Load forces backend construction so the first request does not pay the
// cold-start cost.
func (s *Service) Load(ctx context.Context) error {
	_, err := s.ensureBackend(ctx)
	return err
}

// Ready reports whether the backend has been constructed.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend != nil
}

// Generate produces one assistant reply for msgs. Backend errors are logged
// and returned unchanged.
func (s *Service) Generate(ctx context.Context, msgs []Message, p Params) (string, error) {
	b, err := s.ensureBackend(ctx)
	if err != nil {
		return "", err
	}
	msgs = withPersona(msgs, s.persona)
	rp := s.defaults.Resolve(p)

	start := time.Now()
	c, err := b.Generate(ctx, msgs, rp)
	if err != nil {
		s.log.Error().Err(err).Dur("dur", time.Since(start)).Msg("generation failed")
		return "", err
	}
	reply := finalize(c, rp.Stop)
	s.log.Debug().
		Int("messages", len(msgs)).
		Int("max_new_tokens", rp.MaxNewTokens).
		Int("raw_len", len(c.Text)).
		Int("reply_len", len(reply)).
		Dur("dur", time.Since(start)).
		Msg("generation done")
	return reply, nil
}

// ensureBackend returns the constructed backend, building it if needed.
// Concurrent callers share a single construction; a failure is reported to all
// of them and nothing is cached.
func (s *Service) ensureBackend(ctx context.Context) (Backend, error) {
	s.mu.RLock()
	b := s.backend
	s.mu.RUnlock()
	if b != nil {
		return b, nil
	}
	// The first caller's cancellation must not fail the others sharing the build.
	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := s.builds.Do("backend", func() (any, error) {
		s.mu.RLock()
		existing := s.backend
		s.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}
		s.log.Info().Msg("initializing backend")
		start := time.Now()
		nb, err := s.factory(buildCtx)
		if err != nil {
			if !IsConfiguration(err) {
				err = ErrConfiguration("backend initialization failed", err)
			}
			s.log.Error().Err(err).Msg("backend initialization failed")
			return nil, err
		}
		if nb == nil {
			err := ErrConfiguration("backend factory returned no backend", nil)
			s.log.Error().Err(err).Msg("backend initialization failed")
			return nil, err
		}
		s.mu.Lock()
		s.backend = nb
		s.mu.Unlock()
		s.log.Info().Dur("dur", time.Since(start)).Msg("backend ready")
		return nb, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Backend), nil
}
