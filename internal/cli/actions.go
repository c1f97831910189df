package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bloomed/internal/chat"
	"bloomed/internal/config"
	"bloomed/internal/httpapi"
	"bloomed/internal/logging"
)

// Overridable for tests.
var (
	fnResolveConfig  = config.Resolve
	fnBackendFactory = backendFactory
	fnNotifyContext  = func(ctx context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	}
)

// errNoPrompt is returned by generate when neither flag nor stdin supplied text.
var errNoPrompt = errors.New("no prompt provided")

// loadConfig resolves configuration and applies command-line overrides.
func loadConfig(opts *Options) (config.Config, zerolog.Logger, error) {
	cfg, err := fnResolveConfig(opts.ConfigPath)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	return cfg, logging.New(cfg.LogLevel, opts.Console), nil
}

// serveOptions carries the serve subcommand's flags.
type serveOptions struct {
	Addr     string
	NoWarmup bool
}

func runServe(ctx context.Context, opts *Options, so serveOptions) error {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if so.Addr != "" {
		cfg.Addr = so.Addr
	}

	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetChatTimeout(cfg.RequestTimeout())
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, nil, nil)

	ctx, stop := fnNotifyContext(ctx)
	defer stop()
	httpapi.SetBaseContext(ctx)

	svc := newService(cfg, log)
	if !so.NoWarmup {
		start := time.Now()
		if err := svc.Load(ctx); err != nil {
			return fmt.Errorf("warm-up: %w", err)
		}
		log.Info().Str("backend", cfg.Backend).Dur("dur", time.Since(start)).Msg("backend ready")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc, cfg.ModelInfo()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("backend", cfg.Backend).Msg("bloomed listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// generateOptions carries the generate subcommand's flags. The pointer fields
// are nil unless the flag was set explicitly.
type generateOptions struct {
	Prompt      string
	MaxNew      *int
	Temperature *float64
	TopP        *float64
	Stop        []string
}

func runGenerate(ctx context.Context, opts *Options, gopts generateOptions, stdin io.Reader, stdout io.Writer) error {
	prompt := gopts.Prompt
	if prompt == "" && stdin != nil {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		prompt = string(b)
	}
	if strings.TrimSpace(prompt) == "" {
		return errNoPrompt
	}

	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}
	svc := newService(cfg, log)
	if err := svc.Load(ctx); err != nil {
		return err
	}
	out, err := svc.Generate(ctx, []chat.Message{{Role: chat.RoleUser, Content: prompt}}, chat.Params{
		MaxNewTokens: gopts.MaxNew,
		Temperature:  gopts.Temperature,
		TopP:         gopts.TopP,
		Stop:         gopts.Stop,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, out)
	return err
}

func runInfo(opts *Options, stdout io.Writer) error {
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return err
	}
	return writeJSON(stdout, cfg.ModelInfo())
}
