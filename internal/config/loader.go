package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"bloomed/internal/common/fsutil"
	"bloomed/pkg/types"
)

// Backend names.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

// Config holds runtime parameters for the service.
// Zero values in a file mean "unspecified" and keep the defaults.
type Config struct {
	Addr                  string   `json:"addr" yaml:"addr" toml:"addr"`
	Backend               string   `json:"backend" yaml:"backend" toml:"backend"`
	APIKey                string   `json:"api_key" yaml:"api_key" toml:"api_key"`
	BaseURL               string   `json:"base_url" yaml:"base_url" toml:"base_url"`
	Model                 string   `json:"model" yaml:"model" toml:"model"`
	ModelPath             string   `json:"model_path" yaml:"model_path" toml:"model_path"`
	MaxNewTokens          int      `json:"max_new_tokens" yaml:"max_new_tokens" toml:"max_new_tokens"`
	Temperature           *float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP                  *float64 `json:"top_p" yaml:"top_p" toml:"top_p"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	LlamaCtx              int      `json:"llama_ctx" yaml:"llama_ctx" toml:"llama_ctx"`
	LlamaThreads          int      `json:"llama_threads" yaml:"llama_threads" toml:"llama_threads"`
	GPULayers             int      `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	LogLevel              string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes          int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	temp, topP := 0.7, 0.95
	return Config{
		Addr:                  "0.0.0.0:8000",
		Backend:               BackendRemote,
		BaseURL:               "https://api.deepseek.com",
		Model:                 "deepseek-chat",
		MaxNewTokens:          256,
		Temperature:           &temp,
		TopP:                  &topP,
		RequestTimeoutSeconds: 120,
		LlamaCtx:              4096,
		LogLevel:              "info",
		MaxBodyBytes:          1 << 20,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Resolve builds the effective configuration: .env file, defaults, optional
// config file, then environment variables, then validation.
func Resolve(path string) (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		fileCfg, err := Load(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	var err error
	if cfg, err = cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if cfg.ModelPath, err = fsutil.AbsPath(cfg.ModelPath); err != nil {
		return Config{}, fmt.Errorf("model_path: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge returns c with every non-zero field of o applied on top.
func (c Config) Merge(o Config) Config {
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.Backend != "" {
		c.Backend = o.Backend
	}
	if o.APIKey != "" {
		c.APIKey = o.APIKey
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.ModelPath != "" {
		c.ModelPath = o.ModelPath
	}
	if o.MaxNewTokens != 0 {
		c.MaxNewTokens = o.MaxNewTokens
	}
	if o.Temperature != nil {
		v := *o.Temperature
		c.Temperature = &v
	}
	if o.TopP != nil {
		v := *o.TopP
		c.TopP = &v
	}
	if o.RequestTimeoutSeconds != 0 {
		c.RequestTimeoutSeconds = o.RequestTimeoutSeconds
	}
	if o.LlamaCtx != 0 {
		c.LlamaCtx = o.LlamaCtx
	}
	if o.LlamaThreads != 0 {
		c.LlamaThreads = o.LlamaThreads
	}
	if o.GPULayers != 0 {
		c.GPULayers = o.GPULayers
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if len(o.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), o.CORSOrigins...)
	}
	if o.MaxBodyBytes != 0 {
		c.MaxBodyBytes = o.MaxBodyBytes
	}
	return c
}

// ApplyEnv overlays environment variables read through lookup.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("DEEPSEEK_API_KEY", &c.APIKey)
	str("DEEPSEEK_BASE_URL", &c.BaseURL)
	str("DEEPSEEK_MODEL", &c.Model)
	str("BLOOMED_BACKEND", &c.Backend)
	str("BLOOMED_MODEL_PATH", &c.ModelPath)
	str("BLOOMED_LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("MAX_NEW_TOKENS"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return c, fmt.Errorf("MAX_NEW_TOKENS: %w", err)
		}
		c.MaxNewTokens = n
	}
	for key, dst := range map[string]**float64{"TEMPERATURE": &c.Temperature, "TOP_P": &c.TopP} {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return c, fmt.Errorf("%s: %w", key, err)
			}
			*dst = &f
		}
	}
	if v, ok := lookup("BLOOMED_CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = SplitCSV(v)
	}

	// HOST/PORT replace the matching half of Addr.
	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		host, port = c.Addr, ""
	}
	hv, hok := lookup("HOST")
	pv, pok := lookup("PORT")
	if (hok && hv != "") || (pok && pv != "") {
		if hok && hv != "" {
			host = strings.TrimSpace(hv)
		}
		if pok && pv != "" {
			if _, err := strconv.Atoi(strings.TrimSpace(pv)); err != nil {
				return c, fmt.Errorf("PORT: %w", err)
			}
			port = strings.TrimSpace(pv)
		}
		c.Addr = net.JoinHostPort(host, port)
	}
	return c, nil
}

// Validate checks ranges. The API key is deliberately not checked here: the
// remote backend reports its absence when it is constructed.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendRemote, BackendLocal:
	default:
		errs = append(errs, fmt.Errorf("backend must be %q or %q, got %q", BackendRemote, BackendLocal, c.Backend))
	}
	if c.MaxNewTokens < 1 {
		errs = append(errs, fmt.Errorf("max_new_tokens must be >= 1, got %d", c.MaxNewTokens))
	}
	if c.Temperature == nil || *c.Temperature < 0 {
		errs = append(errs, errors.New("temperature must be >= 0"))
	}
	if c.TopP == nil || *c.TopP < 0 || *c.TopP > 1 {
		errs = append(errs, errors.New("top_p must be within [0, 1]"))
	}
	if c.RequestTimeoutSeconds < 0 {
		errs = append(errs, errors.New("request_timeout_seconds must be >= 0"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	return errors.Join(errs...)
}

// RequestTimeout returns the remote request timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Temp and TopPValue dereference the sampling defaults; call after Validate.
func (c Config) Temp() float64 { return *c.Temperature }

func (c Config) TopPValue() float64 { return *c.TopP }

// ModelInfo describes the configured model for display.
func (c Config) ModelInfo() types.ModelInfo {
	info := types.ModelInfo{
		Backend:     c.Backend,
		MaxTokens:   c.MaxNewTokens,
		Temperature: c.Temp(),
		TopP:        c.TopPValue(),
	}
	if c.Backend == BackendLocal {
		info.Provider = "llama.cpp"
		if c.ModelPath != "" {
			info.Model = filepath.Base(c.ModelPath)
		}
		info.ModelPath = c.ModelPath
		return info
	}
	info.Provider = "DeepSeek AI"
	info.Model = c.Model
	info.BaseURL = c.BaseURL
	return info
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
