// Package remote implements chat.Backend against a hosted OpenAI-compatible
// chat-completions endpoint (DeepSeek by default).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"bloomed/internal/chat"
)

const backendName = "remote"

// Config configures the remote backend.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// RequestTimeout bounds a single completion call; zero means only the
	// caller's context applies.
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

// Backend talks to the completion endpoint over a long-lived HTTP client.
type Backend struct {
	baseURL    string
	apiKey     string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
}

// New constructs the backend. A missing API key is a configuration error.
func New(cfg Config) (*Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, chat.ErrConfiguration("DEEPSEEK_API_KEY is required: set it in your .env file or environment", nil)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, chat.ErrConfiguration("remote base URL is empty", nil)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, chat.ErrConfiguration("remote model is empty", nil)
	}
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: deadlines come from the request context, see Generate.
	return &Backend{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		reqTimeout: cfg.RequestTimeout,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the payload for POST /chat/completions.
type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends the whole conversation in one blocking call and returns the
// first choice's content. A response without choices or content yields "".
func (b *Backend) Generate(ctx context.Context, msgs []chat.Message, p chat.Resolved) (chat.Completion, error) {
	if b == nil || b.httpClient == nil {
		return chat.Completion{}, chat.ErrGeneration(backendName, errors.New("remote backend not initialized"))
	}
	if b.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.reqTimeout)
		defer cancel()
	}

	payload := completionRequest{
		Model:       b.model,
		Messages:    make([]chatMessage, 0, len(msgs)),
		MaxTokens:   p.MaxNewTokens,
		Temperature: p.Temperature,
		TopP:        p.TopP,
		Stop:        p.Stop,
	}
	if len(payload.Stop) == 0 {
		payload.Stop = nil
	}
	for _, m := range msgs {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return chat.Completion{}, chat.ErrGeneration(backendName, fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return chat.Completion{}, chat.ErrGeneration(backendName, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return chat.Completion{}, chat.ErrGeneration(backendName, ctx.Err())
		}
		return chat.Completion{}, chat.ErrGeneration(backendName, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return chat.Completion{}, chat.ErrGeneration(backendName, statusError(resp.Status, raw))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return chat.Completion{}, chat.ErrGeneration(backendName, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return chat.Completion{}, nil
	}
	return chat.Completion{Text: *out.Choices[0].Message.Content}, nil
}

// statusError reports a non-2xx reply, preferring the endpoint's own message.
func statusError(status string, raw []byte) error {
	var ae apiErrorBody
	if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
		return fmt.Errorf("endpoint returned %s: %s", status, ae.Error.Message)
	}
	return fmt.Errorf("endpoint returned %s: %s", status, strings.TrimSpace(string(raw)))
}
