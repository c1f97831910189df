package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloomed/internal/chat"
	"bloomed/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Generate(ctx context.Context, msgs []chat.Message, p chat.Params) (string, error)
	Ready() bool
}

// NewMux builds the router. info is served verbatim by GET /v1/model.
func NewMux(svc Service, info types.ModelInfo) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		methods := corsAllowedMethods
		if len(methods) == 0 {
			methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		}
		headers := corsAllowedHeaders
		if len(headers) == 0 {
			headers = []string{"Content-Type", "X-Request-Id", "X-Log-Level"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: methods,
			AllowedHeaders: headers,
			MaxAge:         300,
		}))
	}

	r.Post("/v1/chat", chatHandler(svc))
	r.Get("/v1/model", modelHandler(info))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

// chatHandler godoc
// @Summary      Generate a chat reply
// @Description  Runs one blocking generation over the conversation. A leading system message replaces the house persona.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body      types.ChatRequest  true  "Conversation and optional sampling parameters"
// @Success      200      {object}  types.ChatResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ErrorResponse  "backend generation failed"
// @Failure      503      {object}  types.ErrorResponse  "backend not configured"
// @Router       /v1/chat [post]
func chatHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		msgs, err := toMessages(req.Messages)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		params := chat.Params{
			MaxNewTokens: req.MaxNewTokens,
			Temperature:  req.Temperature,
			TopP:         req.TopP,
			Stop:         req.Stop,
		}

		lvl := requestLogLevel(r)
		if ev := requestEvent(r, lvl, LevelInfo); ev != nil {
			ev.Int("messages", len(msgs)).Msg("chat start")
		}
		if ev := requestEvent(r, lvl, LevelDebug); ev != nil {
			ev.Interface("messages", msgs).Msg("chat request")
		}

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(r.Context(), serverBaseCtx)
		defer cancel()
		if chatTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, chatTimeout)
			defer tcancel()
		}

		start := time.Now()
		reply, err := svc.Generate(ctx, msgs, params)
		observeGeneration(err, time.Since(start))
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := statusFor(err)
			if ev := requestEvent(r, lvl, LevelError); ev != nil {
				ev.Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("chat end")
			}
			writeJSONError(w, status, err.Error())
			return
		}
		if ev := requestEvent(r, lvl, LevelInfo); ev != nil {
			ev.Int("status", http.StatusOK).Dur("dur", time.Since(start)).Int("reply_len", len(reply)).Msg("chat end")
		}
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		writeJSON(w, http.StatusOK, types.ChatResponse{ID: id.String(), Content: reply})
	}
}

// modelHandler godoc
// @Summary      Describe the configured model
// @Tags         model
// @Produce      json
// @Success      200  {object}  types.ModelInfo
// @Router       /v1/model [get]
func modelHandler(info types.ModelInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, info)
	}
}

// toMessages validates the wire conversation. At least one message must carry
// non-blank content and every role must be known.
func toMessages(in []types.ChatMessage) ([]chat.Message, error) {
	if len(in) == 0 {
		return nil, errors.New("messages is required")
	}
	out := make([]chat.Message, 0, len(in))
	blank := true
	for i, m := range in {
		role, ok := chat.ParseRole(m.Role)
		if !ok {
			return nil, fmt.Errorf("messages[%d]: unknown role %q", i, m.Role)
		}
		if strings.TrimSpace(m.Content) != "" {
			blank = false
		}
		out = append(out, chat.Message{Role: role, Content: m.Content})
	}
	if blank {
		return nil, errors.New("messages must contain non-empty content")
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}
