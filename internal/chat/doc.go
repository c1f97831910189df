// Package chat turns a conversation into a single assistant reply. It is
// structured into small files by concern:
//
//   - types.go: Message, Role, Params and the resolved parameter set.
//   - backend.go: the Backend contract both generators satisfy.
//   - service.go: Service, lazy backend construction, Generate/Load/Ready.
//   - persona.go: system-prompt injection.
//   - params.go: defaulting of optional generation parameters.
//   - postprocess.go: prompt-echo removal and stop-sequence truncation.
//   - prompt.go: chat-template rendering with the plain-text fallback.
//   - errors.go: ConfigurationError / GenerationError and their predicates.
//
// Backends live in internal/backend/remote and internal/backend/local and are
// selected once at process start; the Service never switches between them.
package chat
