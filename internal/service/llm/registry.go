package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"podium/internal/domain"
)

// Registry routes completion requests to the provider that serves the
// requested model hint. It is itself a Completer so callers never see
// provider selection.
type Registry struct {
	providers []Completer
	logger    *slog.Logger
}

// NewRegistry creates a registry. Provider order matters: the first
// provider supporting a hint wins, and the first provider overall is
// the fallback for empty hints.
func NewRegistry(logger *slog.Logger, providers ...Completer) (*Registry, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("registry needs at least one provider")
	}
	return &Registry{providers: providers, logger: logger}, nil
}

func (r *Registry) Name() string {
	return "registry"
}

func (r *Registry) SupportsModel(model string) bool {
	for _, p := range r.providers {
		if p.SupportsModel(model) {
			return true
		}
	}
	return false
}

// Complete dispatches to the first provider supporting the model hint.
func (r *Registry) Complete(ctx context.Context, req *Request) (string, error) {
	provider, err := r.resolve(req.Model)
	if err != nil {
		return "", err
	}
	text, err := provider.Complete(ctx, req)
	if err != nil {
		r.logger.Warn("model call failed",
			"provider", provider.Name(),
			"model", req.Model,
			"error", err,
		)
		return "", err
	}
	return text, nil
}

func (r *Registry) resolve(model string) (Completer, error) {
	if model == "" {
		return r.providers[0], nil
	}
	for _, p := range r.providers {
		if p.SupportsModel(model) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no provider for model %q", domain.ErrModelCall, model)
}

// ParseModelHint splits an optional "provider/model" hint into its
// parts. A bare model name resolves the provider from its prefix.
func ParseModelHint(hint string) (provider, model string, err error) {
	if hint == "" {
		return "", "", fmt.Errorf("empty model hint")
	}
	if i := strings.Index(hint, "/"); i >= 0 {
		provider, model = hint[:i], hint[i+1:]
		if provider == "" || model == "" {
			return "", "", fmt.Errorf("malformed model hint %q", hint)
		}
		return provider, model, nil
	}
	switch {
	case strings.HasPrefix(hint, "gpt-"), strings.HasPrefix(hint, "o1"), strings.HasPrefix(hint, "o3"):
		return "openai", hint, nil
	case strings.HasPrefix(hint, "offline"):
		return "offline", hint, nil
	default:
		return "", "", fmt.Errorf("unknown model hint %q", hint)
	}
}
