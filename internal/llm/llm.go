package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"geolens/internal/config"
	"geolens/internal/metrics"
)

// Provider represents a logical LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

// Completion is one request to the text-completion service. Kind labels
// the request in logs and metrics.
type Completion struct {
	Kind        string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Client is the abstraction used by the pipeline.
type Client interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

var (
	// ErrNotConfigured means no provider has credentials.
	ErrNotConfigured = errors.New("llm provider is not configured")
	// ErrEmptyResponse means the provider answered without any text.
	ErrEmptyResponse = errors.New("llm returned no content")
)

// UpstreamError wraps any failure to obtain text from the provider:
// transport, auth, rate limiting, timeouts and empty answers.
type UpstreamError struct {
	Provider   Provider
	Model      string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s completion failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// System and User are shorthands for building a two-message conversation.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// splitSystem separates system messages from the conversation for
// providers that take the system prompt out of band.
func splitSystem(msgs []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

// NewClientFromConfig constructs a Client based on global config and optional
// per-request provider/model overrides.
func NewClientFromConfig(cfg *config.Config, providerOverride, modelOverride string) (Client, Provider, string, error) {
	providerName := cfg.LLM.DefaultProvider
	if providerOverride != "" {
		providerName = providerOverride
	}

	prov := Provider(providerName)
	httpClient := &http.Client{Timeout: cfg.LLM.Timeout()}

	switch prov {
	case ProviderOpenAI:
		openaiCfg := cfg.LLM.OpenAI
		model := openaiCfg.Model
		if modelOverride != "" {
			model = modelOverride
		}
		if openaiCfg.APIKey == "" || model == "" {
			return nil, prov, model, fmt.Errorf("openai: %w", ErrNotConfigured)
		}
		return newOpenAIClient(openaiCfg.APIKey, openaiCfg.BaseURL, model, httpClient), prov, model, nil
	case ProviderAnthropic:
		anthCfg := cfg.LLM.Anthropic
		model := anthCfg.Model
		if modelOverride != "" {
			model = modelOverride
		}
		if anthCfg.APIKey == "" || model == "" {
			return nil, prov, model, fmt.Errorf("anthropic: %w", ErrNotConfigured)
		}
		return newAnthropicClient(anthCfg.APIKey, anthCfg.BaseURL, model, httpClient), prov, model, nil
	case ProviderGoogle:
		googleCfg := cfg.LLM.Google
		model := googleCfg.Model
		if modelOverride != "" {
			model = modelOverride
		}
		if googleCfg.APIKey == "" || model == "" {
			return nil, prov, model, fmt.Errorf("google: %w", ErrNotConfigured)
		}
		return newGoogleClient(googleCfg.APIKey, googleCfg.BaseURL, model, httpClient), prov, model, nil
	default:
		return nil, prov, "", fmt.Errorf("unsupported llm provider: %s", providerName)
	}
}

// New builds the process-wide client: the configured provider wrapped
// with the request limiter, the per-call deadline and metrics. When the
// provider lacks credentials the returned client fails every call with
// ErrNotConfigured and ok is false.
func New(cfg *config.Config) (client Client, ok bool) {
	inner, prov, model, err := NewClientFromConfig(cfg, "", "")
	if err != nil {
		inner = unconfigured{provider: prov, err: err}
	}
	var limiter *rate.Limiter
	if rps := cfg.LLM.RequestsPerSecond; rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &instrumented{
		next:     inner,
		provider: prov,
		model:    model,
		limiter:  limiter,
		timeout:  cfg.LLM.Timeout(),
	}, err == nil
}

type instrumented struct {
	next     Client
	provider Provider
	model    string
	limiter  *rate.Limiter
	timeout  time.Duration
}

func (c *instrumented) Complete(ctx context.Context, req Completion) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &UpstreamError{Provider: c.provider, Model: c.model, Err: err}
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := c.next.Complete(ctx, req)
	metrics.RecordLLMCall(string(c.provider), c.model, req.Kind, err == nil, time.Since(start))
	return out, err
}

type unconfigured struct {
	provider Provider
	err      error
}

func (u unconfigured) Complete(context.Context, Completion) (string, error) {
	return "", &UpstreamError{Provider: u.provider, Err: u.err}
}
