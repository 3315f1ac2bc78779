package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("nailstudio.internal.chat")

// Generation parameters sent with every completion.
const (
	maxTokens        = 1000
	temperature      = 0.7
	topP             = 0.9
	frequencyPenalty = 0.1
	presencePenalty  = 0.1
)

// maxUpstreamBody caps how much of a provider response is read.
const maxUpstreamBody = 1 << 20

// ConfigError names a missing server setting. It is an operator problem, not
// a visitor or provider one.
type ConfigError struct {
	Item string
}

func (e *ConfigError) Error() string {
	return e.Item + " is not configured"
}

// CompletionRequest is what the handler asks an upstream for.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
}

// Upstream is a chat-completion provider.
type Upstream interface {
	// Provider names the upstream for logs and metrics.
	Provider() string
	// Validate reports missing configuration as a *ConfigError. The handler
	// calls it on every request before contacting the provider.
	Validate() error
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Target is implemented by upstreams that can name the model and endpoint
// they call. The handler adds both to its failure logs.
type Target interface {
	Model() string
	Endpoint() string
}

// HTTPConfig configures an OpenAI-compatible chat-completions endpoint.
type HTTPConfig struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

// HTTPUpstream posts OpenAI-style chat completions to a full endpoint URL.
type HTTPUpstream struct {
	apiKey string
	url    string
	model  string
	http   *http.Client
}

// NewHTTPUpstream builds an upstream. Configuration is checked per request by
// Validate, not here, so the server can start without secrets.
func NewHTTPUpstream(cfg HTTPConfig) *HTTPUpstream {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPUpstream{
		apiKey: strings.TrimSpace(cfg.APIKey),
		url:    strings.TrimSpace(cfg.URL),
		model:  strings.TrimSpace(cfg.Model),
		http:   &http.Client{Timeout: timeout},
	}
}

func (u *HTTPUpstream) Provider() string { return "glm" }

func (u *HTTPUpstream) Model() string { return u.model }

func (u *HTTPUpstream) Endpoint() string { return u.url }

func (u *HTTPUpstream) Validate() error {
	switch {
	case u.apiKey == "":
		return &ConfigError{Item: "GLM API key"}
	case u.url == "":
		return &ConfigError{Item: "GLM API URL"}
	case u.model == "":
		return &ConfigError{Item: "GLM model"}
	}
	return nil
}

// Complete sends the conversation with the system prompt first and returns
// the first choice's content.
func (u *HTTPUpstream) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "chat.upstream.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("nailstudio.chat.provider", u.Provider()),
		attribute.Int("nailstudio.chat.messages", len(req.Messages)),
	)

	payload, err := json.Marshal(u.buildRequest(req))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("chat: failed to encode payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(payload))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("chat: request build failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", u.apiKey))

	resp, err := u.http.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("chat: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("chat: read response failed: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		span.RecordError(statusErr)
		return "", statusErr
	}

	var out openai.ChatCompletionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("chat: decode response failed: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrInvalidResponse
	}
	return out.Choices[0].Message.Content, nil
}

func (u *HTTPUpstream) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(req.SystemPrompt),
	})
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return openai.ChatCompletionRequest{
		Model:            u.model,
		Messages:         messages,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		TopP:             topP,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
	}
}
