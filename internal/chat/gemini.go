package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com"

// GeminiConfig configures the Gemini upstream.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiUpstream serves the chat contract through Google Gemini. The client
// is created on first use so a missing key surfaces as a configuration error
// per request instead of failing start-up.
type GeminiUpstream struct {
	apiKey string
	model  string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiUpstream builds a Gemini upstream.
func NewGeminiUpstream(cfg GeminiConfig) *GeminiUpstream {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiUpstream{apiKey: strings.TrimSpace(cfg.APIKey), model: model}
}

func (g *GeminiUpstream) Provider() string { return "gemini" }

func (g *GeminiUpstream) Model() string { return g.model }

func (g *GeminiUpstream) Endpoint() string { return geminiEndpoint }

func (g *GeminiUpstream) Validate() error {
	if g.apiKey == "" {
		return &ConfigError{Item: "Gemini API key"}
	}
	return nil
}

func (g *GeminiUpstream) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "chat.upstream.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("nailstudio.chat.provider", g.Provider()),
		attribute.Int("nailstudio.chat.messages", len(req.Messages)),
	)

	g.once.Do(func() {
		g.client, g.initErr = genai.NewClient(context.WithoutCancel(ctx), option.WithAPIKey(g.apiKey))
	})
	if g.initErr != nil {
		span.RecordError(g.initErr)
		return "", fmt.Errorf("chat: failed to create gemini client: %w", g.initErr)
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(maxTokens)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt(req.SystemPrompt)))

	history, last := geminiHistory(req.Messages)
	if last == "" {
		// Gemini rejects an empty turn; treat it as the provider would.
		return "", &StatusError{StatusCode: http.StatusBadRequest, Body: "no user message to send"}
	}
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		span.RecordError(err)
		if code, ok := geminiStatus(err); ok {
			return "", &StatusError{StatusCode: code, Body: err.Error()}
		}
		return "", fmt.Errorf("chat: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrInvalidResponse
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", ErrInvalidResponse
	}
	return out, nil
}

// Close releases the Gemini client, if one was created.
func (g *GeminiUpstream) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// geminiHistory splits the conversation into prior turns and the final
// message to send. System turns are dropped; the system instruction carries
// the prompt.
func geminiHistory(messages []Message) ([]*genai.Content, string) {
	var turns []Message
	for _, m := range messages {
		if m.Role == RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 {
		return nil, ""
	}
	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return history, turns[len(turns)-1].Content
}

// geminiStatus recovers an HTTP status from a Gemini API error so it can go
// through Classify like any other provider failure.
func geminiStatus(err error) (int, bool) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return code, true
		}
		if st := apiErr.GRPCStatus(); st != nil {
			return httpStatusFromCode(st.Code()), true
		}
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code > 0 {
		return gErr.Code, true
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		return httpStatusFromCode(st.Code()), true
	}
	return 0, false
}

func httpStatusFromCode(c codes.Code) int {
	switch c {
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Internal:
		return http.StatusInternalServerError
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
