package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"go.opentelemetry.io/otel/attribute"
)

// BedrockConverseAPI is the slice of the Bedrock runtime client the upstream
// needs.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockConfig configures the Bedrock upstream.
type BedrockConfig struct {
	ModelID string
	Region  string
}

// BedrockUpstream serves the chat contract through the Bedrock Converse API.
type BedrockUpstream struct {
	api     BedrockConverseAPI
	modelID string
	region  string
}

// NewBedrockUpstream builds a Bedrock upstream. A nil client is reported by
// Validate.
func NewBedrockUpstream(api BedrockConverseAPI, cfg BedrockConfig) *BedrockUpstream {
	return &BedrockUpstream{
		api:     api,
		modelID: strings.TrimSpace(cfg.ModelID),
		region:  strings.TrimSpace(cfg.Region),
	}
}

func (b *BedrockUpstream) Provider() string { return "bedrock" }

func (b *BedrockUpstream) Model() string { return b.modelID }

func (b *BedrockUpstream) Endpoint() string {
	if b.region == "" {
		return "bedrock-runtime"
	}
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", b.region)
}

func (b *BedrockUpstream) Validate() error {
	if b.api == nil {
		return &ConfigError{Item: "Bedrock client"}
	}
	if b.modelID == "" {
		return &ConfigError{Item: "Bedrock model ID"}
	}
	return nil
}

func (b *BedrockUpstream) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "chat.upstream.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("nailstudio.chat.provider", b.Provider()),
		attribute.String("nailstudio.chat.model", b.modelID),
		attribute.Int("nailstudio.chat.messages", len(req.Messages)),
	)

	system, messages := bedrockMessages(req)
	if len(messages) == 0 {
		return "", &StatusError{StatusCode: http.StatusBadRequest, Body: "no user message to send"}
	}

	out, err := b.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(b.modelID),
		System:   system,
		Messages: messages,
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(maxTokens),
			Temperature: aws.Float32(temperature),
			TopP:        aws.Float32(topP),
		},
	})
	if err != nil {
		span.RecordError(err)
		if code, ok := bedrockStatus(err); ok {
			return "", &StatusError{StatusCode: code, Body: err.Error()}
		}
		return "", fmt.Errorf("chat: bedrock converse failed: %w", err)
	}

	text := bedrockOutputText(out)
	if text == "" {
		return "", ErrInvalidResponse
	}
	return text, nil
}

// bedrockMessages folds system turns into the system blocks and keeps the
// rest as Converse messages.
func bedrockMessages(req CompletionRequest) ([]brtypes.SystemContentBlock, []brtypes.Message) {
	system := []brtypes.SystemContentBlock{
		&brtypes.SystemContentBlockMemberText{Value: systemPrompt(req.SystemPrompt)},
	}
	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		switch m.Role {
		case RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: content})
		case RoleAssistant:
			messages = append(messages, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
			})
		default:
			messages = append(messages, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
			})
		}
	}
	return system, messages
}

func bedrockOutputText(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var text strings.Builder
	for _, block := range msg.Value.Content {
		if t, ok := block.(*brtypes.ContentBlockMemberText); ok {
			text.WriteString(t.Value)
		}
	}
	return strings.TrimSpace(text.String())
}

// bedrockStatus recovers an HTTP status from a Bedrock error so it can go
// through Classify like any other provider failure.
func bedrockStatus(err error) (int, bool) {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		if code := respErr.HTTPStatusCode(); code > 0 {
			return code, true
		}
	}

	var throttled *brtypes.ThrottlingException
	var quota *brtypes.ServiceQuotaExceededException
	var denied *brtypes.AccessDeniedException
	var invalid *brtypes.ValidationException
	var missing *brtypes.ResourceNotFoundException
	var unavailable *brtypes.ServiceUnavailableException
	var notReady *brtypes.ModelNotReadyException
	var timeout *brtypes.ModelTimeoutException
	var internal *brtypes.InternalServerException
	switch {
	case errors.As(err, &throttled), errors.As(err, &quota):
		return http.StatusTooManyRequests, true
	case errors.As(err, &denied):
		return http.StatusForbidden, true
	case errors.As(err, &invalid):
		return http.StatusBadRequest, true
	case errors.As(err, &missing):
		return http.StatusNotFound, true
	case errors.As(err, &unavailable), errors.As(err, &notReady):
		return http.StatusServiceUnavailable, true
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout, true
	case errors.As(err, &internal):
		return http.StatusInternalServerError, true
	}
	return 0, false
}
