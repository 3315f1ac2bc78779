package chat

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	cases := map[int]ErrorKind{
		http.StatusUnauthorized:        KindUnauthorized,
		http.StatusForbidden:           KindForbidden,
		http.StatusTooManyRequests:     KindRateLimited,
		http.StatusInternalServerError: KindUnavailable,
		http.StatusBadGateway:          KindUnavailable,
		http.StatusServiceUnavailable:  KindUnavailable,
		http.StatusGatewayTimeout:      KindUnavailable,
		http.StatusBadRequest:          KindUnknown,
		http.StatusTeapot:              KindUnknown,
		http.StatusNotImplemented:      KindUnknown,
	}
	for code, want := range cases {
		assert.Equal(t, want, Classify(code), "status %d", code)
	}
}

func TestErrorKindMessages(t *testing.T) {
	assert.Equal(t, "Invalid API key. Please check your GLM API configuration.", KindUnauthorized.Message())
	assert.Equal(t, "Access forbidden. Please check your API permissions.", KindForbidden.Message())
	assert.Equal(t, "Rate limit exceeded. Please try again later.", KindRateLimited.Message())
	assert.Equal(t, "GLM API is temporarily unavailable. Please try again later.", KindUnavailable.Message())
	assert.Equal(t, "Failed to get response from GLM API", KindUnknown.Message())
	assert.Equal(t, "rate_limited", KindRateLimited.String())
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"messages":[{"role":"user","content":"hi"}],"systemPrompt":"be brief"}`))
	require.NoError(t, err)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}}, req.Messages)
	assert.Equal(t, "be brief", req.SystemPrompt)

	req, err = ParseRequest([]byte(`{"messages":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, req.Messages)
	assert.Empty(t, req.Messages)

	_, err = ParseRequest([]byte(`{"messages":[1,2]}`))
	assert.ErrorIs(t, err, ErrMessagesRequired)

	_, err = ParseRequest([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestSystemPromptFallsBackToPersona(t *testing.T) {
	assert.Equal(t, DefaultPersona, systemPrompt(""))
	assert.Equal(t, DefaultPersona, systemPrompt("   "))
	assert.Equal(t, "custom", systemPrompt("custom"))
}

func TestGeminiStatus(t *testing.T) {
	grpcErr := status.Error(codes.ResourceExhausted, "quota")
	apiErr, ok := apierror.FromError(grpcErr)
	require.True(t, ok)

	cases := []struct {
		name string
		err  error
		want int
		ok   bool
	}{
		{"apierror grpc", fmt.Errorf("wrapped: %w", apiErr), http.StatusTooManyRequests, true},
		{"googleapi", &googleapi.Error{Code: http.StatusForbidden}, http.StatusForbidden, true},
		{"grpc status", status.Error(codes.Unauthenticated, "bad key"), http.StatusUnauthorized, true},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), http.StatusServiceUnavailable, true},
		{"plain", errors.New("dial tcp: refused"), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := geminiStatus(tc.err)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGeminiHistory(t *testing.T) {
	history, last := geminiHistory([]Message{
		{Role: RoleSystem, Content: "ignored"},
		{Role: RoleUser, Content: "Do you do pedicures?"},
		{Role: RoleAssistant, Content: "Yes, spa pedicures."},
		{Role: RoleUser, Content: "How long?"},
	})
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, "How long?", last)

	history, last = geminiHistory(nil)
	assert.Nil(t, history)
	assert.Empty(t, last)
}

func TestGeminiValidate(t *testing.T) {
	var cfgErr *ConfigError
	require.ErrorAs(t, NewGeminiUpstream(GeminiConfig{}).Validate(), &cfgErr)
	assert.Equal(t, "Gemini API key is not configured", cfgErr.Error())
	assert.NoError(t, NewGeminiUpstream(GeminiConfig{APIKey: "k"}).Validate())
}
