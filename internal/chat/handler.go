package chat

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/nail-studio-api/internal/http/httpjson"
	"github.com/wolfman30/nail-studio-api/internal/observability/metrics"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

const maxRequestBody = 256 << 10

// Response is the success body of POST /api/chat.
type Response struct {
	Message string `json:"message"`
}

// Handler serves POST /api/chat.
type Handler struct {
	upstream Upstream
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(upstream Upstream, m *metrics.ChatMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{upstream: upstream, metrics: m, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		h.logger.Error("failed to read chat request", "error", err)
		h.fail(w, "internal", http.StatusInternalServerError, msgInternal)
		return
	}

	req, err := ParseRequest(body)
	if err != nil {
		if errors.Is(err, ErrMessagesRequired) {
			h.fail(w, "bad_request", http.StatusBadRequest, msgMessagesMissing)
			return
		}
		h.logger.Error("failed to parse chat request", "error", err)
		h.fail(w, "internal", http.StatusInternalServerError, msgInternal)
		return
	}

	if err := h.upstream.Validate(); err != nil {
		h.logger.Error("chat upstream is not configured", h.upstreamAttrs("error", err)...)
		h.fail(w, "misconfigured", http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	reply, err := h.upstream.Complete(r.Context(), CompletionRequest{
		SystemPrompt: req.SystemPrompt,
		Messages:     req.Messages,
	})
	h.metrics.ObserveUpstreamLatency(h.upstream.Provider(), time.Since(start).Seconds())
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	h.metrics.ObserveRequest("ok")
	httpjson.Write(w, h.logger, http.StatusOK, Response{Message: reply})
}

func (h *Handler) writeUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		kind := Classify(statusErr.StatusCode)
		h.logger.Error("chat upstream returned an error", h.upstreamAttrs(
			"status", statusErr.StatusCode,
			"kind", kind.String(),
			"body", statusErr.Body,
		)...)
		code := statusErr.StatusCode
		if code < 100 || code > 599 {
			code = http.StatusBadGateway
		}
		h.fail(w, kind.String(), code, kind.Message())
	case errors.Is(err, ErrInvalidResponse):
		h.logger.Error("chat upstream returned an unexpected body", h.upstreamAttrs()...)
		h.fail(w, "invalid_response", http.StatusInternalServerError, msgInvalidResponse)
	default:
		h.logger.Error("chat upstream call failed", h.upstreamAttrs("error", err)...)
		h.fail(w, "internal", http.StatusInternalServerError, msgInternal)
	}
}

// upstreamAttrs prefixes log attributes with the provider and, when the
// upstream exposes them, its model and endpoint.
func (h *Handler) upstreamAttrs(extra ...any) []any {
	attrs := []any{"provider", h.upstream.Provider()}
	if t, ok := h.upstream.(Target); ok {
		attrs = append(attrs, "model", t.Model(), "url", t.Endpoint())
	}
	return append(attrs, extra...)
}

func (h *Handler) fail(w http.ResponseWriter, outcome string, status int, message string) {
	h.metrics.ObserveRequest(outcome)
	httpjson.Error(w, h.logger, status, message)
}
