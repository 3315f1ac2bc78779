package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/wolfman30/nail-studio-api/internal/http/httpjson"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

// Handler handles HTTP requests for the contact form and newsletter.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new contact handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// SubmitContact handles POST /api/contact.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := decode(r, &msg); err != nil {
		h.writeError(w, err)
		return
	}
	receipt, err := h.service.Submit(r.Context(), msg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpjson.Write(w, h.logger, http.StatusCreated, receipt)
}

// Subscribe handles POST /api/newsletter.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var sub Subscription
	if err := decode(r, &sub); err != nil {
		h.writeError(w, err)
		return
	}
	receipt, err := h.service.Subscribe(r.Context(), sub)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, receipt)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrInvalidBody):
		h.logger.Warn("failed to decode form request", "error", err)
		httpjson.Error(w, h.logger, http.StatusBadRequest, "Invalid request body")
	case errors.As(err, &verr):
		httpjson.FieldErrors(w, h.logger, http.StatusUnprocessableEntity, "Validation failed", verr.Fields)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("form submission aborted", "error", err)
		httpjson.Error(w, h.logger, http.StatusServiceUnavailable, "Request cancelled")
	default:
		h.logger.Error("form submission failed", "error", err)
		httpjson.Error(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}
