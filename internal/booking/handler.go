package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/nail-studio-api/internal/catalog"
	"github.com/wolfman30/nail-studio-api/internal/http/httpjson"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

// Handler exposes the wizard over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a booking handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the booking endpoints under r (expected at /api/booking).
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dates", h.ListDates)
	r.Get("/availability", h.GetAvailability)
	r.Post("/create", h.CreateBooking)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CancelSession)
			r.Post("/actions", h.ApplyAction)
			r.Post("/next", h.Next)
			r.Post("/back", h.Back)
			r.Put("/step", h.GoTo)
			r.Post("/customer", h.SubmitCustomer)
			r.Post("/confirm", h.Confirm)
		})
	})
}

type stepRequest struct {
	Step *int `json:"step"`
}

// ConfirmResponse is returned by the confirm endpoint, success or failure.
type ConfirmResponse struct {
	Session      View          `json:"session"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Notification Notification  `json:"notification"`
}

// CreateBookingResponse is the stateless create result.
type CreateBookingResponse struct {
	Success      bool         `json:"success"`
	Confirmation Confirmation `json:"confirmation"`
}

// ListDates handles GET /api/booking/dates.
func (h *Handler) ListDates(w http.ResponseWriter, r *http.Request) {
	httpjson.List(w, h.logger, h.service.Dates())
}

// GetAvailability handles GET /api/booking/availability?date=YYYY-MM-DD.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		httpjson.Error(w, h.logger, http.StatusBadRequest, "date is required")
		return
	}
	slots, err := h.service.Availability(r.Context(), date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, map[string]any{
		"date":  date,
		"slots": slots,
	})
}

// CreateSession handles POST /api/booking/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CreateSession(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpjson.Write(w, h.logger, http.StatusCreated, view)
}

// GetSession handles GET /api/booking/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	h.writeView(w, view, err)
}

// CancelSession handles DELETE /api/booking/sessions/{sessionID}.
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyAction handles POST /api/booking/sessions/{sessionID}/actions.
func (h *Handler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" {
		httpjson.Error(w, h.logger, http.StatusBadRequest, "action type is required")
		return
	}
	view, err := h.service.Apply(r.Context(), chi.URLParam(r, "sessionID"), req)
	h.writeView(w, view, err)
}

// Next handles POST /api/booking/sessions/{sessionID}/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Next(r.Context(), chi.URLParam(r, "sessionID"))
	h.writeView(w, view, err)
}

// Back handles POST /api/booking/sessions/{sessionID}/back.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Back(r.Context(), chi.URLParam(r, "sessionID"))
	h.writeView(w, view, err)
}

// GoTo handles PUT /api/booking/sessions/{sessionID}/step.
func (h *Handler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Step == nil {
		httpjson.Error(w, h.logger, http.StatusBadRequest, "step is required")
		return
	}
	view, err := h.service.GoTo(r.Context(), chi.URLParam(r, "sessionID"), *req.Step)
	h.writeView(w, view, err)
}

// SubmitCustomer handles POST /api/booking/sessions/{sessionID}/customer.
func (h *Handler) SubmitCustomer(w http.ResponseWriter, r *http.Request) {
	var info CustomerInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		httpjson.Error(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	view, err := h.service.SubmitCustomerInfo(r.Context(), chi.URLParam(r, "sessionID"), info)
	h.writeView(w, view, err)
}

// Confirm handles POST /api/booking/sessions/{sessionID}/confirm. A failed
// confirmation returns 500 with the error notification and the untouched
// session so the client can retry. If the booking went through but the
// session could not be cleared, the 500 also carries the confirmation.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	view, result, err := h.service.Confirm(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || isRejection(err) {
			h.writeError(w, err)
			return
		}
		httpjson.Write(w, h.logger, http.StatusInternalServerError, ConfirmResponse{
			Session:      view,
			Confirmation: result.Confirmation,
			Notification: result.Notification,
		})
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, ConfirmResponse{
		Session:      view,
		Confirmation: result.Confirmation,
		Notification: result.Notification,
	})
}

// CreateBooking handles POST /api/booking/create with a full client-held state.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var state State
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		httpjson.Error(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	confirmation, err := h.service.CreateBooking(r.Context(), state)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpjson.Write(w, h.logger, http.StatusCreated, CreateBookingResponse{
		Success:      true,
		Confirmation: confirmation,
	})
}

func (h *Handler) writeView(w http.ResponseWriter, view View, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, view)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpjson.FieldErrors(w, h.logger, http.StatusUnprocessableEntity, "Validation failed", verr.Fields)
	case errors.Is(err, ErrSessionNotFound):
		httpjson.Error(w, h.logger, http.StatusNotFound, "Booking session not found")
	case errors.Is(err, catalog.ErrServiceNotFound):
		httpjson.Error(w, h.logger, http.StatusNotFound, "Service not found")
	case errors.Is(err, catalog.ErrTechnicianNotFound):
		httpjson.Error(w, h.logger, http.StatusNotFound, "Technician not found")
	case errors.Is(err, ErrStepIncomplete):
		httpjson.Error(w, h.logger, http.StatusUnprocessableEntity, "Complete the current step before continuing")
	case errors.Is(err, ErrSessionConflict):
		httpjson.Error(w, h.logger, http.StatusConflict, "The booking was changed by another request, please try again")
	case errors.Is(err, ErrSlotUnavailable):
		httpjson.Error(w, h.logger, http.StatusConflict, "The selected time slot is no longer available")
	case errors.Is(err, ErrInvalidDate):
		httpjson.Error(w, h.logger, http.StatusBadRequest, "Invalid date")
	case errors.Is(err, ErrInvalidTime):
		httpjson.Error(w, h.logger, http.StatusBadRequest, "Invalid time")
	case errors.Is(err, ErrInvalidStep):
		httpjson.Error(w, h.logger, http.StatusBadRequest, "Invalid step")
	case errors.Is(err, ErrUnknownAction):
		httpjson.Error(w, h.logger, http.StatusBadRequest, "Unknown action")
	default:
		h.logger.Error("booking request failed", "error", err)
		httpjson.Error(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}
