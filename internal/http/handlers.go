package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/arenaops/court-reservations/internal/booking"
	"github.com/arenaops/court-reservations/internal/config"
	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/arenaops/court-reservations/internal/idempotency"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handlers struct {
	cfg   *config.Config
	svc   *booking.Service
	idemp *idempotency.Idempotency
}

func NewHandlers(cfg *config.Config, svc *booking.Service, idemp *idempotency.Idempotency) *Handlers {
	return &Handlers{cfg: cfg, svc: svc, idemp: idemp}
}

func (h *Handlers) Reserve(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	var req struct {
		FacilityID    uuid.UUID       `json:"facility_id"`
		Windows       []domain.Window `json:"windows"`
		CustomerID    uuid.UUID       `json:"customer_id"`
		PromoCode     string          `json:"promo_code"`
		CourtID       *uuid.UUID      `json:"court_id"`
		PaymentMethod string          `json:"payment_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.Reserve(r.Context(), booking.ReserveRequest{
		FacilityID:    req.FacilityID,
		Windows:       req.Windows,
		CustomerID:    req.CustomerID,
		PromoCode:     req.PromoCode,
		CourtID:       req.CourtID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"booking_code":  result.BookingCode,
		"base_total":    result.BaseTotal,
		"discount":      result.Discount,
		"final_total":   result.FinalTotal,
		"hold_deadline": result.HoldDeadline.Format(time.RFC3339),
		"intent_id":     result.IntentID,
		"slots":         result.Slots,
	}
	data, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
}

func (h *Handlers) Availability(w http.ResponseWriter, r *http.Request) {
	facilityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid facility id", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.Availability(r.Context(), facilityID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"slots": slots})
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	b, slots, err := h.svc.GetBooking(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"booking_code":   b.Code,
		"status":         b.Status,
		"payment_status": b.PaymentStatus,
		"final_total":    b.FinalTotal,
		"slots":          slots,
	})
}

func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req struct {
		CustomerID uuid.UUID `json:"customer_id"`
		Reason     string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.RequestCancellation(r.Context(), code, req.CustomerID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":          "cancellation_requested",
		"refund_amount":   result.RefundAmount,
		"penalty_percent": result.PenaltyPercent,
	})
}

// Decide serves the owner's emailed approve/reject links, so it is a GET with
// no authenticated session; the token is the credential.
func (h *Handlers) Decide(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	action := r.URL.Query().Get("action")
	if token == "" || (action != "approve" && action != "reject") {
		http.Error(w, "invalid decision link", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Decide(r.Context(), token, action == "approve")
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"booking_code":  result.BookingCode,
		"decision":      result.Decision,
		"refund_amount": result.RefundAmount,
	})
}

func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IntentID uuid.UUID `json:"intent_id"`
		Status   string    `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b, err := h.svc.SettlePayment(r.Context(), req.IntentID, req.Status == "SUCCEEDED")
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"booking_code":   b.Code,
		"payment_status": req.Status,
	})
}

func (h *Handlers) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req struct {
		Status domain.BookingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.TransitionStatus(r.Context(), code, req.Status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func writeError(w http.ResponseWriter, err error) {
	var conflict *domain.ConflictError
	var promo *domain.PromotionError

	switch {
	case errors.As(err, &conflict):
		http.Error(w, conflict.Error(), http.StatusConflict)
	case errors.As(err, &promo):
		http.Error(w, promo.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyProcessed):
		http.Error(w, "already processed", http.StatusGone)
	case errors.Is(err, domain.ErrDuplicateRequest):
		http.Error(w, "cancellation already requested", http.StatusConflict)
	case errors.Is(err, domain.ErrAlreadyCompleted):
		http.Error(w, "booking already completed or cancelled", http.StatusConflict)
	case errors.Is(err, domain.ErrTooLateToCancel):
		http.Error(w, "too close to the earliest slot to cancel", http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, "status transition not allowed", http.StatusConflict)
	case errors.Is(err, domain.ErrSerializationFailure):
		http.Error(w, "conflict, try again", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
