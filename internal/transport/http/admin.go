package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/onsale/marketplace/internal/app"
	"github.com/onsale/marketplace/internal/domain"
)

// AdminEventService is the minimal interface for the admin endpoints.
type AdminEventService interface {
	CreateEvent(ctx context.Context, caller string, in app.CreateEventInput) (domain.Event, error)
	SetCapacity(ctx context.Context, caller string, eventID, newCapacity uint64) (domain.Event, error)
	SetPrice(ctx context.Context, caller string, eventID uint64, denom domain.Denomination, price uint64) (domain.Event, error)
	SetSettlementToken(ctx context.Context, caller, addr string) error
}

type createEventRequest struct {
	Capacity    uint64 `json:"capacity"`
	PriceNative uint64 `json:"price_native"`
	PriceToken  uint64 `json:"price_token"`
}

// HandleAdminCreateEvent returns an HTTP handler for POST /admin/events.
func HandleAdminCreateEvent(svc AdminEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createEventRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		ev, err := svc.CreateEvent(r.Context(), callerFrom(r.Context()), app.CreateEventInput{
			Capacity:    req.Capacity,
			PriceNative: req.PriceNative,
			PriceToken:  req.PriceToken,
		})
		if err != nil {
			writeAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventResponse(ev))
	}
}

type setCapacityRequest struct {
	NewCapacity uint64 `json:"new_capacity"`
}

type setPriceRequest struct {
	Denomination string `json:"denomination"`
	NewPrice     uint64 `json:"new_price"`
}

// HandleAdminEventSubtree serves POST /admin/events/{id}/capacity and
// POST /admin/events/{id}/price.
func HandleAdminEventSubtree(svc AdminEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, sub, ok := parseAdminEventPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		switch sub {
		case "capacity":
			var req setCapacityRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			ev, err := svc.SetCapacity(r.Context(), callerFrom(r.Context()), eventID, req.NewCapacity)
			if err != nil {
				writeAdminError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toEventResponse(ev))
		case "price":
			var req setPriceRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			ev, err := svc.SetPrice(r.Context(), callerFrom(r.Context()), eventID, domain.Denomination(req.Denomination), req.NewPrice)
			if err != nil {
				writeAdminError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toEventResponse(ev))
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

type setSettlementTokenRequest struct {
	Address string `json:"address"`
}

// HandleAdminSetSettlementToken returns an HTTP handler for
// POST /admin/settlement-token.
func HandleAdminSetSettlementToken(svc AdminEventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req setSettlementTokenRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		if err := svc.SetSettlementToken(r.Context(), callerFrom(r.Context()), req.Address); err != nil {
			writeAdminError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrUnauthorized:
		writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
	case domain.ErrEventNotFound:
		writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
	case domain.ErrInvalidCapacity:
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case domain.ErrCapacityDecrease:
		writeError(w, http.StatusConflict, codeCapacityDecreaseRejected, err.Error())
	case domain.ErrInvalidDenomination:
		writeError(w, http.StatusBadRequest, codeInvalidDenomination, err.Error())
	case domain.ErrAddressRequired:
		writeError(w, http.StatusBadRequest, codeAddressRequired, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

// parseAdminEventPath splits /admin/events/{id}/{sub}.
func parseAdminEventPath(path string) (uint64, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "admin" || parts[1] != "events" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, parts[3], true
}
