package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onsale/marketplace/internal/app"
	"github.com/onsale/marketplace/internal/domain"
)

// CatalogReadService is the minimal interface for public catalog reads.
type CatalogReadService interface {
	GetEvent(ctx context.Context, id uint64) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	ListPurchases(ctx context.Context, eventID uint64) ([]domain.PurchaseRecord, error)
}

// PurchaseTicketsService is the minimal interface for the purchase endpoint.
type PurchaseTicketsService interface {
	Purchase(ctx context.Context, in app.PurchaseInput) (app.PurchaseResult, error)
}

type eventResponse struct {
	ID          uint64 `json:"id"`
	SoldCount   uint64 `json:"sold_count"`
	Capacity    uint64 `json:"capacity"`
	Remaining   uint64 `json:"remaining"`
	PriceNative uint64 `json:"price_native"`
	PriceToken  uint64 `json:"price_token"`
}

func toEventResponse(ev domain.Event) eventResponse {
	return eventResponse{
		ID:          ev.ID,
		SoldCount:   ev.SoldCount,
		Capacity:    ev.Capacity,
		Remaining:   ev.Remaining(),
		PriceNative: ev.PriceNative,
		PriceToken:  ev.PriceToken,
	}
}

type purchaseResponse struct {
	ID           string    `json:"id"`
	EventID      uint64    `json:"event_id"`
	Quantity     uint64    `json:"quantity"`
	Payer        string    `json:"payer"`
	Denomination string    `json:"denomination"`
	CreatedAt    time.Time `json:"created_at"`
	Surplus      uint64    `json:"surplus,omitempty"`
}

// HandleListEvents returns an HTTP handler for the public event list.
func HandleListEvents(svc CatalogReadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		events, err := svc.ListEvents(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		resp := make([]eventResponse, 0, len(events))
		for _, ev := range events {
			resp = append(resp, toEventResponse(ev))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleEventSubtree serves /events/{id} and /events/{id}/purchases.
func HandleEventSubtree(catalog CatalogReadService, purchases PurchaseTicketsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, sub, ok := parseEventPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch sub {
		case "":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			ev, err := catalog.GetEvent(r.Context(), eventID)
			if err != nil {
				if err == domain.ErrEventNotFound {
					writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			writeJSON(w, http.StatusOK, toEventResponse(ev))
		case "purchases":
			switch r.Method {
			case http.MethodGet:
				handleListPurchases(w, r, catalog, eventID)
			case http.MethodPost:
				handlePurchase(w, r, purchases, eventID)
			default:
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			}
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleListPurchases(w http.ResponseWriter, r *http.Request, svc CatalogReadService, eventID uint64) {
	recs, err := svc.ListPurchases(r.Context(), eventID)
	if err != nil {
		if err == domain.ErrEventNotFound {
			writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}
	resp := make([]purchaseResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, purchaseResponse{
			ID:           rec.ID,
			EventID:      rec.EventID,
			Quantity:     rec.Quantity,
			Payer:        rec.Payer,
			Denomination: string(rec.Denomination),
			CreatedAt:    rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type purchaseRequest struct {
	Quantity       uint64 `json:"quantity"`
	Denomination   string `json:"denomination"`
	Payer          string `json:"payer"`
	AttachedAmount uint64 `json:"attached_amount"`
}

func handlePurchase(w http.ResponseWriter, r *http.Request, svc PurchaseTicketsService, eventID uint64) {
	var req purchaseRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	res, err := svc.Purchase(r.Context(), app.PurchaseInput{
		EventID:      eventID,
		Quantity:     req.Quantity,
		Denomination: domain.Denomination(req.Denomination),
		Payer:        req.Payer,
		Attached:     req.AttachedAmount,
	})
	if err != nil {
		switch err {
		case domain.ErrInvalidQuantity:
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
		case domain.ErrInvalidDenomination:
			writeError(w, http.StatusBadRequest, codeInvalidDenomination, err.Error())
		case domain.ErrPayerRequired:
			writeError(w, http.StatusBadRequest, codePayerRequired, err.Error())
		case domain.ErrAmountOverflow:
			writeError(w, http.StatusBadRequest, codeAmountOverflow, err.Error())
		case domain.ErrEventNotFound:
			writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
		case domain.ErrSoldOut:
			writeError(w, http.StatusConflict, codeSoldOut, err.Error())
		case domain.ErrInsufficientPayment:
			writeError(w, http.StatusPaymentRequired, codeInsufficientPayment, err.Error())
		case domain.ErrPaymentTransferFailed:
			writeError(w, http.StatusPaymentRequired, codePaymentTransferFailed, err.Error())
		case domain.ErrIssuanceFailed:
			writeError(w, http.StatusBadGateway, codeIssuanceFailed, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, purchaseResponse{
		ID:           res.Record.ID,
		EventID:      res.Record.EventID,
		Quantity:     res.Record.Quantity,
		Payer:        res.Record.Payer,
		Denomination: string(res.Record.Denomination),
		CreatedAt:    res.Record.CreatedAt,
		Surplus:      res.Surplus,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// parseEventPath splits /events/{id} and /events/{id}/{sub}.
func parseEventPath(path string) (uint64, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "events" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, "", false
	}
	if len(parts) == 2 {
		return id, "", true
	}
	return id, parts[2], true
}
