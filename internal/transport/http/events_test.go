package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/onsale/marketplace/internal/app"
	"github.com/onsale/marketplace/internal/domain"
)

type stubCatalog struct {
	events    []domain.Event
	purchases []domain.PurchaseRecord
	err       error
}

func (s *stubCatalog) GetEvent(ctx context.Context, id uint64) (domain.Event, error) {
	if s.err != nil {
		return domain.Event{}, s.err
	}
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, nil
		}
	}
	return domain.Event{}, domain.ErrEventNotFound
}

func (s *stubCatalog) ListEvents(ctx context.Context) ([]domain.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func (s *stubCatalog) ListPurchases(ctx context.Context, eventID uint64) ([]domain.PurchaseRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.purchases, nil
}

type stubPurchaser struct {
	in     app.PurchaseInput
	result app.PurchaseResult
	err    error
}

func (s *stubPurchaser) Purchase(ctx context.Context, in app.PurchaseInput) (app.PurchaseResult, error) {
	s.in = in
	if s.err != nil {
		return app.PurchaseResult{}, s.err
	}
	return s.result, nil
}

func TestHandleListEvents(t *testing.T) {
	catalog := &stubCatalog{events: []domain.Event{
		{ID: 0, SoldCount: 2, Capacity: 5, PriceNative: 10, PriceToken: 7},
		{ID: 1, Capacity: 100},
	}}

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	HandleListEvents(catalog)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp []eventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp))
	}
	if resp[0].Remaining != 3 {
		t.Fatalf("expected remaining 3, got %d", resp[0].Remaining)
	}
}

func TestHandleEventSubtree_GetEvent(t *testing.T) {
	catalog := &stubCatalog{events: []domain.Event{{ID: 4, Capacity: 9, PriceNative: 12}}}
	handler := HandleEventSubtree(catalog, &stubPurchaser{})

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events/4", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp eventResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != 4 || resp.Capacity != 9 || resp.PriceNative != 12 {
			t.Fatalf("unexpected event payload: %+v", resp)
		}
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events/7", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		assertErrorResponse(t, rec, http.StatusNotFound, codeEventNotFound)
	})

	t.Run("bad id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events/abc", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		assertErrorResponse(t, rec, http.StatusNotFound, codeNotFound)
	})
}

func TestHandleEventSubtree_ListPurchases(t *testing.T) {
	catalog := &stubCatalog{
		events: []domain.Event{{ID: 0, Capacity: 5}},
		purchases: []domain.PurchaseRecord{{
			ID:           "p-1",
			EventID:      0,
			Quantity:     2,
			Payer:        "alice",
			Denomination: domain.DenominationNative,
			CreatedAt:    time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		}},
	}
	handler := HandleEventSubtree(catalog, &stubPurchaser{})

	req := httptest.NewRequest(http.MethodGet, "/events/0/purchases", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp []purchaseResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Payer != "alice" || resp[0].Quantity != 2 {
		t.Fatalf("unexpected purchases payload: %+v", resp)
	}
}

func TestHandleEventSubtree_Purchase(t *testing.T) {
	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	purchaser := &stubPurchaser{result: app.PurchaseResult{
		Record: domain.PurchaseRecord{
			ID:           "p-9",
			EventID:      3,
			Quantity:     2,
			Payer:        "alice",
			Denomination: domain.DenominationNative,
			CreatedAt:    now,
		},
	}}
	handler := HandleEventSubtree(&stubCatalog{}, purchaser)

	body := `{"quantity":2,"denomination":"native","payer":"alice","attached_amount":20}`
	req := httptest.NewRequest(http.MethodPost, "/events/3/purchases", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if purchaser.in.EventID != 3 || purchaser.in.Attached != 20 {
		t.Fatalf("unexpected purchase input: %+v", purchaser.in)
	}
	var resp purchaseResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "p-9" || resp.EventID != 3 {
		t.Fatalf("unexpected purchase payload: %+v", resp)
	}
}

func TestHandleEventSubtree_PurchaseErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid quantity", domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
		{"invalid denomination", domain.ErrInvalidDenomination, http.StatusBadRequest, codeInvalidDenomination},
		{"payer required", domain.ErrPayerRequired, http.StatusBadRequest, codePayerRequired},
		{"overflow", domain.ErrAmountOverflow, http.StatusBadRequest, codeAmountOverflow},
		{"event not found", domain.ErrEventNotFound, http.StatusNotFound, codeEventNotFound},
		{"sold out", domain.ErrSoldOut, http.StatusConflict, codeSoldOut},
		{"insufficient payment", domain.ErrInsufficientPayment, http.StatusPaymentRequired, codeInsufficientPayment},
		{"transfer failed", domain.ErrPaymentTransferFailed, http.StatusPaymentRequired, codePaymentTransferFailed},
		{"issuance failed", domain.ErrIssuanceFailed, http.StatusBadGateway, codeIssuanceFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := HandleEventSubtree(&stubCatalog{}, &stubPurchaser{err: tc.err})

			body := `{"quantity":1,"denomination":"native","payer":"alice"}`
			req := httptest.NewRequest(http.MethodPost, "/events/0/purchases", strings.NewReader(body))
			rec := httptest.NewRecorder()
			handler(rec, req)

			assertErrorResponse(t, rec, tc.wantStatus, tc.wantCode)
		})
	}
}

func TestHandleEventSubtree_PurchaseBadBody(t *testing.T) {
	handler := HandleEventSubtree(&stubCatalog{}, &stubPurchaser{})

	req := httptest.NewRequest(http.MethodPost, "/events/0/purchases", strings.NewReader(`{"quantity":1,"bogus":true}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assertErrorResponse(t, rec, http.StatusBadRequest, codeInvalidRequestBody)
}

func assertErrorResponse(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("expected status %d, got %d", wantStatus, rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != wantCode {
		t.Fatalf("expected code %s, got %s", wantCode, resp.Code)
	}
}
