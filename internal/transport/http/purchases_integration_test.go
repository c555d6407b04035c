package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/onsale/marketplace/internal/app"
	"github.com/onsale/marketplace/internal/auth"
	"github.com/onsale/marketplace/internal/clock"
	"github.com/onsale/marketplace/internal/credential"
	"github.com/onsale/marketplace/internal/observe"
	"github.com/onsale/marketplace/internal/settlement"
	"github.com/onsale/marketplace/internal/storage/postgres"
	"github.com/onsale/marketplace/internal/testutil"
)

func TestPurchase_HTTPIntegration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	tokenBackend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer tokenBackend.Close()
	issuerBackend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer issuerBackend.Close()

	logger, _ := logtest.NewNullLogger()
	now := time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)

	catalogRepo := postgres.NewCatalogRepository(pool)
	purchaseRepo := postgres.NewPurchaseRepository(pool)
	publisher := observe.NewLogPublisher(logger)

	adminSvc := app.NewAdminService(catalogRepo, auth.NewSingleAdmin("admin"), publisher,
		app.WithAdminLogger(logger))
	purchaseSvc := app.NewPurchaseService(purchaseRepo,
		settlement.NewHTTPTokenChannel(tokenBackend.URL),
		credential.NewHTTPIssuer(issuerBackend.URL),
		publisher, clock.NewFixed(now),
		app.WithPurchaseLogger(logger))
	catalogSvc := app.NewCatalogService(catalogRepo, purchaseRepo)

	createReq := adminRequest(http.MethodPost, "/admin/events", `{"capacity":5,"price_native":10,"price_token":7}`)
	createRec := httptest.NewRecorder()
	HandleAdminCreateEvent(adminSvc)(createRec, createReq)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 creating event, got %d: %s", createRec.Code, createRec.Body.String())
	}

	handler := HandleEventSubtree(catalogSvc, purchaseSvc)

	body := `{"quantity":3,"denomination":"native","payer":"alice","attached_amount":30}`
	req := httptest.NewRequest(http.MethodPost, "/events/0/purchases", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp purchaseResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Quantity != 3 || resp.CreatedAt != now {
		t.Fatalf("unexpected purchase payload: %+v", resp)
	}

	var soldCount uint64
	if err := pool.QueryRow(ctx, `SELECT sold_count FROM events WHERE id = 0`).Scan(&soldCount); err != nil {
		t.Fatalf("query sold count: %v", err)
	}
	if soldCount != 3 {
		t.Fatalf("expected sold count 3, got %d", soldCount)
	}

	tokenBody := `{"quantity":2,"denomination":"token","payer":"bob"}`
	tokenReq := httptest.NewRequest(http.MethodPost, "/events/0/purchases", strings.NewReader(tokenBody))
	tokenRec := httptest.NewRecorder()
	handler(tokenRec, tokenReq)
	if tokenRec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 for token purchase, got %d: %s", tokenRec.Code, tokenRec.Body.String())
	}

	underpaid := `{"quantity":1,"denomination":"native","payer":"carol","attached_amount":9}`
	underReq := httptest.NewRequest(http.MethodPost, "/events/0/purchases", strings.NewReader(underpaid))
	underRec := httptest.NewRecorder()
	handler(underRec, underReq)
	if underRec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d", underRec.Code)
	}

	if err := pool.QueryRow(ctx, `SELECT sold_count FROM events WHERE id = 0`).Scan(&soldCount); err != nil {
		t.Fatalf("query sold count: %v", err)
	}
	if soldCount != 5 {
		t.Fatalf("expected rejected purchase to be released, sold count %d", soldCount)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/events/0/purchases", nil)
	listRec := httptest.NewRecorder()
	handler(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected status 200 listing purchases, got %d", listRec.Code)
	}
	var recs []purchaseResponse
	if err := json.NewDecoder(listRec.Body).Decode(&recs); err != nil {
		t.Fatalf("decode purchases: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recorded purchases, got %d", len(recs))
	}
}
