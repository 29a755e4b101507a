package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bukutoko/backend/internal/domain"
	"bukutoko/backend/internal/service"
	"bukutoko/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "owner",
		"password": "owner123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Fatalf("expected access_token in response, got %v", body)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "owner",
		"password": "wrongpassword",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleProducts_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleProducts_SearchFiltersByName(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "owner", "owner123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?q=beras", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Products) != 1 {
		t.Fatalf("expected 1 match for beras, got %d", len(body.Products))
	}
	if body.Products[0].Name != "Beras 5kg" {
		t.Fatalf("unexpected match %q", body.Products[0].Name)
	}
}

func TestHandleSales_CreateAndDelete(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	products := listProducts(t, api, token)
	if len(products) == 0 {
		t.Fatalf("expected seeded products")
	}
	target := products[0]

	payload, _ := json.Marshal(domain.SaleCreateRequest{
		ProductID:   target.ID,
		Quantity:    2,
		PriceCents:  target.PriceCents,
		PaymentType: "cash",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var created struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if created.Sale.Status != domain.SaleStatusPaid {
		t.Fatalf("expected cash sale to be Paid, got %s", created.Sale.Status)
	}

	after := listProducts(t, api, token)
	for _, p := range after {
		if p.ID == target.ID && p.Quantity != target.Quantity-2 {
			t.Fatalf("expected stock %d after sale, got %d", target.Quantity-2, p.Quantity)
		}
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/api/v1/sales/"+created.Sale.ID, nil)
	delReq.Header.Set("Authorization", "Bearer "+token)
	delReq.Header.Set("X-CSRF-Token", csrf)
	delRec := httptest.NewRecorder()

	handler.ServeHTTP(delRec, delReq)

	if delRec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d (body: %s)", delRec.Code, delRec.Body.String())
	}

	restored := listProducts(t, api, token)
	for _, p := range restored {
		if p.ID == target.ID && p.Quantity != target.Quantity {
			t.Fatalf("expected stock restored to %d after delete, got %d", target.Quantity, p.Quantity)
		}
	}
}

func TestHandleSales_InsufficientStockConflict(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "staff", "staff123")
	csrf := fetchCSRFToken(t, api)

	products := listProducts(t, api, token)
	target := products[0]

	payload, _ := json.Marshal(domain.SaleCreateRequest{
		ProductID:   target.ID,
		Quantity:    target.Quantity + 1,
		PriceCents:  target.PriceCents,
		PaymentType: "cash",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for oversell, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleReportChart_ReturnsSVG(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, api, "owner", "owner123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/chart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("<svg")) {
		t.Fatalf("expected SVG document in body")
	}
}

func listProducts(t *testing.T, api *API, token string) []domain.Product {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list products failed: %d %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	return body.Products
}
