package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/iva-calculator/internal/db/dbtest"
	"github.com/diewo77/iva-calculator/internal/services"
	"github.com/diewo77/iva-calculator/internal/store"
	"gorm.io/gorm"
)

const groceries = `{"products":[
	{"name":"Milk","price":2.00},
	{"name":"Bread","price":1.50},
	{"name":"Eggs","price":3.00},
	{"name":"Cheese","price":4.50},
	{"name":"Butter","price":2.50}
]}`

func setupAPI(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	catalog := store.NewCatalog(conn)
	ledger := store.NewLedger(conn)
	mux := http.NewServeMux()
	NewCalculationHandler(services.NewCalculationService(catalog, ledger, nil)).Register(mux)
	NewProductHandler(services.NewCatalogService(catalog, nil)).Register(mux)
	NewHealthHandler(nil).Register(mux)
	return mux, conn
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return env
}

func countCalculations(t *testing.T, h http.Handler) int {
	t.Helper()
	rr := do(t, h, http.MethodGet, "/api/calculations", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list calculations: %d %s", rr.Code, rr.Body.String())
	}
	var list []json.RawMessage
	if err := json.Unmarshal(decode(t, rr).Data, &list); err != nil {
		t.Fatal(err)
	}
	return len(list)
}

func TestCalculateItemsFlow(t *testing.T) {
	h, _ := setupAPI(t)

	rr := do(t, h, http.MethodPost, "/api/calculate-iva", groceries)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	env := decode(t, rr)
	if !env.Success {
		t.Fatalf("expected success envelope: %s", rr.Body.String())
	}
	var data services.ItemsResult
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.TotalPrice != 13.5 || data.IVAAmount != 2.84 || data.FinalPrice != 16.34 || data.IVARate != 21 {
		t.Fatalf("unexpected totals: %+v", data)
	}
	if data.SavedID == "" || len(data.Products) != 5 {
		t.Fatalf("expected savedId and 5 products: %+v", data)
	}

	rr = do(t, h, http.MethodGet, "/api/calculation/"+data.SavedID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get saved: %d %s", rr.Code, rr.Body.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(decode(t, rr).Data, &rec); err != nil {
		t.Fatal(err)
	}
	if rec["finalPrice"] != 16.34 || rec["kind"] != "items" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, ok := rec["priceWithIVA"]; ok {
		t.Errorf("items record should omit product fields: %v", rec)
	}
}

func TestCalculateItemsWrongCountPersistsNothing(t *testing.T) {
	h, _ := setupAPI(t)
	four := `{"products":[{"name":"a","price":1},{"name":"b","price":1},{"name":"c","price":1},{"name":"d","price":1}]}`
	six := `{"products":[{"name":"a","price":1},{"name":"b","price":1},{"name":"c","price":1},{"name":"d","price":1},{"name":"e","price":1},{"name":"f","price":1}]}`
	for _, body := range []string{four, six} {
		rr := do(t, h, http.MethodPost, "/api/calculate-iva", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rr.Code)
		}
		if got := decode(t, rr).Error; got != "exactly 5 products required" {
			t.Errorf("error = %q", got)
		}
	}
	if n := countCalculations(t, h); n != 0 {
		t.Fatalf("expected empty ledger, got %d", n)
	}
}

func TestCalculateBadRequests(t *testing.T) {
	h, _ := setupAPI(t)
	cases := []struct {
		body string
		want string
	}{
		{`{}`, "products or name required"},
		{``, "products or name required"},
		{`{"products":`, "invalid JSON body"},
		{`{"name":""}`, "name required"},
		{`{"products":[{"name":"a"},{"name":"b","price":1},{"name":"c","price":1},{"name":"d","price":1},{"name":"e","price":1}]}`, "name and price required"},
	}
	for _, c := range cases {
		rr := do(t, h, http.MethodPost, "/api/calculate-iva", c.body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400 got %d", c.body, rr.Code)
			continue
		}
		if got := decode(t, rr).Error; got != c.want {
			t.Errorf("body %q: error = %q, want %q", c.body, got, c.want)
		}
	}
}

func TestCatalogFlow(t *testing.T) {
	h, _ := setupAPI(t)

	rr := do(t, h, http.MethodPost, "/api/products", `{"name":"Milk","price":2.00,"quantity":10}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}
	var created map[string]any
	if err := json.Unmarshal(decode(t, rr).Data, &created); err != nil {
		t.Fatal(err)
	}
	id, _ := created["id"].(string)
	if id == "" || created["name"] != "Milk" || created["quantity"] != float64(10) {
		t.Fatalf("unexpected product: %v", created)
	}
	if _, ok := created["createdAt"]; !ok {
		t.Errorf("expected createdAt in %v", created)
	}

	rr = do(t, h, http.MethodPost, "/api/products", `{"name":"MILK","price":"3","quantity":"1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400 got %d", rr.Code)
	}
	if got := decode(t, rr).Error; got != "product already exists" {
		t.Errorf("error = %q", got)
	}

	rr = do(t, h, http.MethodGet, "/api/products", "")
	var products []map[string]any
	if err := json.Unmarshal(decode(t, rr).Data, &products); err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 {
		t.Fatalf("catalog should be unchanged, got %d products", len(products))
	}

	rr = do(t, h, http.MethodPost, "/api/calculate-iva", `{"name":"milk"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("by name: %d %s", rr.Code, rr.Body.String())
	}
	var byName services.ProductResult
	if err := json.Unmarshal(decode(t, rr).Data, &byName); err != nil {
		t.Fatal(err)
	}
	if byName.Calculation.IVAAmount != 0.3 || byName.Calculation.PriceWithIVA != 2.3 || byName.Product.ID != id {
		t.Fatalf("unexpected result: %+v", byName)
	}

	rr = do(t, h, http.MethodPost, "/api/calculate-iva/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("by id: %d %s", rr.Code, rr.Body.String())
	}
	if n := countCalculations(t, h); n != 2 {
		t.Fatalf("expected 2 records, got %d", n)
	}
}

func TestNotFound(t *testing.T) {
	h, _ := setupAPI(t)
	cases := []struct {
		method, path, body, want string
	}{
		{http.MethodPost, "/api/calculate-iva/does-not-exist", "", "product not found"},
		{http.MethodPost, "/api/calculate-iva", `{"name":"caviar"}`, "product not found"},
		{http.MethodGet, "/api/calculation/does-not-exist", "", "calculation not found"},
	}
	for _, c := range cases {
		rr := do(t, h, c.method, c.path, c.body)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404 got %d", c.method, c.path, rr.Code)
			continue
		}
		if got := decode(t, rr).Error; got != c.want {
			t.Errorf("%s %s: error = %q", c.method, c.path, got)
		}
	}
}

func TestListCalculationsLimit(t *testing.T) {
	h, _ := setupAPI(t)
	for i := 0; i < 3; i++ {
		if rr := do(t, h, http.MethodPost, "/api/calculate-iva", groceries); rr.Code != http.StatusOK {
			t.Fatalf("seed calculation: %d", rr.Code)
		}
	}
	rr := do(t, h, http.MethodGet, "/api/calculations?limit=2", "")
	var list []json.RawMessage
	if err := json.Unmarshal(decode(t, rr).Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	for _, bad := range []string{"abc", "-1"} {
		rr := do(t, h, http.MethodGet, "/api/calculations?limit="+bad, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400 got %d", bad, rr.Code)
		}
	}
}

func TestStoreFailureIs500(t *testing.T) {
	h, conn := setupAPI(t)
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatal(err)
	}
	_ = sqlDB.Close()

	rr := do(t, h, http.MethodGet, "/api/products", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
	if decode(t, rr).Error == "" {
		t.Errorf("expected an error message")
	}
}

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(func(context.Context) error { return nil }).Register(mux)
	rr := do(t, mux, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("healthy: %d %s", rr.Code, rr.Body.String())
	}

	mux = http.NewServeMux()
	NewHealthHandler(func(context.Context) error { return errors.New("down") }).Register(mux)
	rr = do(t, mux, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), `"status":"degraded"`) {
		t.Fatalf("degraded: %d %s", rr.Code, rr.Body.String())
	}
}

func TestOversizedNumbersLeaveNoState(t *testing.T) {
	h, _ := setupAPI(t)
	bodies := []struct {
		path, body string
	}{
		{"/api/products", `{"name":"Gold","price":"1e400","quantity":1}`},
		{"/api/products", `{"name":"Gold","price":1e400,"quantity":1}`},
		{"/api/products", `{"name":"Gold","price":1.7e308,"quantity":1}`},
		{"/api/calculate-iva", `{"products":[{"name":"a","price":1e400},{"name":"b","price":1},{"name":"c","price":1},{"name":"d","price":1},{"name":"e","price":1}]}`},
		{"/api/calculate-iva", `{"products":[{"name":"a","price":"1e400"},{"name":"b","price":1},{"name":"c","price":1},{"name":"d","price":1},{"name":"e","price":1}]}`},
		{"/api/calculate-iva", `{"products":[{"name":"a","price":1.7e308},{"name":"b","price":1},{"name":"c","price":1},{"name":"d","price":1},{"name":"e","price":1}]}`},
	}
	for _, b := range bodies {
		rr := do(t, h, http.MethodPost, b.path, b.body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("POST %s %s: expected 400 got %d %s", b.path, b.body, rr.Code, rr.Body.String())
		}
	}

	rr := do(t, h, http.MethodGet, "/api/products", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list products: %d %s", rr.Code, rr.Body.String())
	}
	if n := countCalculations(t, h); n != 0 {
		t.Fatalf("expected empty ledger, got %d", n)
	}
	rr = do(t, h, http.MethodPost, "/api/calculate-iva", `{"name":"gold"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("gold should not exist: %d %s", rr.Code, rr.Body.String())
	}
}
