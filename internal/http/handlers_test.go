package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"exptrack/internal/config"
	"exptrack/internal/core"
	"exptrack/internal/kv"
	"exptrack/internal/log"
	"exptrack/internal/storage"
	"exptrack/internal/tracker"
	"exptrack/internal/validate"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Load()
	cfg.Storage.Backend = "memory"
	if mutate != nil {
		mutate(cfg)
	}
	store := storage.New(kv.NewMemoryBackend(), cfg.Storage, testLogger())
	tr := tracker.New(cfg, store, validate.New(cfg), testLogger())
	tr.Load()
	return NewServer("127.0.0.1:0", cfg, tr, testLogger())
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"type":"expense","date":"2025-06-01","description":"Lunch","category":"Food & Dining","amount":"12.50"}`

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestCreateTransaction(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions", validBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var txn core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &txn); err != nil {
		t.Fatal(err)
	}
	if txn.ID == "" || txn.Amount != 12.5 {
		t.Fatalf("unexpected created transaction: %+v", txn)
	}
}

func TestCreateTransactionValidationErrors(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"type":"expense","amount":"-1"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Fields["amount"] == "" || body.Fields["date"] == "" {
		t.Fatalf("expected per-field errors, got %v", body.Fields)
	}
}

func TestCreateTransactionBadJSON(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/transactions", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListTransactionsFiltered(t *testing.T) {
	s := newTestServer(t, nil)
	doRequest(t, s, http.MethodPost, "/api/transactions", validBody)
	doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"type":"income","date":"2025-06-02","description":"Pay","category":"Salary","amount":"100"}`)

	rec := doRequest(t, s, http.MethodGet, "/api/transactions?type=income", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var txns []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &txns); err != nil {
		t.Fatal(err)
	}
	if len(txns) != 1 || txns[0].Type != core.Income {
		t.Fatalf("unexpected filtered list: %v", txns)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/transactions?type=transfer", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid type filter: status = %d, want 400", rec.Code)
	}
}

func TestUpdateTransaction(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(t, s, http.MethodPost, "/api/transactions", validBody)
	var created core.Transaction
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doRequest(t, s, http.MethodPut, "/api/transactions/"+created.ID,
		`{"type":"expense","date":"2025-06-01","description":"Dinner","category":"Food & Dining","amount":"30"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var updated core.Transaction
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Description != "Dinner" || updated.UpdatedAt == nil {
		t.Fatalf("unexpected updated transaction: %+v", updated)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/transactions/missing", validBody)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d, want 404", rec.Code)
	}
}

func TestDeleteTransactionIdempotent(t *testing.T) {
	s := newTestServer(t, nil)
	rec := doRequest(t, s, http.MethodPost, "/api/transactions", validBody)
	var created core.Transaction
	json.Unmarshal(rec.Body.Bytes(), &created)

	if rec := doRequest(t, s, http.MethodDelete, "/api/transactions/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	// Deleting again still answers 204.
	if rec := doRequest(t, s, http.MethodDelete, "/api/transactions/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("repeat delete: status = %d, want 204", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPatch, "/api/transactions", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Fatalf("Allow = %q, want GET, POST", allow)
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, nil)
	doRequest(t, s, http.MethodPost, "/api/transactions",
		`{"type":"income","date":"2025-06-01","description":"Pay","category":"Salary","amount":"100"}`)
	doRequest(t, s, http.MethodPost, "/api/transactions", validBody)

	rec := doRequest(t, s, http.MethodGet, "/api/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Summary        core.Summary          `json:"summary"`
		CategoryTotals []core.CategoryAmount `json:"categoryTotals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Summary.TotalIncome != 100 || body.Summary.TotalExpenses != 12.5 {
		t.Fatalf("unexpected summary: %+v", body.Summary)
	}
	if len(body.CategoryTotals) != 1 || body.CategoryTotals[0].Name != "Food & Dining" {
		t.Fatalf("unexpected category totals: %v", body.CategoryTotals)
	}
}

func TestSummaryWithoutCharts(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Features.EnableCharts = false
	})
	doRequest(t, s, http.MethodPost, "/api/transactions", validBody)

	rec := doRequest(t, s, http.MethodGet, "/api/summary", "")
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if _, present := body["categoryTotals"]; present {
		t.Fatal("expected category totals to be omitted when charts are disabled")
	}
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cats config.Categories
	if err := json.Unmarshal(rec.Body.Bytes(), &cats); err != nil {
		t.Fatal(err)
	}
	if len(cats.Income) == 0 || len(cats.Expense) == 0 {
		t.Fatalf("unexpected taxonomy: %+v", cats)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/categories?flat=true", "")
	var flat []string
	if err := json.Unmarshal(rec.Body.Bytes(), &flat); err != nil {
		t.Fatal(err)
	}
	if len(flat) != len(cats.Income)+len(cats.Expense) {
		t.Fatalf("flat taxonomy = %d entries, want %d", len(flat), len(cats.Income)+len(cats.Expense))
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)
	doRequest(t, s, http.MethodPost, "/api/transactions", validBody)

	rec := doRequest(t, s, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "expense-tracker-data-") ||
		!strings.Contains(disposition, ".json") {
		t.Fatalf("unexpected Content-Disposition %q", disposition)
	}
	var snap tracker.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Transactions) != 1 || snap.Version == "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestExportDisabled(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Features.EnableExport = false
	})
	rec := doRequest(t, s, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestImport(t *testing.T) {
	s := newTestServer(t, nil)
	doRequest(t, s, http.MethodPost, "/api/transactions", validBody)

	bundle := `{"version":"1.0.0","transactions":[{"id":"a1","type":"income","date":"2025-01-05","description":"pay","category":"Salary","amount":900}]}`

	// Without confirmation the import is refused.
	rec := doRequest(t, s, http.MethodPost, "/api/import", bundle)
	if rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("status = %d, want 428", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/import?confirm=true", bundle)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]int
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["imported"] != 1 {
		t.Fatalf("imported = %d, want 1", body["imported"])
	}

	rec = doRequest(t, s, http.MethodGet, "/api/transactions", "")
	var txns []core.Transaction
	json.Unmarshal(rec.Body.Bytes(), &txns)
	if len(txns) != 1 || txns[0].ID != "a1" {
		t.Fatalf("import did not replace the collection: %v", txns)
	}
}

func TestImportMalformed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/import?confirm=true", `{"version":"1.0.0"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestImportDisabled(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Features.EnableImport = false
	})
	rec := doRequest(t, s, http.MethodPost, "/api/import?confirm=true", `{}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}
