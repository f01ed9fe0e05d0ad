package workorder

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/access"
	personnel "github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database/databasetest"
)

// routes mounts the handler the way the router does, with user standing in
// for the session the guard would have verified.
func routes(h *Handler, user *personnel.PublicProfile) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(access.WithProfile(req.Context(), user)))
		})
	})
	r.Get("/api/work-orders", h.List)
	r.Post("/api/work-orders", h.Create)
	r.Get("/api/work-orders/{id}", h.Get)
	r.Put("/api/work-orders/{id}", h.Update)
	r.Patch("/api/work-orders/{id}", h.Update)
	r.Delete("/api/work-orders/{id}", h.Delete)
	r.Get("/api/requests", h.FormOptions)
	r.Post("/api/requests", h.Submit)
	return r
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

func TestSubmitEndpoint(t *testing.T) {
	f := newFixture(t)
	client := &personnel.PublicProfile{ID: f.client, Name: "Juan Cliente", Role: personnel.RoleClient}
	srv := routes(NewHandler(f.mgr, zap.NewNop().Sugar(), false), client)

	// a client cannot file on behalf of someone else
	body := fmt.Sprintf(`{"equipment_id":%d,"kind":"preventivo","description":"%s","priority":"alta","contact_name":"Juan","contact_email":"juan@x.com","requester_id":%d}`,
		f.equipment, strings.Repeat("A", 25), f.client2)
	rr := do(t, srv, http.MethodPost, "/api/requests", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			OrderNumber  string `json:"order_number"`
			RecordNumber string `json:"record_number"`
			Kind         string `json:"kind"`
			Priority     string `json:"priority"`
			Order        struct {
				ReporterID int64  `json:"reporter_id"`
				Status     string `json:"status"`
			} `json:"order"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || !strings.HasPrefix(resp.Data.OrderNumber, "OT-") || !strings.HasPrefix(resp.Data.RecordNumber, "PRE-") {
		t.Fatalf("unexpected response %s", rr.Body.String())
	}
	if resp.Data.Kind != "preventive" || resp.Data.Priority != "high" || resp.Data.Order.Status != "pending" {
		t.Fatalf("unexpected enums %s", rr.Body.String())
	}
	if resp.Data.Order.ReporterID != f.client {
		t.Fatalf("requester should be the caller, got %d", resp.Data.Order.ReporterID)
	}
}

func TestSubmitEndpointRejects(t *testing.T) {
	f := newFixture(t)
	client := &personnel.PublicProfile{ID: f.client, Role: personnel.RoleClient}
	srv := routes(NewHandler(f.mgr, zap.NewNop().Sugar(), false), client)

	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(`equipment_id=1`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("form body: expected 400 got %d", rr.Code)
	}

	if rr := do(t, srv, http.MethodPost, "/api/requests", `{"equipment_id":`); rr.Code != http.StatusBadRequest {
		t.Fatalf("broken json: expected 400 got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/requests", `{"equipment_id":0,"kind":"corrective","description":"short","priority":"alta","contact_name":"J","contact_email":"x"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("schema: expected 400 got %d", rr.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || len(body.Details) < 4 {
		t.Fatalf("expected field-level details, got %s", rr.Body.String())
	}
	if n := databasetest.Count(t, f.db, "orden_trabajo"); n != 0 {
		t.Fatalf("rejected requests wrote %d orders", n)
	}
}

func TestListEndpointScopesClients(t *testing.T) {
	f := newFixture(t)
	databasetest.InsertWorkOrder(t, f.db, day("2025-01-01"), "pendiente", "Orden del primer cliente", f.client, nil, f.equipment)
	databasetest.InsertWorkOrder(t, f.db, day("2025-01-02"), "pendiente", "Orden del segundo cliente", f.client2, nil, f.equipment)
	h := NewHandler(f.mgr, zap.NewNop().Sugar(), false)

	count := func(user *personnel.PublicProfile, query string) int {
		rr := do(t, routes(h, user), http.MethodGet, "/api/work-orders"+query, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
		}
		var body struct {
			Data struct {
				Pagination struct {
					Total int `json:"total"`
				} `json:"pagination"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.Data.Pagination.Total
	}

	client := &personnel.PublicProfile{ID: f.client, Role: personnel.RoleClient}
	admin := &personnel.PublicProfile{ID: f.admin, Role: personnel.RoleAdmin}
	if n := count(client, ""); n != 1 {
		t.Fatalf("client sees %d orders", n)
	}
	if n := count(client, fmt.Sprintf("?reporter_id=%d", f.client2)); n != 1 {
		t.Fatalf("client escaped scope: %d orders", n)
	}
	if n := count(admin, "?estado=pendiente"); n != 2 {
		t.Fatalf("admin sees %d orders", n)
	}

	for _, q := range []string{"?status=archived", "?page=two", "?date_from=2025-13-01", "?technician_id=-1"} {
		if rr := do(t, routes(h, admin), http.MethodGet, "/api/work-orders"+q, ""); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", q, rr.Code)
		}
	}
}

func TestUpdateAndDeleteEndpoints(t *testing.T) {
	f := newFixture(t)
	id := databasetest.InsertWorkOrder(t, f.db, day("2025-01-01"), "pendiente", "Monitor sin imagen en UCI", f.client, &f.technician, f.equipment)
	admin := &personnel.PublicProfile{ID: f.admin, Role: personnel.RoleAdmin}
	srv := routes(NewHandler(f.mgr, zap.NewNop().Sugar(), false), admin)

	if rr := do(t, srv, http.MethodPut, "/api/work-orders/999999", `{"status":"completed"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPut, "/api/work-orders/abc", `{"status":"completed"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPatch, fmt.Sprintf("/api/work-orders/%d", id), `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch got %d", rr.Code)
	}

	rr := do(t, srv, http.MethodPatch, fmt.Sprintf("/api/work-orders/%d", id), `{"technician_id":null,"status":"cancelled"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Data struct {
			Status       string `json:"status"`
			TechnicianID *int64 `json:"technician_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Status != "cancelled" || body.Data.TechnicianID != nil {
		t.Fatalf("unexpected update result %s", rr.Body.String())
	}

	if rr := do(t, srv, http.MethodDelete, fmt.Sprintf("/api/work-orders/%d", id), ""); rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200 got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, fmt.Sprintf("/api/work-orders/%d", id), ""); rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404 got %d", rr.Code)
	}
}

func TestCreateEndpointDefaultsReporter(t *testing.T) {
	f := newFixture(t)
	tech := &personnel.PublicProfile{ID: f.technician, Role: personnel.RoleTechnician}
	srv := routes(NewHandler(f.mgr, zap.NewNop().Sugar(), false), tech)

	rr := do(t, srv, http.MethodPost, "/api/work-orders", fmt.Sprintf(`{"date":"2025-03-01","summary":"Mantencion preventiva trimestral","equipment_id":%d}`, f.other))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Data struct {
			ReporterID int64  `json:"reporter_id"`
			Status     string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.ReporterID != f.technician || body.Data.Status != "pending" {
		t.Fatalf("unexpected order %s", rr.Body.String())
	}

	if rr := do(t, srv, http.MethodPost, "/api/work-orders", `{"date":"01-03-2025","summary":"corto","equipment_id":0}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}
