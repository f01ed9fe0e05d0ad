package access

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/session"
)

func profile(role entity.Role) *entity.PublicProfile {
	return &entity.PublicProfile{ID: 7, Name: "Ana Rojas", Email: "ana@oneservis.com", Role: role}
}

func TestLandingPathFor(t *testing.T) {
	cases := map[entity.Role]string{
		entity.RoleAdmin:      "/admin",
		entity.RoleTechnician: "/technician",
		entity.RoleClient:     "/client",
		entity.Role("GUEST"):  "/dashboard",
		entity.Role(""):       "/dashboard",
	}
	for role, want := range cases {
		if got := LandingPathFor(role); got != want {
			t.Fatalf("LandingPathFor(%q) = %q want %q", role, got, want)
		}
	}
}

func TestAuthorizeIsHierarchical(t *testing.T) {
	cases := []struct {
		user     *entity.PublicProfile
		required []entity.Role
		want     bool
	}{
		{profile(entity.RoleAdmin), []entity.Role{entity.RoleTechnician}, true},
		{profile(entity.RoleAdmin), []entity.Role{entity.RoleClient}, true},
		{profile(entity.RoleTechnician), []entity.Role{entity.RoleTechnician}, true},
		{profile(entity.RoleTechnician), []entity.Role{entity.RoleAdmin}, false},
		{profile(entity.RoleClient), []entity.Role{entity.RoleTechnician}, false},
		{profile(entity.RoleClient), []entity.Role{entity.RoleAdmin, entity.RoleClient}, true},
		{profile(entity.Role("GUEST")), []entity.Role{entity.RoleClient}, false},
		{profile(entity.RoleAdmin), nil, false},
		{nil, []entity.Role{entity.RoleClient}, false},
	}
	for i, tc := range cases {
		if got := Authorize(tc.user, tc.required...); got != tc.want {
			t.Fatalf("case %d: Authorize = %v want %v", i, got, tc.want)
		}
	}
}

func newGuardedHandler(t *testing.T) (http.Handler, *session.Codec) {
	t.Helper()
	codec := session.NewCodec(session.Options{Secret: "secret", Issuer: "oneservis"})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := ProfileFromContext(r.Context()); ok {
			_, _ = w.Write([]byte("hello " + p.Name))
			return
		}
		_, _ = w.Write([]byte("hello anonymous"))
	})
	return NewGuard(codec, nil).Middleware(h), codec
}

func TestGuardPublicAndStaticPaths(t *testing.T) {
	h, _ := newGuardedHandler(t)
	for _, path := range []string{"/", "/login", "/api/auth/login", "/api/test", "/static/app.css", "/favicon.ico"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rr.Code)
		}
	}
}

func TestGuardMissingToken(t *testing.T) {
	h, _ := newGuardedHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/work-orders", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] != "unauthorized" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestGuardRejectsForgedToken(t *testing.T) {
	h, _ := newGuardedHandler(t)
	forger := session.NewCodec(session.Options{Secret: "guessed", Issuer: "oneservis"})
	forged, _ := forger.Issue(*profile(entity.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/api/work-orders", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: forged})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged token got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Fatalf("expected cookie to be cleared")
	}
}

func TestGuardPassesValidTokenIntoContext(t *testing.T) {
	h, codec := newGuardedHandler(t)
	token, _ := codec.Issue(*profile(entity.RoleTechnician))

	req := httptest.NewRequest(http.MethodGet, "/technician", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "hello Ana Rojas" {
		t.Fatalf("expected pass-through got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	gate := RequireRole(entity.RoleAdmin)(ok)

	serve := func(path string, p *entity.PublicProfile) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if p != nil {
			req = req.WithContext(WithProfile(req.Context(), p))
		}
		rr := httptest.NewRecorder()
		gate.ServeHTTP(rr, req)
		return rr
	}

	if rr := serve("/admin", profile(entity.RoleAdmin)); rr.Code != http.StatusNoContent {
		t.Fatalf("admin should pass, got %d", rr.Code)
	}
	rr := serve("/admin", profile(entity.RoleClient))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/client" {
		t.Fatalf("client should be sent to /client, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	rr = serve("/api/work-orders/3", profile(entity.RoleTechnician))
	if rr.Code != http.StatusForbidden || !strings.Contains(rr.Body.String(), `"/technician"`) {
		t.Fatalf("expected 403 with redirect hint got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := serve("/admin", nil); rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("no session should go to login, got %d", rr.Code)
	}
}
