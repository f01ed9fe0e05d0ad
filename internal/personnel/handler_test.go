package personnel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/session"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database/databasetest"
)

func newTestHandler(t *testing.T) (*Handler, *session.Codec) {
	t.Helper()
	svc, db := newTestService(t)
	hash, _ := testHasher.Hash("clave-segura")
	databasetest.InsertPerson(t, db, databasetest.Person{
		Name: "Carla Diaz", Email: "carla@hospital.cl", Role: "CLIENTE", Password: &hash, Active: true,
	})
	codec := session.NewCodec(session.Options{Secret: "secret", Issuer: "oneservis"})
	return NewHandler(svc, codec, zap.NewNop().Sugar(), false), codec
}

func TestLoginSetsCookie(t *testing.T) {
	h, codec := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"carla@hospital.cl","password":"clave-segura"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Success  bool   `json:"success"`
		Redirect string `json:"redirect"`
		User     struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.User.Role != "CLIENT" || body.Redirect != "/client" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatalf("credential leaked: %s", rr.Body.String())
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName {
		t.Fatalf("expected auth cookie, got %+v", cookies)
	}
	if _, err := codec.Verify(cookies[0].Value); err != nil {
		t.Fatalf("cookie token does not verify: %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	h, _ := newTestHandler(t)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"email":"carla@hospital.cl","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"email":"x@hospital.cl","password":"clave-segura"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"carla@hospital.cl"}`, http.StatusBadRequest},
		{"not json", `email=carla`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tc.body)))
			if rr.Code != tc.want {
				t.Fatalf("expected %d got %d body=%s", tc.want, rr.Code, rr.Body.String())
			}
			if len(rr.Result().Cookies()) != 0 {
				t.Fatalf("no cookie expected on failure")
			}
		})
	}
}

func TestSessionAndLogout(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	h.Session(rr, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie got %d", rr.Code)
	}

	login := httptest.NewRecorder()
	h.Login(login, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"correo":"carla@hospital.cl","password":"clave-segura"}`)))
	if login.Code != http.StatusOK {
		t.Fatalf("login via correo alias failed: %d body=%s", login.Code, login.Body.String())
	}
	ck := login.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
	req.AddCookie(ck)
	rr = httptest.NewRecorder()
	h.Session(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "carla@hospital.cl") {
		t.Fatalf("expected session 200 got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodDelete, "/api/auth/login", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Fatalf("expected cleared cookie, got %d %q", rr.Code, rr.Header().Get("Set-Cookie"))
	}
}
