package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/visits"
)

func login(t *testing.T, r http.Handler) *http.Cookie {
	t.Helper()
	w := serve(r, postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"hunter2"}}, nil, false))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/admin/dashboard" {
		t.Fatalf("login = %d %q", w.Code, w.Header().Get("Location"))
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == adminCookie {
			return c
		}
	}
	t.Fatal("no admin cookie after login")
	return nil
}

func TestAdminLogin_BadCredentials(t *testing.T) {
	r, _ := newTestSite(t, apiHandler(http.StatusOK, `{}`))

	w := serve(r, postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"nope"}}, nil, false))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid credentials") {
		t.Error("missing error message")
	}
}

func TestAdmin_RequiresToken(t *testing.T) {
	r, _ := newTestSite(t, apiHandler(http.StatusOK, `{}`))

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "garbage", cookie: &http.Cookie{Name: adminCookie, Value: "not-a-token"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := serve(r, req)
			if w.Code != http.StatusFound || w.Header().Get("Location") != "/admin/login" {
				t.Errorf("got %d %q, want redirect to login", w.Code, w.Header().Get("Location"))
			}
		})
	}
}

func TestAdmin_StatsAfterLogin(t *testing.T) {
	r, s := newTestSite(t, apiHandler(http.StatusOK, `{}`))
	if err := s.visits.Record(context.Background(), "10.0.0.1", "curl", "/"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	cookie := login(t, r)

	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	req.AddCookie(cookie)
	w := serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats visits.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalVisitors < 1 {
		t.Errorf("TotalVisitors = %d", stats.TotalVisitors)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/export/stats", nil)
	req.AddCookie(cookie)
	w = serve(r, req)
	if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(cookie)
	w = serve(r, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Dashboard") {
		t.Errorf("dashboard = %d", w.Code)
	}
}

func TestAdminAuth_Check(t *testing.T) {
	a, err := newAdminAuth(config.AdminConfig{Username: "admin", Password: "pw", Secret: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	token, err := a.issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := a.check(token); err != nil {
		t.Errorf("fresh token rejected: %v", err)
	}

	other, err := newAdminAuth(config.AdminConfig{Username: "admin", Password: "pw", Secret: "s2"})
	if err != nil {
		t.Fatal(err)
	}
	if err := other.check(token); err == nil {
		t.Error("token signed with another secret accepted")
	}

	a.now = func() time.Time { return time.Now().Add(adminTokenTTL + time.Minute) }
	if err := a.check(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestAdminAuth_GeneratedPassword(t *testing.T) {
	a, err := newAdminAuth(config.AdminConfig{Username: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.password) != 20 {
		t.Errorf("generated password length = %d", len(a.password))
	}
	if a.validCredentials("admin", "") {
		t.Error("empty password accepted")
	}
}

func TestVisitorTracking_SkipRules(t *testing.T) {
	r, s := newTestSite(t, apiHandler(http.StatusOK, `{}`))

	skipped := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/healthz", nil),
		httptest.NewRequest(http.MethodGet, "/privacy", nil),
		httptest.NewRequest(http.MethodGet, "/admin/login", nil),
	}
	dnt := httptest.NewRequest(http.MethodGet, "/", nil)
	dnt.Header.Set("DNT", "1")
	htmx := httptest.NewRequest(http.MethodGet, "/projects", nil)
	htmx.Header.Set("HX-Request", "true")
	skipped = append(skipped, dnt, htmx)

	for _, req := range skipped {
		serve(r, req)
	}
	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))

	// Recording happens in the background.
	deadline := time.Now().Add(2 * time.Second)
	var recent []visits.Visitor
	for time.Now().Before(deadline) {
		var err error
		if recent, err = s.visits.Recent(context.Background(), 10); err != nil {
			t.Fatalf("Recent: %v", err)
		}
		if len(recent) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(recent) != 1 || recent[0].Path != "/" {
		t.Errorf("recorded visits = %+v, want one view of /", recent)
	}
}

func TestPrivacyPage(t *testing.T) {
	r, _ := newTestSite(t, apiHandler(http.StatusOK, `{}`))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/privacy", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "24h0m0s") {
		t.Errorf("privacy = %d %s", w.Code, w.Body.String())
	}
}

func TestAdmin_VisitorsPage(t *testing.T) {
	r, s := newTestSite(t, apiHandler(http.StatusOK, `{}`))
	if err := s.visits.Record(context.Background(), "10.0.0.1", "curl/8.0", "/"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	cookie := login(t, r)

	req := httptest.NewRequest(http.MethodGet, "/admin/visitors", nil)
	req.AddCookie(cookie)
	w := serve(r, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "curl/8.0") || !strings.Contains(body, s.visits.HashIP("10.0.0.1")) {
		t.Errorf("visitor row missing: %s", body)
	}
	if strings.Contains(body, "10.0.0.1") {
		t.Error("raw IP rendered")
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	b, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	if len(a) != 64 || a == b {
		t.Errorf("tokens %q and %q", a, b)
	}
}
