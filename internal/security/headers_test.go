package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveWithHeaders(h Headers, tlsConn bool) http.Header {
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	target := "http://shop.example/orders"
	if tlsConn {
		target = "https://shop.example/orders"
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if tlsConn {
		req.TLS = &tls.ConnectionState{}
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Result().Header
}

func TestHeadersSetOnTLS(t *testing.T) {
	got := serveWithHeaders(Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 86400, HSTSIncludeSubdomains: true}, true)

	want := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Referrer-Policy":           "no-referrer",
		"Strict-Transport-Security": "max-age=86400; includeSubDomains",
	}
	for name, value := range want {
		if got.Get(name) != value {
			t.Fatalf("header %s = %q, want %q", name, got.Get(name), value)
		}
	}
}

func TestHeadersNoHSTSonPlainHTTP(t *testing.T) {
	got := serveWithHeaders(Headers{Enable: true, EnableHSTS: true}, false)
	if got.Get("Strict-Transport-Security") != "" {
		t.Fatal("hsts must not be sent over plain http")
	}
	if got.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected nosniff on plain http too")
	}
}

func TestHeadersDisabled(t *testing.T) {
	got := serveWithHeaders(Headers{Enable: false, EnableHSTS: true}, true)
	if got.Get("X-Content-Type-Options") != "" {
		t.Fatal("expected no headers when disabled")
	}
}
