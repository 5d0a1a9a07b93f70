package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/goscha01/trestle-api-app/internal/config"
)

// fakeUpstream records the last request it served and replies with a fixed
// status and body.
type fakeUpstream struct {
	srv *httptest.Server

	lastMethod string
	lastPath   string
	lastQuery  string
	lastBody   []byte
	lastHeader http.Header

	status int
	body   string
}

func newFakeUpstream(status int, body string) *fakeUpstream {
	f := &fakeUpstream{status: status, body: body}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastMethod = r.Method
		f.lastPath = r.URL.Path
		f.lastQuery = r.URL.RawQuery
		f.lastHeader = r.Header.Clone()
		f.lastBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(f.status)
		io.WriteString(w, f.body)
	}))
	return f
}

func testServer(mutate func(cfg *config.Config)) *Server {
	cfg := &config.Config{
		Host:                 "127.0.0.1",
		Port:                 0,
		EnformionAPIName:     "name",
		EnformionAPIPassword: "pass",
		PeopleDataLabsAPIKey: "pdl-key",
		TrestleAPIKey:        "trestle-key",
		TwilioSID:            "AC123",
		TwilioToken:          "token",
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg)
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := testServer(nil)
	rec := doRequest(t, s, "GET", "/health", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got["status"] != "ok" {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := testServer(nil)
	rec := doRequest(t, s, "OPTIONS", "/api/enformion", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("CORS origin header missing")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatal("CORS methods header missing")
	}
}

func TestCORSHeadersOnNormalResponses(t *testing.T) {
	s := testServer(nil)
	rec := doRequest(t, s, "GET", "/api/trestle?endpoint=phone_intel", "")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("CORS headers should be set on non-preflight responses too")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	s := testServer(nil)
	rec := doRequest(t, s, "GET", "/health", "")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("X-Request-Id missing")
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-Id", "caller-id")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-Id") != "caller-id" {
		t.Fatalf("X-Request-Id = %q, want caller value echoed", rec.Header().Get("X-Request-Id"))
	}
}

func TestEnformionEndToEndTwoCriteria(t *testing.T) {
	up := newFakeUpstream(200, `{"Persons":[{"name":{"firstName":"Jane"}}]}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.EnformionBaseURL = up.srv.URL })
	rec := doRequest(t, s, "GET", "/api/enformion?firstName=Jane&lastName=Doe&city=Austin", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	sent := gjson.ParseBytes(up.lastBody)
	if sent.Get("FirstName").String() != "Jane" || sent.Get("LastName").String() != "Doe" {
		t.Fatalf("upstream body = %s", up.lastBody)
	}
	if sent.Get("Address.City").String() != "Austin" {
		t.Fatalf("upstream body = %s", up.lastBody)
	}
	if up.lastPath != "/ContactEnrichmentSearch" {
		t.Fatalf("path = %q", up.lastPath)
	}

	env := gjson.ParseBytes(rec.Body.Bytes())
	if env.Get("status").Int() != 200 || !env.Get("data.Persons").IsArray() {
		t.Fatalf("envelope = %s", rec.Body)
	}
}

func TestEnformionEndToEndReversePhone(t *testing.T) {
	up := newFakeUpstream(200, `{"reversePhoneRecords":[{"phoneNumber":"5551234567","tahoePerson":{"name":{"firstName":"Jane"}}}]}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.EnformionBaseURL = up.srv.URL })
	rec := doRequest(t, s, "GET", "/api/enformion?endpoint=reverse-phone&phone=555-123-4567", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	if got := gjson.ParseBytes(up.lastBody).Get("Phone").String(); got != "5551234567" {
		t.Fatalf("upstream Phone = %q", got)
	}

	env := gjson.ParseBytes(rec.Body.Bytes())
	p := env.Get("data.Persons.0")
	if p.Get("phoneNumber").String() != "5551234567" || p.Get("name.firstName").String() != "Jane" {
		t.Fatalf("flattened envelope = %s", rec.Body)
	}
}

func TestEnformionValidationShortCircuitsBeforeUpstream(t *testing.T) {
	up := newFakeUpstream(200, `{}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.EnformionBaseURL = up.srv.URL })
	rec := doRequest(t, s, "GET", "/api/enformion?firstName=Jane", "")
	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
	if up.lastMethod != "" {
		t.Fatal("upstream should not be called on validation failure")
	}
	if gjson.ParseBytes(rec.Body.Bytes()).Get("error.type").String() != "missing_criteria" {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestEnformionNotFoundEnvelope(t *testing.T) {
	up := newFakeUpstream(200, `{"requestId":"abc"}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.EnformionBaseURL = up.srv.URL })
	rec := doRequest(t, s, "GET", "/api/enformion?firstName=Jane&phone=5551234567", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	env := gjson.ParseBytes(rec.Body.Bytes())
	if env.Get("error.type").String() != "not_found" || env.Get("data").Type != gjson.Null {
		t.Fatalf("envelope = %s", rec.Body)
	}
}

func TestPDLNotFoundRemapEndToEnd(t *testing.T) {
	up := newFakeUpstream(404, `{"status":404,"error":{"type":"not_found","message":"no match"}}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.PeopleDataLabsBaseURL = up.srv.URL })
	rec := doRequest(t, s, "GET", "/api/peopledatalabs?email=j@example.com", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, want remapped 200", rec.Code)
	}
	env := gjson.ParseBytes(rec.Body.Bytes())
	if env.Get("error.type").String() != "not_found" || env.Get("error.status").Int() != 404 {
		t.Fatalf("envelope = %s", rec.Body)
	}
	if up.lastHeader.Get("X-Api-Key") != "pdl-key" {
		t.Fatal("API key header missing on upstream call")
	}
}

func TestTrestleInvalidEndpoint(t *testing.T) {
	s := testServer(nil)
	rec := doRequest(t, s, "GET", "/api/trestle?endpoint=bogus&phone=5551234567", "")
	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
	if gjson.ParseBytes(rec.Body.Bytes()).Get("error.type").String() != "invalid_endpoint" {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestTwilioCarrierEndToEnd(t *testing.T) {
	up := newFakeUpstream(200, `{"carrier":{"name":"Example Wireless"}}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.TwilioBaseURL = up.srv.URL })
	rec := doRequest(t, s, "GET", "/api/twilio?phone=555-123-4567", "")
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if !strings.Contains(up.lastPath, "+15551234567") {
		t.Fatalf("upstream path = %q, want E.164 target", up.lastPath)
	}
	if up.lastQuery != "Type=carrier" {
		t.Fatalf("upstream query = %q", up.lastQuery)
	}
	if !strings.HasPrefix(up.lastHeader.Get("Authorization"), "Basic ") {
		t.Fatal("Basic auth header missing")
	}
}

func TestTwilioIdentityPostEndToEnd(t *testing.T) {
	up := newFakeUpstream(200, `{"identity_match":{"summary_score":90}}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.TwilioBaseURL = up.srv.URL })
	body := `{"phone":"5551234567","given_name":"Jane","family_name":"Doe"}`
	rec := doRequest(t, s, "POST", "/api/twilio", body)
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if !strings.Contains(up.lastQuery, "Fields=identity_match") {
		t.Fatalf("upstream query = %q", up.lastQuery)
	}
	if !strings.Contains(up.lastQuery, "FirstName=Jane") {
		t.Fatalf("upstream query = %q", up.lastQuery)
	}
}

func TestTwilioMalformedBodyFallsBackToExtraction(t *testing.T) {
	up := newFakeUpstream(200, `{}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.TwilioBaseURL = up.srv.URL })
	rec := doRequest(t, s, "POST", "/api/twilio", `{phone: 5551234567, action: caller_name`)
	if rec.Code != 200 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if !strings.Contains(up.lastQuery, "Fields=caller_name") {
		t.Fatalf("upstream query = %q", up.lastQuery)
	}
	if !strings.Contains(up.lastPath, "+15551234567") {
		t.Fatalf("upstream path = %q", up.lastPath)
	}
}

func TestTwilioEmptyBodyRejectedWithoutUpstreamCall(t *testing.T) {
	up := newFakeUpstream(200, `{}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) { cfg.TwilioBaseURL = up.srv.URL })
	rec := doRequest(t, s, "POST", "/api/twilio", "no usable content")
	if rec.Code != 400 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if gjson.ParseBytes(rec.Body.Bytes()).Get("error.type").String() != "missing_phone" {
		t.Fatalf("body = %s", rec.Body)
	}
	if up.lastMethod != "" {
		t.Fatal("upstream should not be called")
	}
}

func TestUpstreamUnreachableIs500(t *testing.T) {
	s := testServer(func(cfg *config.Config) { cfg.TrestleBaseURL = "http://127.0.0.1:1" })
	rec := doRequest(t, s, "GET", "/api/trestle?endpoint=phone_intel&phone=5551234567", "")
	if rec.Code != 500 {
		t.Fatalf("status = %d", rec.Code)
	}
	if gjson.ParseBytes(rec.Body.Bytes()).Get("error.type").String() != "upstream_unreachable" {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestMissingCredentialsIs400WithoutUpstreamCall(t *testing.T) {
	up := newFakeUpstream(200, `{}`)
	defer up.srv.Close()

	s := testServer(func(cfg *config.Config) {
		cfg.EnformionBaseURL = up.srv.URL
		cfg.EnformionAPIName = ""
		cfg.EnformionAPIPassword = ""
	})
	rec := doRequest(t, s, "GET", "/api/enformion?firstName=Jane&phone=5551234567", "")
	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
	if gjson.ParseBytes(rec.Body.Bytes()).Get("error.type").String() != "missing_credentials" {
		t.Fatalf("body = %s", rec.Body)
	}
	if up.lastMethod != "" {
		t.Fatal("upstream should not be called")
	}
}
