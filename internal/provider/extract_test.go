package provider

import "testing"

func TestDecodeIdentityBodyStructured(t *testing.T) {
	q := DecodeIdentityBody([]byte(`{"phone":"5551234567","given_name":"Jane","family_name":"Doe","city":"Austin","postal_code":"78701","action":"identity"}`))
	if q.Phone != "5551234567" || q.GivenName != "Jane" || q.FamilyName != "Doe" {
		t.Fatalf("structured body wrong: %+v", q)
	}
	if q.City != "Austin" || q.PostalCode != "78701" || q.Action != "identity" {
		t.Fatalf("structured body wrong: %+v", q)
	}
}

func TestDecodeIdentityBodyDoubleEncoded(t *testing.T) {
	q := DecodeIdentityBody([]byte(`"{\"phone\":\"5551234567\",\"action\":\"caller_name\"}"`))
	if q.Phone != "5551234567" || q.Action != "caller_name" {
		t.Fatalf("double-encoded body wrong: %+v", q)
	}
}

func TestDecodeIdentityBodyPatternFallback(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantPhone  string
		wantAction string
	}{
		{"broken json", `{phone: 5551234567, action: sms_pumping`, "5551234567", "sms_pumping"},
		{"plain text", `please look up +15551234567 action='caller_name'`, "+15551234567", "caller_name"},
		{"quoted action key", `garbage "action" : "identity" phone 5551234567`, "5551234567", "identity"},
		{"nothing usable", `no numbers here`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := DecodeIdentityBody([]byte(tt.raw))
			if q.Phone != tt.wantPhone {
				t.Fatalf("phone = %q, want %q", q.Phone, tt.wantPhone)
			}
			if q.Action != tt.wantAction {
				t.Fatalf("action = %q, want %q", q.Action, tt.wantAction)
			}
		})
	}
}

func TestDecodeIdentityBodyEmpty(t *testing.T) {
	q := DecodeIdentityBody(nil)
	if q.Phone != "" || q.Action != "" {
		t.Fatalf("empty body should yield empty query: %+v", q)
	}
}
