package provider

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/goscha01/trestle-api-app/internal/query"
)

// Last-resort patterns for undecodable identity-lookup bodies. Heuristic:
// they can misfire on input that merely contains a 10-digit run.
var (
	phoneRunPattern = regexp.MustCompile(`\+?1?\d{10}`)
	actionPattern   = regexp.MustCompile(`(?i)"?action"?\s*[:=]\s*['"]?(\w+)`)
)

// identityBody is the structured form of the identity-lookup POST body.
type identityBody struct {
	Phone      string `json:"phone"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Action     string `json:"action"`
}

// DecodeIdentityBody turns a raw POST body into a Query. The body may be a
// JSON object, a JSON-encoded string wrapping an object, or arbitrary text;
// the text case falls back to best-effort pattern extraction of a phone
// digit-run and an action keyword.
func DecodeIdentityBody(raw []byte) *query.Query {
	var b identityBody
	if err := json.Unmarshal(raw, &b); err == nil {
		return identityQuery(b)
	}

	// Double-encoded: a JSON string whose content is the real object.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &b); err == nil {
			return identityQuery(b)
		}
		return extractIdentityQuery(s)
	}

	return extractIdentityQuery(string(raw))
}

func identityQuery(b identityBody) *query.Query {
	return &query.Query{
		Phone:      strings.TrimSpace(b.Phone),
		GivenName:  strings.TrimSpace(b.GivenName),
		FamilyName: strings.TrimSpace(b.FamilyName),
		City:       strings.TrimSpace(b.City),
		PostalCode: strings.TrimSpace(b.PostalCode),
		Action:     strings.TrimSpace(b.Action),
	}
}

// extractIdentityQuery is the explicit last-resort decoder stage: scrape a
// phone-like digit run and an action keyword out of undecodable text. An
// empty Query comes back when neither matches, and validation rejects the
// request downstream.
func extractIdentityQuery(raw string) *query.Query {
	q := &query.Query{}
	if m := phoneRunPattern.FindString(raw); m != "" {
		q.Phone = m
	}
	if m := actionPattern.FindStringSubmatch(raw); len(m) > 1 {
		q.Action = m[1]
	}
	return q
}
