package provider

import (
	"net/http"
	"net/url"

	"github.com/goscha01/trestle-api-app/internal/config"
	"github.com/goscha01/trestle-api-app/internal/envelope"
	"github.com/goscha01/trestle-api-app/internal/phone"
	"github.com/goscha01/trestle-api-app/internal/query"
	"github.com/goscha01/trestle-api-app/internal/upstream"
)

// Trestle adapts phone-intel and reverse-phone lookups. Both are GETs with
// an API-key header and require the phone as the sole criterion, exactly 10
// national digits.
type Trestle struct {
	apiKey  string
	baseURL string
}

// NewTrestle builds the adapter from process configuration.
func NewTrestle(cfg *config.Config) *Trestle {
	return &Trestle{
		apiKey:  cfg.TrestleAPIKey,
		baseURL: cfg.TrestleBaseURL,
	}
}

// ParseTrestleMode maps the endpoint parameter to a mode. Unlike the other
// providers there is no default; the caller must pick one.
func ParseTrestleMode(endpoint string) (Mode, bool) {
	switch endpoint {
	case "phone_intel":
		return ModePhoneIntel, true
	case "reverse_phone":
		return ModePhoneLookup, true
	default:
		return 0, false
	}
}

func (a *Trestle) NormalizeRequest(mode Mode, q *query.Query) (*upstream.Request, *envelope.Envelope) {
	if q.Phone == "" {
		return nil, envelope.Validation("missing_phone",
			"Missing required parameter: phone", "")
	}

	// Process configuration wins; a caller-supplied key is only a fallback.
	apiKey := a.apiKey
	if apiKey == "" {
		apiKey = q.APIKey
	}
	if apiKey == "" {
		return nil, envelope.MissingCredentials(
			"Missing API key. Set TRESTLE_API_KEY.",
			"Get your API key from https://dashboard.trestleiq.com/",
		)
	}

	digits := phone.Digits(q.Phone)
	if len(digits) != 10 {
		return nil, envelope.Validation("invalid_phone_length",
			"Phone number must be 10 digits (numbers only).", "")
	}

	var path string
	switch mode {
	case ModePhoneIntel:
		path = "/3.0/phone_intel"
	default:
		path = "/3.2/phone"
	}

	header := http.Header{}
	header.Set("x-api-key", apiKey)
	header.Set("Accept", "application/json")

	return &upstream.Request{
		Provider: "trestle",
		Method:   http.MethodGet,
		URL:      a.baseURL + path + "?phone=" + url.QueryEscape(digits),
		Header:   header,
	}, nil
}

func (a *Trestle) NormalizeResponse(mode Mode, resp *upstream.Response) *envelope.Envelope {
	if !resp.Decoded {
		return envelope.DecodeFailure("Trestle", resp.StatusCode, resp.RawBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return envelope.UpstreamError(bodyErrorMessage(resp.JSON), resp.StatusCode)
	}
	return envelope.Success(resp.RawBody)
}
