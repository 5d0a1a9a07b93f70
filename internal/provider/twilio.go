package provider

import (
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/goscha01/trestle-api-app/internal/config"
	"github.com/goscha01/trestle-api-app/internal/envelope"
	"github.com/goscha01/trestle-api-app/internal/phone"
	"github.com/goscha01/trestle-api-app/internal/query"
	"github.com/goscha01/trestle-api-app/internal/upstream"
)

// Twilio adapts the Lookup API: v1 carrier lookups plus v2 identity-match,
// caller-name, and sms-pumping-risk lookups, all authenticated with HTTP
// Basic credentials built from the account SID and auth token.
type Twilio struct {
	accountSID string
	authToken  string
	baseURL    string
}

// NewTwilio builds the adapter from process configuration.
func NewTwilio(cfg *config.Config) *Twilio {
	return &Twilio{
		accountSID: cfg.TwilioSID,
		authToken:  cfg.TwilioToken,
		baseURL:    cfg.TwilioBaseURL,
	}
}

// ParseTwilioAction maps the action discriminator to a mode. An empty action
// defaults to identity match.
func ParseTwilioAction(action string) (Mode, bool) {
	switch action {
	case "", "identity":
		return ModeIdentity, true
	case "caller_name":
		return ModeCallerName, true
	case "sms_pumping":
		return ModeSMSPumping, true
	default:
		return 0, false
	}
}

func (a *Twilio) NormalizeRequest(mode Mode, q *query.Query) (*upstream.Request, *envelope.Envelope) {
	if a.accountSID == "" || a.authToken == "" {
		return nil, envelope.MissingCredentials(
			"Twilio credentials not configured. Set TWILIO_SID and TWILIO_TOKEN.",
			"Get your credentials from https://console.twilio.com/",
		)
	}
	if phone.Digits(q.Phone) == "" {
		field := "phone"
		if mode != ModeCarrier {
			field = "body field: phone"
		}
		return nil, envelope.Validation("missing_phone",
			"Missing required parameter: "+field, "")
	}

	e164 := phone.E164(q.Phone)

	var target string
	switch mode {
	case ModeCarrier:
		target = a.baseURL + "/v1/PhoneNumbers/" + url.PathEscape(e164) + "?Type=carrier"
	case ModeCallerName:
		target = a.v2URL(e164, url.Values{"Fields": {"caller_name"}})
	case ModeSMSPumping:
		target = a.v2URL(e164, url.Values{"Fields": {"sms_pumping_risk"}})
	default:
		params := url.Values{"Fields": {"identity_match"}}
		setIf := func(key, v string) {
			if v != "" {
				params.Set(key, v)
			}
		}
		setIf("FirstName", q.GivenName)
		setIf("LastName", q.FamilyName)
		setIf("City", q.City)
		setIf("PostalCode", q.PostalCode)
		target = a.v2URL(e164, params)
	}

	header := http.Header{}
	header.Set("Authorization", "Basic "+basicAuth(a.accountSID, a.authToken))
	header.Set("Accept", "application/json")

	return &upstream.Request{
		Provider: "twilio",
		Method:   http.MethodGet,
		URL:      target,
		Header:   header,
	}, nil
}

func (a *Twilio) v2URL(e164 string, params url.Values) string {
	return a.baseURL + "/v2/PhoneNumbers/" + url.PathEscape(e164) + "?" + params.Encode()
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}

func (a *Twilio) NormalizeResponse(mode Mode, resp *upstream.Response) *envelope.Envelope {
	// Undecodable bodies keep the original status and raw text.
	if !resp.Decoded {
		return envelope.RawPassthrough(resp.StatusCode, resp.RawBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return envelope.UpstreamError(bodyErrorMessage(resp.JSON), resp.StatusCode)
	}
	return envelope.Success(resp.RawBody)
}
