package provider

import (
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/goscha01/trestle-api-app/internal/config"
	"github.com/goscha01/trestle-api-app/internal/envelope"
	"github.com/goscha01/trestle-api-app/internal/phone"
	"github.com/goscha01/trestle-api-app/internal/query"
	"github.com/goscha01/trestle-api-app/internal/upstream"
)

// personSearchIncludes is the fixed include-list for person search.
// Demographics is not a valid Includes value upstream.
var personSearchIncludes = []string{"Addresses", "PhoneNumbers", "EmailAddresses", "Relatives", "Akas"}

// Enformion adapts contact-enrichment, person-search, and reverse-phone
// lookups. Requests are POSTs with header credentials and a search-type
// header; responses arrive with record-bearing keys in inconsistent casing.
type Enformion struct {
	apiName     string
	apiPassword string
	baseURL     string
}

// NewEnformion builds the adapter from process configuration.
func NewEnformion(cfg *config.Config) *Enformion {
	return &Enformion{
		apiName:     cfg.EnformionAPIName,
		apiPassword: cfg.EnformionAPIPassword,
		baseURL:     cfg.EnformionBaseURL,
	}
}

// ParseEnformionMode maps the endpoint parameter to a mode. An empty value
// defaults to contact enrichment.
func ParseEnformionMode(endpoint string) (Mode, bool) {
	switch endpoint {
	case "", "contact-enrichment":
		return ModeContactEnrichment, true
	case "person-search":
		return ModePersonSearch, true
	case "reverse-phone":
		return ModeReversePhone, true
	default:
		return 0, false
	}
}

func (a *Enformion) NormalizeRequest(mode Mode, q *query.Query) (*upstream.Request, *envelope.Envelope) {
	if a.apiName == "" || a.apiPassword == "" {
		return nil, envelope.MissingCredentials(
			"Enformion API credentials not configured. Set ENFORMION_API_NAME and ENFORMION_API_PASSWORD.",
			"Get your credentials from https://api.enformion.com/",
		)
	}

	body := map[string]any{}
	if q.FirstName != "" {
		body["FirstName"] = q.FirstName
	}
	if q.MiddleName != "" {
		body["MiddleName"] = q.MiddleName
	}
	if q.LastName != "" {
		body["LastName"] = q.LastName
	}
	if q.Dob != "" {
		body["Dob"] = q.Dob
	}
	if q.Age > 0 {
		body["Age"] = q.Age
	}

	// An unusable phone is an absent criterion here, not an error; only
	// reverse-phone treats it as fatal below.
	if q.Phone != "" {
		if national, ok := phone.National(q.Phone); ok {
			body["Phone"] = national
		}
	}
	if q.Email != "" {
		body["Email"] = q.Email
	}

	if addr := enformionAddress(q); len(addr) > 0 {
		body["Address"] = addr
	}

	if mode == ModePersonSearch {
		body["Includes"] = personSearchIncludes
		body["Page"] = orDefault(q.Page, 1)
		body["ResultsPerPage"] = orDefault(q.ResultsPerPage, 10)
	}

	if env := a.validate(mode, body); env != nil {
		return nil, env
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &envelope.Envelope{
			Status: http.StatusInternalServerError,
			Error:  &envelope.Error{Type: "encode_failed", Message: err.Error()},
		}
	}

	path, searchType := enformionEndpoint(mode)
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("galaxy-ap-name", a.apiName)
	header.Set("galaxy-ap-password", a.apiPassword)
	header.Set("galaxy-client-type", "web")
	header.Set("galaxy-search-type", searchType)

	return &upstream.Request{
		Provider: "enformion",
		Method:   http.MethodPost,
		URL:      a.baseURL + path,
		Header:   header,
		Body:     payload,
	}, nil
}

func enformionEndpoint(mode Mode) (path, searchType string) {
	switch mode {
	case ModePersonSearch:
		return "/PersonSearch", "Person"
	case ModeReversePhone:
		return "/ReversePhoneSearch", "ReversePhone"
	default:
		return "/ContactEnrichmentSearch", "ContactEnrichment"
	}
}

func enformionAddress(q *query.Query) map[string]any {
	addr := map[string]any{}
	if q.AddressLine1 != "" {
		addr["AddressLine1"] = q.AddressLine1
	}
	if q.AddressLine2 != "" {
		addr["AddressLine2"] = q.AddressLine2
	}
	if q.City != "" {
		addr["City"] = q.City
	}
	if q.State != "" {
		addr["State"] = q.State
	}
	if q.Zip != "" {
		addr["Zip"] = q.Zip
	}
	return addr
}

// validate enforces the minimum-criteria rules: reverse-phone needs a valid
// phone, everything else needs at least two of name/contact/address.
func (a *Enformion) validate(mode Mode, body map[string]any) *envelope.Envelope {
	if mode == ModeReversePhone {
		if _, ok := body["Phone"]; !ok {
			return envelope.Validation("missing_phone",
				"Phone number is required for reverse phone lookup",
				"Provide a 10-digit US phone number",
			)
		}
		return nil
	}

	hasName := body["FirstName"] != nil || body["LastName"] != nil
	hasContact := body["Phone"] != nil || body["Email"] != nil
	hasAddress := false
	if addr, ok := body["Address"].(map[string]any); ok {
		hasAddress = addr["City"] != nil || addr["State"] != nil || addr["Zip"] != nil
	}

	count := 0
	for _, has := range []bool{hasName, hasContact, hasAddress} {
		if has {
			count++
		}
	}
	if count < 2 {
		env := envelope.Validation("missing_criteria",
			"At least two search criteria are required",
			"Provide at least two of: Name, Phone, Email, or Address (with City/State/Zip)",
		)
		env.Error.Received = map[string]bool{
			"hasName":    hasName,
			"hasContact": hasContact,
			"hasAddress": hasAddress,
		}
		return env
	}
	return nil
}

func (a *Enformion) NormalizeResponse(mode Mode, resp *upstream.Response) *envelope.Envelope {
	if !resp.Decoded {
		return envelope.DecodeFailure("Enformion", resp.StatusCode, resp.RawBody)
	}

	body := resp.JSON
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return envelope.UpstreamError(bodyErrorMessage(body), resp.StatusCode)
	}

	records := body.Get("reversePhoneRecords")
	switch {
	case records.IsArray() && len(records.Array()) > 0:
		return envelope.Success(flattenReversePhone(records, resp.RawBody))
	case hasRecords(body):
		if promoted, ok := promotePersons(body, resp.RawBody); ok {
			return envelope.Success(promoted)
		}
		return envelope.Success(resp.RawBody)
	default:
		return envelope.NotFound(http.StatusNotFound)
	}
}

// hasRecords probes the record-bearing keys the provider is known to use,
// in both casings.
func hasRecords(body gjson.Result) bool {
	for _, key := range []string{"Persons", "persons", "Results"} {
		if v := body.Get(key); v.IsArray() && len(v.Array()) > 0 {
			return true
		}
	}
	// An explicit null Person is no record.
	person := body.Get("Person")
	return person.Exists() && person.Type != gjson.Null
}

// promotePersons rewrites a lowercase `persons` array under the canonical
// `Persons` key, keeping the original body under `_original`.
func promotePersons(body gjson.Result, raw []byte) ([]byte, bool) {
	persons := body.Get("persons")
	if !persons.Exists() || body.Get("Persons").Exists() {
		return nil, false
	}
	out := []byte(`{}`)
	out, _ = sjson.SetRawBytes(out, "Persons", []byte(persons.Raw))
	out, _ = sjson.SetRawBytes(out, "_original", raw)
	return out, true
}

// flattenReversePhone lifts each reverse-phone record into a person-shaped
// object: call metadata at the top level, person fields merged in from the
// embedded tahoePerson, the untouched record kept under _raw.
func flattenReversePhone(records gjson.Result, raw []byte) []byte {
	out := []byte(`{"Persons":[]}`)
	for _, rec := range records.Array() {
		p := []byte(`{}`)
		for _, key := range []string{"phoneNumber", "carrier", "phoneType", "latitude", "longitude"} {
			if v := rec.Get(key); v.Exists() {
				p, _ = sjson.SetRawBytes(p, key, []byte(v.Raw))
			}
		}

		person := rec.Get("tahoePerson")
		defaults := map[string]string{
			"name":         `{}`,
			"akas":         `[]`,
			"phoneNumbers": `[]`,
			"addresses":    `[]`,
		}
		for _, key := range []string{"name", "akas", "phoneNumbers", "addresses"} {
			if v := person.Get(key); v.Exists() {
				p, _ = sjson.SetRawBytes(p, key, []byte(v.Raw))
			} else {
				p, _ = sjson.SetRawBytes(p, key, []byte(defaults[key]))
			}
		}
		for _, key := range []string{"age", "dob", "gender"} {
			if v := person.Get(key); v.Exists() {
				p, _ = sjson.SetRawBytes(p, key, []byte(v.Raw))
			}
		}

		p, _ = sjson.SetRawBytes(p, "_raw", []byte(rec.Raw))
		out, _ = sjson.SetRawBytes(out, "Persons.-1", p)
	}
	out, _ = sjson.SetRawBytes(out, "_original", raw)
	return out
}

// bodyErrorMessage pulls a provider error message out of a decoded body,
// tolerating the casing variants and nesting the providers use.
func bodyErrorMessage(body gjson.Result) string {
	for _, key := range []string{"error", "Error", "message"} {
		v := body.Get(key)
		if !v.Exists() {
			continue
		}
		if v.IsObject() {
			if msg := v.Get("message").String(); msg != "" {
				return msg
			}
			return v.Raw
		}
		if v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
