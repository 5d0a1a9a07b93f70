package provider

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/goscha01/trestle-api-app/internal/config"
	"github.com/goscha01/trestle-api-app/internal/envelope"
	"github.com/goscha01/trestle-api-app/internal/phone"
	"github.com/goscha01/trestle-api-app/internal/query"
	"github.com/goscha01/trestle-api-app/internal/upstream"
)

// searchSizeCap bounds person-search result size to limit per-query cost.
const searchSizeCap = 10

// PeopleDataLabs adapts identifier-based enrich, search, and identify
// lookups. Requests are GETs with an API-key header and a flat query string;
// 404 and 402 are domain-level "no match" signals, not transport failures.
type PeopleDataLabs struct {
	apiKey  string
	baseURL string
}

// NewPeopleDataLabs builds the adapter from process configuration.
func NewPeopleDataLabs(cfg *config.Config) *PeopleDataLabs {
	return &PeopleDataLabs{
		apiKey:  cfg.PeopleDataLabsAPIKey,
		baseURL: cfg.PeopleDataLabsBaseURL,
	}
}

// ParsePeopleDataLabsMode maps the endpoint parameter to a mode. An empty
// value defaults to enrich.
func ParsePeopleDataLabsMode(endpoint string) (Mode, bool) {
	switch endpoint {
	case "", "enrich":
		return ModeEnrich, true
	case "search":
		return ModeSearch, true
	case "identify":
		return ModeIdentify, true
	default:
		return 0, false
	}
}

func (a *PeopleDataLabs) NormalizeRequest(mode Mode, q *query.Query) (*upstream.Request, *envelope.Envelope) {
	if a.apiKey == "" {
		return nil, envelope.MissingCredentials(
			"PeopleDataLabs API key not configured. Set PEOPLEDATALABS_API_KEY.",
			"Get your API key from https://dashboard.peopledatalabs.com/",
		)
	}

	var path string
	var params url.Values
	switch mode {
	case ModeSearch:
		path = "/v5/person/search"
		params = a.searchParams(q)
	case ModeIdentify:
		path = "/v5/person/identify"
		params = identifierParams(q)
	default:
		path = "/v5/person/enrich"
		params = identifierParams(q)
	}

	if mode != ModeSearch && !hasIdentifier(params) {
		return nil, envelope.Validation("missing_criteria",
			"At least one search parameter is required",
			"Provide phone, email, profile, name, company, location, or other identifiers",
		)
	}

	header := http.Header{}
	header.Set("X-Api-Key", a.apiKey)
	header.Set("Accept", "application/json")

	return &upstream.Request{
		Provider: "peopledatalabs",
		Method:   http.MethodGet,
		URL:      a.baseURL + path + "?" + params.Encode(),
		Header:   header,
	}, nil
}

// identifierParams encodes the flat identifier vocabulary shared by enrich
// and identify. The phone is normalized to E.164 by default to reduce false
// negatives on exact-match lookups.
func identifierParams(q *query.Query) url.Values {
	params := url.Values{}
	if q.Phone != "" {
		params.Set("phone", phone.E164(q.Phone))
	}
	set := func(key, v string) {
		if v != "" {
			params.Set(key, v)
		}
	}
	set("email", q.Email)
	set("profile", q.Profile)
	set("first_name", q.FirstName)
	set("last_name", q.LastName)
	set("name", q.Name)
	set("company", q.Company)
	set("location", q.Location)
	set("locality", q.Locality)
	set("region", q.Region)
	set("country", q.Country)
	set("school", q.School)
	set("lid", q.LID)
	params.Set("pretty", "true")
	return params
}

// searchParams builds the search query string. An explicit DSL query is
// passed through untouched; otherwise a minimal bool-must clause is
// synthesized from whichever of phone/email/name parts are present. With
// nothing to search on, the request is forwarded as-is and the upstream
// reports its own validation error. Result size is always capped.
func (a *PeopleDataLabs) searchParams(q *query.Query) url.Values {
	params := url.Values{}
	size := q.ResultsPerPage
	if size <= 0 || size > searchSizeCap {
		size = searchSizeCap
	}
	params.Set("size", strconv.Itoa(size))
	params.Set("pretty", "true")

	if q.Raw != "" {
		params.Set("query", q.Raw)
		return params
	}
	if clause, ok := synthesizeSearchQuery(q); ok {
		params.Set("query", clause)
	}
	return params
}

// synthesizeSearchQuery builds an Elasticsearch-style bool "must" clause
// from the available criteria.
func synthesizeSearchQuery(q *query.Query) (string, bool) {
	out := []byte(`{"query":{"bool":{"must":[]}}}`)
	added := false
	add := func(field, value string) {
		if value == "" {
			return
		}
		term, _ := sjson.SetBytes([]byte(`{"term":{}}`), "term."+field, value)
		out, _ = sjson.SetRawBytes(out, "query.bool.must.-1", term)
		added = true
	}

	if q.Phone != "" {
		add("phone_numbers", phone.E164(q.Phone))
	}
	add("emails", strings.ToLower(q.Email))
	if q.Name != "" {
		add("full_name", strings.ToLower(q.Name))
	} else {
		add("first_name", strings.ToLower(q.FirstName))
		add("last_name", strings.ToLower(q.LastName))
	}
	return string(out), added
}

func hasIdentifier(params url.Values) bool {
	for key := range params {
		if key != "pretty" {
			return true
		}
	}
	return false
}

func (a *PeopleDataLabs) NormalizeResponse(mode Mode, resp *upstream.Response) *envelope.Envelope {
	// 404 (no match) and 402 (out of matches/credits) are domain outcomes,
	// not failures.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusPaymentRequired {
		return envelope.NotFound(resp.StatusCode)
	}
	if !resp.Decoded {
		return envelope.DecodeFailure("PeopleDataLabs", resp.StatusCode, resp.RawBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return envelope.UpstreamError(bodyErrorMessage(resp.JSON), resp.StatusCode)
	}
	return envelope.Success(resp.RawBody)
}
