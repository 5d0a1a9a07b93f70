// Package query defines the caller-facing search vocabulary shared by every
// provider adapter. All fields are optional; which subset is required is
// decided per provider mode by the request normalizers.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Query is the canonical search criteria decoded from an inbound request.
type Query struct {
	FirstName  string
	MiddleName string
	LastName   string
	Dob        string
	Age        int

	Phone string
	Email string

	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Zip          string

	// Identifier-provider extras.
	Profile  string
	Name     string
	Company  string
	Location string
	Locality string
	Region   string
	Country  string
	School   string
	LID      string

	// Identity-lookup extras.
	GivenName  string
	FamilyName string
	PostalCode string

	Page           int
	ResultsPerPage int

	// Action discriminates identity / caller-name / sms-risk lookups.
	Action string

	// Raw is an explicit search-DSL query passed through untouched.
	Raw string

	// APIKey is a caller-supplied credential; process configuration takes
	// precedence over it.
	APIKey string
}

// FromValues decodes query parameters into a Query.
func FromValues(v url.Values) *Query {
	get := func(key string) string { return strings.TrimSpace(v.Get(key)) }
	return &Query{
		FirstName:      firstNonEmpty(get("firstName"), get("first_name")),
		MiddleName:     get("middleName"),
		LastName:       firstNonEmpty(get("lastName"), get("last_name")),
		Dob:            get("dob"),
		Age:            intValue(get("age")),
		Phone:          get("phone"),
		Email:          get("email"),
		AddressLine1:   get("addressLine1"),
		AddressLine2:   get("addressLine2"),
		City:           get("city"),
		State:          get("state"),
		Zip:            get("zip"),
		Profile:        firstNonEmpty(get("profile"), get("profileId")),
		Name:           get("name"),
		Company:        get("company"),
		Location:       get("location"),
		Locality:       get("locality"),
		Region:         get("region"),
		Country:        get("country"),
		School:         get("school"),
		LID:            get("lid"),
		Page:           intValue(get("page")),
		ResultsPerPage: intValue(get("resultsPerPage")),
		Action:         get("action"),
		Raw:            get("query"),
		APIKey:         get("apiKey"),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func intValue(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
