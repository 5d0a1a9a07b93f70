// Package provider implements the four upstream adapters. Each adapter is
// the same three-stage contract: normalize a caller query into a provider
// request, let the upstream invoker run it, then normalize the provider's
// response shape into the canonical envelope.
package provider

import (
	"github.com/goscha01/trestle-api-app/internal/envelope"
	"github.com/goscha01/trestle-api-app/internal/query"
	"github.com/goscha01/trestle-api-app/internal/upstream"
)

// Mode selects a specific endpoint/behavior within one provider's adapter.
type Mode int

const (
	// Enformion.
	ModeContactEnrichment Mode = iota
	ModePersonSearch
	ModeReversePhone

	// PeopleDataLabs.
	ModeEnrich
	ModeSearch
	ModeIdentify

	// Trestle.
	ModePhoneIntel
	ModePhoneLookup

	// Twilio Lookup.
	ModeCarrier
	ModeIdentity
	ModeCallerName
	ModeSMSPumping
)

var modeNames = map[Mode]string{
	ModeContactEnrichment: "contact-enrichment",
	ModePersonSearch:      "person-search",
	ModeReversePhone:      "reverse-phone",
	ModeEnrich:            "enrich",
	ModeSearch:            "search",
	ModeIdentify:          "identify",
	ModePhoneIntel:        "phone_intel",
	ModePhoneLookup:       "reverse_phone",
	ModeCarrier:           "carrier",
	ModeIdentity:          "identity",
	ModeCallerName:        "caller_name",
	ModeSMSPumping:        "sms_pumping",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// Adapter is the per-provider normalization contract. NormalizeRequest
// returns a ready-to-send upstream request, or an envelope describing the
// validation/configuration failure that prevented the call.
// NormalizeResponse maps the raw upstream outcome into the canonical
// envelope.
type Adapter interface {
	NormalizeRequest(mode Mode, q *query.Query) (*upstream.Request, *envelope.Envelope)
	NormalizeResponse(mode Mode, resp *upstream.Response) *envelope.Envelope
}
