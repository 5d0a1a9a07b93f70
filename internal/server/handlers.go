package server

import (
	"io"
	"net/http"

	"github.com/goscha01/trestle-api-app/internal/envelope"
	"github.com/goscha01/trestle-api-app/internal/provider"
	"github.com/goscha01/trestle-api-app/internal/query"
)

func (s *Server) handleEnformion(w http.ResponseWriter, r *http.Request) {
	mode, ok := provider.ParseEnformionMode(r.URL.Query().Get("endpoint"))
	if !ok {
		envelope.Write(w, envelope.Validation("invalid_endpoint",
			"Invalid endpoint.",
			`Use "contact-enrichment", "person-search" or "reverse-phone"`))
		return
	}
	s.run(w, r, s.enformion, mode, query.FromValues(r.URL.Query()))
}

func (s *Server) handlePeopleDataLabs(w http.ResponseWriter, r *http.Request) {
	mode, ok := provider.ParsePeopleDataLabsMode(r.URL.Query().Get("endpoint"))
	if !ok {
		envelope.Write(w, envelope.Validation("invalid_endpoint",
			"Invalid endpoint.",
			`Use "enrich", "search" or "identify"`))
		return
	}
	s.run(w, r, s.peopledatalabs, mode, query.FromValues(r.URL.Query()))
}

func (s *Server) handleTrestle(w http.ResponseWriter, r *http.Request) {
	mode, ok := provider.ParseTrestleMode(r.URL.Query().Get("endpoint"))
	if !ok {
		envelope.Write(w, envelope.Validation("invalid_endpoint",
			"Invalid endpoint.",
			`Use "phone_intel" or "reverse_phone"`))
		return
	}
	s.run(w, r, s.trestle, mode, query.FromValues(r.URL.Query()))
}

func (s *Server) handleTwilioLookup(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, s.twilio, provider.ModeCarrier, query.FromValues(r.URL.Query()))
}

// handleTwilioIdentity serves the POST-shaped lookups: the body carries the
// phone plus an action discriminator, and may itself need best-effort
// decoding.
func (s *Server) handleTwilioIdentity(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		envelope.Write(w, envelope.Validation("invalid_body", "Failed to read request body", ""))
		return
	}

	q := provider.DecodeIdentityBody(raw)
	mode, ok := provider.ParseTwilioAction(q.Action)
	if !ok {
		envelope.Write(w, envelope.Validation("invalid_action",
			"Invalid action",
			`Use "identity", "caller_name" or "sms_pumping"`))
		return
	}
	s.run(w, r, s.twilio, mode, q)
}

// run executes the three-stage pipeline for one request: normalize the
// query into a provider request, invoke the upstream once, normalize the
// response into the canonical envelope.
func (s *Server) run(w http.ResponseWriter, r *http.Request, a provider.Adapter, mode provider.Mode, q *query.Query) {
	req, env := a.NormalizeRequest(mode, q)
	if env != nil {
		envelope.Write(w, env)
		return
	}

	resp, err := s.Upstream.Do(r.Context(), req)
	if err != nil {
		envelope.Write(w, envelope.Unreachable(err))
		return
	}

	envelope.Write(w, a.NormalizeResponse(mode, resp))
}
