package aidb

import (
	"net/http"
	"net/http/httputil"

	"github.com/rs/zerolog/log"
)

// bearerTransport attaches the current session token to each request that
// does not already carry an Authorization header.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.tokens == nil || req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}
	token := t.tokens.Token()
	if token == "" {
		return base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(cloned)
}

// debugTransport logs full request/response dumps. Enable it with
// debug = true in config.toml or PADB_DEBUG=true.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}
	if dump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("component", "aidb").Str("method", req.Method).
			Str("url", req.URL.String()).Str("request_dump", string(dump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Str("component", "aidb").Err(err).Str("method", req.Method).
			Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if dump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("component", "aidb").Str("method", req.Method).
			Str("url", req.URL.String()).Int("status_code", resp.StatusCode).
			Str("response_dump", string(dump)).Msg("HTTP response")
	}
	return resp, nil
}
