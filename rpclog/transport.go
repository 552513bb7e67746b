// Package rpclog wraps an http.RoundTripper to log JSON-RPC traffic,
// for debugging broker reads and transaction submission with --verbose.
package rpclog

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const maxBodySize = 16 * 1024 // 16KB

// Transport logs every request/response pair passing through it.
type Transport struct {
	inner http.RoundTripper
	log   zerolog.Logger
}

// NewHTTPClient returns a client whose transport logs all RPC traffic.
func NewHTTPClient(log zerolog.Logger) *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &Transport{
			inner: http.DefaultTransport,
			log:   log.With().Str("component", "rpc").Logger(),
		},
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	start := time.Now()
	resp, err := t.inner.RoundTrip(req)
	duration := time.Since(start)

	event := t.log.Debug().
		Str("url", req.URL.String()).
		Dur("duration", duration).
		Str("request", truncate(string(reqBody)))

	if err != nil {
		event.Err(err).Msg("rpc call failed")
		return resp, err
	}

	var respBody []byte
	if resp.Body != nil {
		respBody, _ = io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}

	event.
		Int("status", resp.StatusCode).
		Str("response", truncate(string(respBody))).
		Msg("rpc call")

	return resp, nil
}

func truncate(s string) string {
	if len(s) > maxBodySize {
		return s[:maxBodySize] + "...[truncated]"
	}
	return s
}
