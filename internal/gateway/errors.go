// Package gateway holds the thin HTTP clients for the two external
// collaborators: the IPFS storage gateway and the Signal messaging gateway.
// Neither client retries internally; callers decide what a failure means.
package gateway

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// GatewayError is a non-2xx response from a gateway, with the structured
// reason when the body carried one.
type GatewayError struct {
	Status int
	Reason string
}

func (e *GatewayError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("gateway returned %d", e.Status)
}

// readGatewayError drains the response body and builds a GatewayError. The
// IPFS API reports failures as {"Message": ...}; anything else is kept as
// raw text.
func readGatewayError(resp *http.Response) *GatewayError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var structured struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(body, &structured); err == nil && structured.Message != "" {
		return &GatewayError{Status: resp.StatusCode, Reason: structured.Message}
	}
	return &GatewayError{Status: resp.StatusCode, Reason: strings.TrimSpace(string(body))}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
