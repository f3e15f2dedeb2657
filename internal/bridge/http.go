package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelgate/gateagent/internal/protocol"
)

const httpCallTimeout = 30 * time.Second

// httpTransport issues one POST per call to a fixed endpoint path with the
// auth credential attached as a bearer header on every request.
type httpTransport struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
}

// NewHTTPTransport creates the network transport for the given endpoint.
// The token may be empty for unauthenticated servers.
func NewHTTPTransport(endpoint, authToken string) Transport {
	return &httpTransport{
		endpoint:  strings.TrimSpace(endpoint),
		authToken: strings.TrimSpace(authToken),
		httpClient: &http.Client{
			Timeout: httpCallTimeout,
		},
	}
}

func (t *httpTransport) RoundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.authToken)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, mapDialError(t.endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RPCError{
			Code:       protocol.CodeDecodeFailure,
			Message:    "failed reading response body",
			HTTPStatus: resp.StatusCode,
			Cause:      err,
		}
	}

	// Non-2xx statuses are mapped before any attempt to parse the body.
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &RPCError{
			Code:       protocol.CodeUnauthorized,
			Message:    "authentication failed, check your auth token",
			HTTPStatus: resp.StatusCode,
		}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &RPCError{
			Code:       protocol.CodeEndpointNotFound,
			Message:    "MCP endpoint not found at " + t.endpoint,
			HTTPStatus: resp.StatusCode,
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &RPCError{
			Code:       protocol.CodeHTTPError,
			Message:    "http error: " + message,
			HTTPStatus: resp.StatusCode,
		}
	}
	return body, nil
}

func (t *httpTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

func mapDialError(endpoint string, err error) *RPCError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &RPCError{Code: protocol.CodeTimeout, Message: "request timed out", Cause: err}
	}
	return &RPCError{
		Code:    protocol.CodeConnectionFailed,
		Message: "failed to connect to " + endpoint,
		Cause:   err,
	}
}
