package bridge

import (
	"errors"
	"fmt"

	"github.com/modelgate/gateagent/internal/protocol"
)

// RPCError is the single error vocabulary of the bridge. Transport failures
// are mapped onto protocol codes before they reach the caller; a well-formed
// error envelope is surfaced verbatim with its own code and message.
type RPCError struct {
	Code       int
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("json-rpc error %d: %s (http %d)", e.Code, e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// CodeFromError extracts the protocol error code from err, or 0 when err is
// not an RPCError.
func CodeFromError(err error) int {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return 0
}

// ActionableMessageForCode maps a transport failure code to user guidance.
func ActionableMessageForCode(code int) string {
	switch code {
	case protocol.CodeUnauthorized:
		return "Authentication failed. Set GATEAGENT_MCP_TOKEN or refresh your credentials, then retry."
	case protocol.CodeEndpointNotFound:
		return "The MCP endpoint was not found. Check the endpoint URL and make sure the tool server is running."
	case protocol.CodeConnectionFailed:
		return "Could not reach the tool server. Start it (gatetools http) or fix the endpoint, then retry."
	case protocol.CodeTimeout:
		return "The tool server did not answer in time. Retry, or check the server logs."
	case protocol.CodeDecodeFailure:
		return "The tool server returned a response that could not be decoded. Check that the endpoint speaks MCP JSON-RPC."
	default:
		return ""
	}
}

// ActionableMessageFromError derives the code and returns user guidance.
func ActionableMessageFromError(err error) string {
	return ActionableMessageForCode(CodeFromError(err))
}
