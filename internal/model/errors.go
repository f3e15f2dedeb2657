package model

import "fmt"

// GatewayError reports a failed chat-completions call. Code is the error
// type reported by the gateway body when one was decodable.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

func (e *GatewayError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway error %s: %s (http %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
