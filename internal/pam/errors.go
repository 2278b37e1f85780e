package pam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// ErrorKind classifies a failed search.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindTimeout
	KindPermission
	KindHTTP
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindPermission:
		return "permission"
	case KindHTTP:
		return "http"
	default:
		return "generic"
	}
}

// Error is the single failure type returned by Client.Search. Its message is
// ready to show to the user.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Reason     string
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "Request timed out. Consider increasing the request timeout (session.timeout) in the config file"
	case KindPermission:
		return "Request failed. Insufficient permissions to access this service: " + e.Detail
	case KindHTTP:
		return fmt.Sprintf("Request failed. [Error code: %d - %s]", e.StatusCode, e.Reason)
	default:
		msg := fmt.Sprintf("Request failed. Exception: %s.", e.Reason)
		if e.Detail != "" {
			msg += " " + e.Detail
		}
		return msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// scopeCodes are OAuth error codes meaning the caller lacks an entitlement.
var scopeCodes = map[string]bool{
	"invalid_scope":      true,
	"insufficient_scope": true,
	"access_denied":      true,
}

// normalize converts a transport or decoding failure into an *Error.
func normalize(err error) *Error {
	var already *Error
	if errors.As(err, &already) {
		return already
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		if scopeCodes[retrieve.ErrorCode] {
			detail := retrieve.ErrorDescription
			if detail == "" {
				detail = retrieve.ErrorCode
			}
			return &Error{Kind: KindPermission, Detail: detail, Err: err}
		}
		if retrieve.Response != nil && retrieve.Response.StatusCode == http.StatusForbidden {
			return &Error{Kind: KindPermission, Detail: providerDetail(retrieve.Body, retrieve.Response.Status), Err: err}
		}
	}

	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		cause = urlErr.Err
	}
	return &Error{Kind: KindGeneric, Reason: fmt.Sprintf("%T", cause), Detail: cause.Error(), Err: err}
}

// statusError builds the error for a non-2xx response.
func statusError(resp *http.Response, body []byte) *Error {
	if resp.StatusCode == http.StatusForbidden {
		return &Error{
			Kind:       KindPermission,
			StatusCode: resp.StatusCode,
			Reason:     reasonPhrase(resp),
			Detail:     providerDetail(body, resp.Status),
		}
	}
	return &Error{Kind: KindHTTP, StatusCode: resp.StatusCode, Reason: reasonPhrase(resp)}
}

// reasonPhrase returns the reason part of the status line.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

// providerDetail extracts the human-readable message from an error body.
// The data platform answers {"error": {"message": "..."}}; OAuth endpoints
// answer {"error_description": "..."}.
func providerDetail(body []byte, fallback string) string {
	var payload struct {
		Error            json.RawMessage `json:"error"`
		ErrorDescription string          `json:"error_description"`
		Message          string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var nested struct {
			Message string `json:"message"`
		}
		if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		if payload.ErrorDescription != "" {
			return payload.ErrorDescription
		}
		if payload.Message != "" {
			return payload.Message
		}
		var code string
		if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &code) == nil && code != "" {
			return code
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fallback
}
