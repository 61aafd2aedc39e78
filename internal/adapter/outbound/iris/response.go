package iris

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response is a decoded {"status", "message", "data"} envelope.
type Response struct {
	status  string
	message string
	data    any
	raw     []byte
}

// IsError reports whether the server flagged the call as failed.
func (r *Response) IsError() bool { return r.status != "success" }

// Message returns the server message.
func (r *Response) Message() string { return r.message }

// Data returns the decoded payload.
func (r *Response) Data() any { return r.data }

// JSON returns the raw response body.
func (r *Response) JSON() (string, error) {
	if len(r.raw) == 0 {
		return "", fmt.Errorf("no response body")
	}
	return string(r.raw), nil
}

// SuccessResponse builds a successful response around data.
func SuccessResponse(data any) *Response {
	return &Response{status: "success", data: data}
}

// ErrorResponse builds a failed response carrying message.
func ErrorResponse(message string) *Response {
	return &Response{status: "error", message: message}
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// decodeResponse turns an HTTP status and body into a Response. Numbers are
// kept as json.Number so identifiers survive unchanged.
func decodeResponse(code int, body []byte) *Response {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil || env.Status == "" {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 512 {
			msg = msg[:512] + "..."
		}
		if msg == "" {
			msg = http.StatusText(code)
		}
		return &Response{status: "error", message: fmt.Sprintf("HTTP %d: %s", code, msg), raw: body}
	}
	status := env.Status
	if code >= 300 && status == "success" {
		status = "error"
	}
	return &Response{status: status, message: env.Message, data: env.Data, raw: body}
}
