package normalize

import (
	"fmt"
)

// OperationFailedError reports that the remote API flagged an action as failed.
type OperationFailedError struct {
	// Action labels the attempted operation, e.g. "Listing events for case 3".
	Action string
	// Message is the server-reported message.
	Message string
	// Details holds the raw response when it could be rendered.
	Details string
}

func (e *OperationFailedError) Error() string {
	msg := fmt.Sprintf("%s failed: %s", e.Action, e.Message)
	if e.Details != "" {
		msg += " | response=" + e.Details
	}
	return msg
}

// errorReporter is implemented by responses that can flag failure.
type errorReporter interface {
	IsError() bool
}

type messenger interface {
	Message() string
}

// rawRenderer is implemented by responses that can render themselves for
// diagnostics.
type rawRenderer interface {
	JSON() (string, error)
}

type dataAccessor interface {
	Data() any
}

// ExtractPayload unwraps a response. If the response reports an error, an
// *OperationFailedError labelled with action is returned, carrying the server
// message and, when obtainable, the raw response. Otherwise the payload is
// taken from a Data() accessor, falling back to a "data" field.
func ExtractPayload(resp any, action string) (any, error) {
	if r, ok := resp.(errorReporter); ok && r.IsError() {
		opErr := &OperationFailedError{Action: action}
		if m, ok := resp.(messenger); ok {
			opErr.Message = m.Message()
		}
		if opErr.Message == "" {
			opErr.Message = Display(resp)
		}
		if rr, ok := resp.(rawRenderer); ok {
			if details, err := rr.JSON(); err == nil {
				opErr.Details = details
			}
		}
		return nil, opErr
	}
	if d, ok := resp.(dataAccessor); ok {
		return d.Data(), nil
	}
	return Resolve(resp, "data").Any(), nil
}
