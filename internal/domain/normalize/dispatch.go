package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// ErrSignatureMismatch is the error a method binding returns when arguments do
// not fit its parameter list.
var ErrSignatureMismatch = outbound.ErrSignatureMismatch

// MethodNotFoundError reports that none of the candidate operations exist on
// the target.
type MethodNotFoundError struct {
	Action string
	Tried  []string
}

func (e *MethodNotFoundError) Error() string {
	quoted := make([]string, len(e.Tried))
	for i, name := range e.Tried {
		quoted[i] = "'" + name + "'"
	}
	return fmt.Sprintf("No method found for %s. Tried: [%s]", e.Action, strings.Join(quoted, ", "))
}

// MethodSource is anything that exposes named operations, typically an
// outbound.Session.
type MethodSource interface {
	Method(name string) (outbound.Method, bool)
}

// Dispatch describes one multi-method call: operation names and payload
// shapes are tried in the declared order.
type Dispatch struct {
	// Action labels the operation in errors, e.g. "Listing note directories".
	Action string
	// Methods are candidate operation names, highest priority first.
	Methods []string
	// Payloads are candidate argument shapes, highest priority first.
	Payloads []outbound.Args
	// AllowPositional enables a positional retry after a signature mismatch.
	AllowPositional bool
}

// Dispatched is the outcome of a successful Dispatch.
type Dispatched struct {
	Data   any
	Method string
	Args   outbound.Args
}

// positionalLead are the keys replayed first on a positional retry; only the
// first one present is used.
var positionalLead = []string{"cid", "case_id"}

// TryOperations runs d against target and returns the first normalized
// success. Candidates absent from target are skipped. A keyword call that
// fails with ErrSignatureMismatch is retried positionally when allowed, and
// otherwise skipped without recording an error. Any other keyword-call error
// aborts the dispatch. Failed positional retries and failed responses are
// recorded and the next candidate is tried. When all candidates fail, the
// last recorded error is returned, or a *MethodNotFoundError if nothing
// was recorded.
func TryOperations(ctx context.Context, target MethodSource, d Dispatch) (Dispatched, error) {
	var lastErr error
	for _, name := range d.Methods {
		method, ok := target.Method(name)
		if !ok {
			continue
		}
		for _, payload := range d.Payloads {
			resp, err := method.Invoke(ctx, payload)
			if err != nil {
				if !errors.Is(err, ErrSignatureMismatch) {
					return Dispatched{}, err
				}
				if !d.AllowPositional {
					lastErr = nil
					continue
				}
				resp, err = method.InvokePositional(ctx, positionalValues(payload))
				if err != nil {
					lastErr = err
					continue
				}
			}
			data, err := ExtractPayload(resp, d.Action)
			if err != nil {
				lastErr = err
				continue
			}
			return Dispatched{Data: data, Method: name, Args: payload}, nil
		}
	}
	if lastErr != nil {
		return Dispatched{}, lastErr
	}
	return Dispatched{}, &MethodNotFoundError{Action: d.Action, Tried: d.Methods}
}

func positionalValues(payload outbound.Args) []any {
	var values []any
	for _, key := range positionalLead {
		if v, ok := payload.Get(key); ok {
			values = append(values, v)
			break
		}
	}
	return append(values, payload.Without(positionalLead...).Values()...)
}
