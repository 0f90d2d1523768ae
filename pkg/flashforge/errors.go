package flashforge

import "fmt"

// ProtocolError reports a response body that does not match the expected
// grammar. Decoders return it instead of panicking so that one misbehaving
// printer cannot take down the process.
type ProtocolError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s response: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s response: %s", e.Kind, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func errMissingKey(kind Kind, key string) error {
	return &ProtocolError{Kind: kind, Reason: fmt.Sprintf("missing key %q", key)}
}

func errBadValue(kind Kind, key, val string, err error) error {
	return &ProtocolError{Kind: kind, Reason: fmt.Sprintf("bad value %q for key %q", val, key), Err: err}
}

func errNoTerminator(kind Kind) error {
	return &ProtocolError{Kind: kind, Reason: `response not terminated by "ok"`}
}
