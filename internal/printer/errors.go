package printer

import (
	"errors"
	"fmt"
	"net"
)

// ErrOffline wraps the transport failure that made RefreshStatus mark a
// printer offline.
var ErrOffline = errors.New("printer unreachable or offline")

// ConnectionError reports a failed dial, write, or read on the control port.
type ConnectionError struct {
	Addr string
	Op   string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports a deadline hit on the control port. Kept distinct
// from ConnectionError so callers can tell a slow printer from a dead one.
type TimeoutError struct {
	Addr string
	Op   string
	Err  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: timeout: %v", e.Op, e.Addr, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func wrapNetErr(op, addr string, err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &TimeoutError{Addr: addr, Op: op, Err: err}
	}
	return &ConnectionError{Addr: addr, Op: op, Err: err}
}
