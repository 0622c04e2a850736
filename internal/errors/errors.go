package errors

import (
	"errors"
	"fmt"
)

// Error types for different categories of failures
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrNetwork        = errors.New("network error")
	ErrSendFailed     = errors.New("send failed")
	ErrReceiveStalled = errors.New("receive stalled")
	ErrPeerClosed     = errors.New("peer closed")
)

// ConfigError represents an invalid or missing command line argument
type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s='%v': %s", e.Field, e.Value, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// NetworkError represents socket setup failures (listen, accept, dial)
type NetworkError struct {
	Op   string
	Addr string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s on %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// SendError reports that a group could not be written. Call is the 1-based
// index of the write-family call that failed within the group.
type SendError struct {
	Strategy string
	Call     int
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed using %s at call %d: %v", e.Strategy, e.Call, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func (e *SendError) Is(target error) bool {
	return target == ErrSendFailed
}

// ReceiveError tells why a receive loop ended. Reason is either
// ErrReceiveStalled or ErrPeerClosed.
type ReceiveError struct {
	Reason error
	Err    error
}

func (e *ReceiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Reason, e.Err)
	}
	return e.Reason.Error()
}

func (e *ReceiveError) Unwrap() error {
	return e.Err
}

func (e *ReceiveError) Is(target error) bool {
	return target == e.Reason
}

// Helper functions for creating errors

func NewConfigError(field string, value interface{}, message string) error {
	return &ConfigError{Field: field, Value: value, Message: message}
}

func NewNetworkError(op, addr string, err error) error {
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

func NewSendError(strategy string, call int, err error) error {
	return &SendError{Strategy: strategy, Call: call, Err: err}
}

func NewStalledError(emptyReads int) error {
	return &ReceiveError{Reason: ErrReceiveStalled, Err: fmt.Errorf("%d consecutive empty reads", emptyReads)}
}

func NewPeerClosedError(err error) error {
	return &ReceiveError{Reason: ErrPeerClosed, Err: err}
}
