package wallet

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

var (
	ErrNoWallet        = errors.New("no wallet connected")
	ErrNotConnected    = errors.New("wallet not connected")
	ErrSnapUnavailable = errors.New("starknet snap host unavailable")
	ErrNoAccount       = errors.New("wallet did not provide an account")
)

// ErrorKind is the normalized class of a wallet backend failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUserRejected
	KindPermissionDenied
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindUserRejected:
		return "user_rejected"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Raw codes reported by wallet backends.
const (
	codeUserRejected   = 4001 // EIP-1193
	codeUnauthorized   = 4100 // EIP-1193
	codeUnsupported    = 4200 // EIP-1193
	codeUserRefusedOp  = 113  // Starknet wallet API
	codeMethodNotFound = -32601
)

// Error is a wallet backend failure with its classified kind.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Code != 0:
		return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return "wallet error: " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a raw backend code to its kind.
func Classify(code int, message string) ErrorKind {
	switch code {
	case codeUserRejected, codeUserRefusedOp:
		return KindUserRejected
	case codeUnauthorized:
		return KindPermissionDenied
	case codeUnsupported, codeMethodNotFound:
		return KindUnavailable
	}
	msg := strings.ToLower(message)
	if strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied") {
		return KindUserRejected
	}
	return KindUnknown
}

// NewError builds a classified error from a raw code and message.
func NewError(code int, message string) *Error {
	return &Error{Kind: Classify(code, message), Code: code, Message: message}
}

// coder matches JSON-RPC errors from any transport.
type coder interface {
	ErrorCode() int
}

// FromError classifies err once at a backend boundary. Errors that are
// already classified pass through.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var we *Error
	if errors.As(err, &we) {
		return err
	}
	var c coder
	if errors.As(err, &c) {
		return &Error{Kind: Classify(c.ErrorCode(), err.Error()), Code: c.ErrorCode(), Message: err.Error(), Err: err}
	}
	var opErr *net.OpError
	if errors.Is(err, syscall.ECONNREFUSED) || errors.As(err, &opErr) {
		return &Error{Kind: KindUnavailable, Err: err}
	}
	return &Error{Kind: Classify(0, err.Error()), Err: err}
}

// KindOf returns the kind of a classified error, or KindUnknown.
func KindOf(err error) ErrorKind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}

// IsRejection reports a user refusal of any sort.
func IsRejection(err error) bool {
	k := KindOf(err)
	return k == KindUserRejected || k == KindPermissionDenied
}
