package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a provider failure.
type Kind int

const (
	// KindUnavailable covers network failures and 5xx responses.
	KindUnavailable Kind = iota
	// KindRateLimited is a 429 from the vendor.
	KindRateLimited
	// KindRejected is any other 4xx: a bad key, an unknown model, a malformed
	// request. Repeating the call will not help.
	KindRejected
	// KindInvalidOutput means the output was not JSON matching the schema.
	KindInvalidOutput
	// KindTruncated means generation stopped at the token limit.
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRateLimited:
		return "rate limited"
	case KindRejected:
		return "rejected"
	case KindInvalidOutput:
		return "invalid output"
	case KindTruncated:
		return "truncated"
	}
	return "unknown"
}

// Error is returned by every provider in this package.
type Error struct {
	Kind   Kind
	Vendor string
	// RetryAfter is the wait the vendor asked for, when it said.
	RetryAfter time.Duration
	// Content is the rejected output for KindInvalidOutput and KindTruncated.
	Content json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Vendor, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Vendor, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether the same request may succeed later.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindUnavailable, KindRateLimited, KindInvalidOutput:
		return true
	}
	return false
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// fromStatus classifies a vendor SDK error by its HTTP status. A zero
// status means the request never got an answer.
func fromStatus(vendor string, status int, header http.Header, err error) *Error {
	e := &Error{Kind: KindUnavailable, Vendor: vendor, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = retryAfter(header)
	case status >= 400 && status < 500:
		e.Kind = KindRejected
	}
	return e
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
