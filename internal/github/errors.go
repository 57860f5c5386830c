package github

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a RemoteError for retry and propagation decisions.
type ErrorKind string

const (
	KindRequest       ErrorKind = "request"        // building/sending the request
	KindParse         ErrorKind = "parse"          // decoding the response body
	KindRateLimit     ErrorKind = "rate_limit"     // 403 with rate-limit body
	KindAuth          ErrorKind = "authentication" // 401 / 403 with bad-credentials body
	KindNotFound      ErrorKind = "not_found"
	KindServer        ErrorKind = "server"
	KindNetwork       ErrorKind = "network"
	KindAPI           ErrorKind = "api"
)

// RemoteError is the typed error returned by every remote client operation.
// Status and Body are populated for HTTP-level failures; Resource and ID for
// not-found errors. Use errors.As to inspect, or the Is* helpers for the
// common branches.
type RemoteError struct {
	Kind     ErrorKind
	Status   int
	Body     string
	Resource string
	ID       string
	Err      error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case KindRateLimit:
		return "remote: API rate limit exceeded"
	case KindAuth:
		return "remote: authentication failed"
	case KindNotFound:
		return fmt.Sprintf("remote: %s %s not found", e.Resource, e.ID)
	case KindServer:
		return fmt.Sprintf("remote: server error %d: %s", e.Status, e.Body)
	default:
		if e.Err != nil {
			return fmt.Sprintf("remote: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("remote: %s error", e.Kind)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is a rate-limit RemoteError.
func IsRateLimit(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindRateLimit
}

// IsAuth reports whether err is an authentication RemoteError.
func IsAuth(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindAuth
}

// IsNetwork reports whether err is a network-level RemoteError.
func IsNetwork(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindNetwork
}

// IsTransient reports whether err is worth retrying: rate limit and network
// failures recover on their own, everything else does not.
func IsTransient(err error) bool {
	return IsRateLimit(err) || IsNetwork(err)
}
