package xrdclient

import "errors"

// RequestTimeoutError indicates an HTTP request to the Security Server
// exceeded the configured timeout. The subsystem processor treats this
// distinctly from a generic error: it arms the skip latch for remaining
// siblings in the same subsystem.
type RequestTimeoutError struct {
	Err error
}

func (e *RequestTimeoutError) Error() string { return "request timeout: " + e.Err.Error() }
func (e *RequestTimeoutError) Unwrap() error { return e.Err }

// NotOpenapiServiceError indicates a REST service that does not advertise
// an OpenAPI description. This is not a failure: the resulting Service
// entry gets Status=OK with an empty OpenAPI.
type NotOpenapiServiceError struct {
	Err error
}

func (e *NotOpenapiServiceError) Error() string { return "not an openapi service: " + e.Err.Error() }
func (e *NotOpenapiServiceError) Unwrap() error { return e.Err }

// XrdInfoError is the generic client error kind: anything that is neither
// a timeout nor a not-openapi-service condition.
type XrdInfoError struct {
	Err error
}

func (e *XrdInfoError) Error() string { return "xrdinfo error: " + e.Err.Error() }
func (e *XrdInfoError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is (or wraps) a RequestTimeoutError.
func IsTimeout(err error) bool {
	var t *RequestTimeoutError
	return errors.As(err, &t)
}

// IsNotOpenapiService reports whether err is (or wraps) a NotOpenapiServiceError.
func IsNotOpenapiService(err error) bool {
	var n *NotOpenapiServiceError
	return errors.As(err, &n)
}
