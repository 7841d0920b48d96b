// Package storage defines the abstract contract the collection pipeline
// targets and a shared content-addressing core reused by the filesystem
// and object-store backends.
package storage

import (
	"context"
	"fmt"

	"xrdcc/pkg/xrdmodel"
)

// DocType distinguishes the two document kinds a subsystem stores.
type DocType string

const (
	DocTypeWSDL    DocType = "wsdl"
	DocTypeOpenAPI DocType = "openapi"
)

// Backend is the capability set the pipeline consumes. Any operation may
// fail; an unhandled failure is expected to deactivate the
// backend and return a *BackendError so callers can abort the current
// subsystem without tearing down the whole run.
type Backend interface {
	// Active reports whether the backend is currently healthy. Workers
	// skip further work once this returns false.
	Active() bool

	// Activate marks the backend healthy. Called once during bootstrap.
	Activate()

	// Deactivate marks the backend unhealthy. Idempotent; triggered by
	// any unhandled backend error.
	Deactivate()

	// SubsystemState ensures the subsystem's storage location exists and
	// returns its address plus the current filename->hash map for
	// docType.
	SubsystemState(ctx context.Context, subsystemPath string, docType DocType) (storagePath string, hashes map[string]string, err error)

	// SaveDoc writes doc if no existing file in hashes already has an
	// identical normalized hash, and returns the (possibly pre-existing)
	// filename and hash. serviceName is required for OpenAPI documents
	// (fileExt "yaml"/"json") and ignored for WSDL.
	SaveDoc(ctx context.Context, storagePath string, hashes map[string]string, doc []byte, fileExt, serviceName string) (filename, hash string, err error)

	// SaveSubsystemState persists the hashes sidecar index for docType.
	SaveSubsystemState(ctx context.Context, storagePath string, hashes map[string]string, docType DocType) error

	// SaveCatalogue serializes a snapshot from results, updates history
	// and filtered history, and triggers retention cleanup.
	SaveCatalogue(ctx context.Context, results map[string]xrdmodel.Subsystem) error
}

// BackendError wraps any error raised by a Backend operation so callers
// can use errors.As to detect "this subsystem/run must abort" without
// inspecting backend-internal error types.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *BackendError) Unwrap() error { return e.Err }

// wrapErr is the deactivate-on-fail helper used by both backends: any
// error from a wrapped operation deactivates the backend and is returned
// as a *BackendError.
func wrapErr(op string, deactivate func(), err error) error {
	if err == nil {
		return nil
	}
	deactivate()
	return &BackendError{Op: op, Err: err}
}
