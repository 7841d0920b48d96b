// Package xrdclient defines the external-collaborator boundary to the
// X-Road protocol client (an xrdinfo equivalent) that talks to the local
// Security Server. Production wiring, TLS handling, and XML/JSON parsing
// of the wire protocol are out of scope for this repository; only the
// interface the pipeline consumes is defined here.
package xrdclient

import "context"

// Client is the contract the collector requires from an X-Road protocol
// client. A concrete implementation talks to a local Security Server over
// HTTP(S); a fake implementation (see the fake subpackage) is used in
// tests.
type Client interface {
	// SharedParamsSS fetches the signed global-configuration blob for the
	// given instance (empty string selects the local instance).
	SharedParamsSS(ctx context.Context, instance string) (string, error)

	// RegisteredSubsystems extracts the subsystems registered in
	// sharedParams, each as a 4-segment identifier.
	RegisteredSubsystems(sharedParams string) ([][]string, error)

	// Methods lists SOAP methods offered by producer.
	Methods(ctx context.Context, producer []string) ([][]string, error)

	// WSDL fetches the WSDL document describing service.
	WSDL(ctx context.Context, service []string) (string, error)

	// WSDLMethods parses a WSDL document and returns the operations it
	// advertises, each as a {serviceCode, serviceVersion} pair.
	WSDLMethods(wsdl string) ([][2]string, error)

	// MethodsREST lists REST services offered by producer.
	MethodsREST(ctx context.Context, producer []string) ([][]string, error)

	// OpenAPI fetches the OpenAPI description of service. Returns
	// NotOpenapiServiceError if the service advertises no description.
	OpenAPI(ctx context.Context, service []string) (string, error)

	// LoadOpenAPI parses doc and reports its format ("yaml" or "json").
	LoadOpenAPI(doc string) (format string, err error)

	// OpenAPIEndpoints extracts {method, path} pairs from an OpenAPI doc.
	OpenAPIEndpoints(doc string) ([][2]string, error)
}
