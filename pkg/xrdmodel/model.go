// Package xrdmodel holds the catalogue's data model: the in-memory
// per-subsystem results and their JSON snapshot shape.
package xrdmodel

import "path"

// Status is the outcome of fetching one method, service, or subsystem.
type Status string

const (
	StatusOK      Status = "OK"
	StatusTimeout Status = "TIMEOUT"
	StatusError   Status = "ERROR"
	StatusSkipped Status = "SKIPPED"
)

// Endpoint is one REST operation advertised by an OpenAPI description.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Method is a SOAP operation discovered for a subsystem. OK requires a
// non-empty WSDL.
type Method struct {
	ServiceCode    string
	ServiceVersion string
	Status         Status
	WSDL           string
	Hash           string
}

// Service is a REST service discovered for a subsystem. Status==OK with
// an empty OpenAPI means the service advertises no description, which is
// valid; Status==OK with a non-empty OpenAPI must have at least one
// endpoint.
type Service struct {
	ServiceCode string
	Status      Status
	OpenAPI     string
	Hash        string
	Endpoints   []Endpoint
}

// Subsystem aggregates the SOAP and REST fetch results for one
// {instance, memberClass, memberCode, subsystemCode} identifier.
type Subsystem struct {
	Path           string
	XRoadInstance  string
	MemberClass    string
	MemberCode     string
	SubsystemCode  string
	MethodsStatus  Status
	ServicesStatus Status
	Methods        []Method
	Services       []Service
}

// ExportedMethod is the JSON shape of a Method in a catalogue snapshot.
type ExportedMethod struct {
	ServiceCode    string `json:"serviceCode"`
	ServiceVersion string `json:"serviceVersion"`
	MethodStatus   string `json:"methodStatus"`
	WSDL           string `json:"wsdl"`
}

// ExportedService is the JSON shape of a Service in a catalogue snapshot.
type ExportedService struct {
	ServiceCode string     `json:"serviceCode"`
	Status      string     `json:"status"`
	OpenAPI     string     `json:"openapi"`
	Endpoints   []Endpoint `json:"endpoints"`
}

// ExportedSubsystem is the JSON shape of one catalogue snapshot entry.
type ExportedSubsystem struct {
	XRoadInstance  string            `json:"xRoadInstance"`
	MemberClass    string            `json:"memberClass"`
	MemberCode     string            `json:"memberCode"`
	SubsystemCode  string            `json:"subsystemCode"`
	SubsystemStatus string           `json:"subsystemStatus"`
	ServicesStatus string            `json:"servicesStatus"`
	Methods        []ExportedMethod  `json:"methods"`
	Services       []ExportedService `json:"services"`
}

// Export converts a Subsystem into its serializable snapshot shape.
// subsystemStatus downgrades TIMEOUT to ERROR for backwards compatibility
// with existing consumers that only understand OK/ERROR.
func Export(s Subsystem) ExportedSubsystem {
	out := ExportedSubsystem{
		XRoadInstance:   s.XRoadInstance,
		MemberClass:     s.MemberClass,
		MemberCode:      s.MemberCode,
		SubsystemCode:   s.SubsystemCode,
		SubsystemStatus: statusToExported(s.MethodsStatus),
		ServicesStatus:  statusToExported(s.ServicesStatus),
		Methods:         make([]ExportedMethod, 0, len(s.Methods)),
		Services:        make([]ExportedService, 0, len(s.Services)),
	}
	for _, m := range s.Methods {
		wsdl := ""
		if m.WSDL != "" {
			wsdl = path.Join(s.Path, m.WSDL)
		}
		out.Methods = append(out.Methods, ExportedMethod{
			ServiceCode:    m.ServiceCode,
			ServiceVersion: m.ServiceVersion,
			MethodStatus:   string(m.Status),
			WSDL:           wsdl,
		})
	}
	for _, svc := range s.Services {
		openapi := ""
		if svc.OpenAPI != "" {
			openapi = path.Join(s.Path, svc.OpenAPI)
		}
		endpoints := svc.Endpoints
		if endpoints == nil {
			endpoints = []Endpoint{}
		}
		out.Services = append(out.Services, ExportedService{
			ServiceCode: svc.ServiceCode,
			Status:      string(svc.Status),
			OpenAPI:     openapi,
			Endpoints:   endpoints,
		})
	}
	return out
}

func statusToExported(s Status) string {
	if s == StatusOK {
		return "OK"
	}
	return "ERROR"
}
