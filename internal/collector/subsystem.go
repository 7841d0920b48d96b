package collector

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"xrdcc/internal/collector/storage"
	"xrdcc/internal/collector/xrdclient"
	"xrdcc/pkg/identifier"
	"xrdcc/pkg/xrdmodel"
)

// Processor fetches the SOAP and REST description documents for one
// subsystem and persists them through a storage.Backend.
type Processor struct {
	Client  xrdclient.Client
	Backend storage.Backend
	Logger  zerolog.Logger
}

// Process runs the SOAP phase followed by the REST phase for subsystem
// (a 4-segment identifier) and returns the combined result.
func (p *Processor) Process(ctx context.Context, subsystem []string) xrdmodel.Subsystem {
	path := identifier.Join(subsystem)
	logger := p.Logger.With().Str("subsystem", path).Logger()

	methodsStatus, methods := p.processMethods(ctx, subsystem, path, logger)
	servicesStatus, services := p.processServices(ctx, subsystem, path, logger)

	return xrdmodel.Subsystem{
		Path:           path,
		XRoadInstance:  subsystem[0],
		MemberClass:    subsystem[1],
		MemberCode:     subsystem[2],
		SubsystemCode:  subsystem[3],
		MethodsStatus:  methodsStatus,
		ServicesStatus: servicesStatus,
		Methods:        methods,
		Services:       services,
	}
}

// ErrorResult builds an ERROR-status Subsystem for a path that failed
// before or during dispatch, so the snapshot stays complete.
func ErrorResult(subsystem []string) xrdmodel.Subsystem {
	return xrdmodel.Subsystem{
		Path:           identifier.Join(subsystem),
		XRoadInstance:  subsystem[0],
		MemberClass:    subsystem[1],
		MemberCode:     subsystem[2],
		SubsystemCode:  subsystem[3],
		MethodsStatus:  xrdmodel.StatusError,
		ServicesStatus: xrdmodel.StatusError,
	}
}

func (p *Processor) processMethods(ctx context.Context, subsystem []string, path string, logger zerolog.Logger) (xrdmodel.Status, []xrdmodel.Method) {
	storagePath, hashes, err := p.Backend.SubsystemState(ctx, path, storage.DocTypeWSDL)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to prepare wsdl storage state")
		return xrdmodel.StatusError, nil
	}

	rawMethods, err := p.Client.Methods(ctx, subsystem)
	if err != nil {
		if xrdclient.IsTimeout(err) {
			logger.Warn().Err(err).Msg("timed out listing methods")
			return xrdmodel.StatusTimeout, nil
		}
		logger.Warn().Err(err).Msg("failed to list methods")
		return xrdmodel.StatusError, nil
	}

	sort.Slice(rawMethods, func(i, j int) bool {
		si, sj := rawMethods[i], rawMethods[j]
		serviceI, versionI := methodKey(si)
		serviceJ, versionJ := methodKey(sj)
		if serviceI != serviceJ {
			return serviceI < serviceJ
		}
		return versionI < versionJ
	})

	byKey := map[string]xrdmodel.Method{}
	order := make([]string, 0, len(rawMethods))

	skipMethods := false
	for _, raw := range rawMethods {
		serviceCode, serviceVersion := methodKey(raw)
		key := serviceCode + "\x00" + serviceVersion
		if _, seen := byKey[key]; seen {
			continue
		}

		if skipMethods {
			byKey[key] = xrdmodel.Method{ServiceCode: serviceCode, ServiceVersion: serviceVersion, Status: xrdmodel.StatusSkipped}
			order = append(order, key)
			continue
		}

		service := append(append([]string{}, subsystem...), serviceCode)
		if serviceVersion != "" {
			service = append(service, serviceVersion)
		}

		wsdl, err := p.Client.WSDL(ctx, service)
		if err != nil {
			if xrdclient.IsTimeout(err) {
				logger.Warn().Err(err).Str("service", serviceCode).Msg("timed out fetching wsdl")
				byKey[key] = xrdmodel.Method{ServiceCode: serviceCode, ServiceVersion: serviceVersion, Status: xrdmodel.StatusTimeout}
				skipMethods = true
			} else {
				logger.Warn().Err(err).Str("service", serviceCode).Msg("failed to fetch wsdl")
				byKey[key] = xrdmodel.Method{ServiceCode: serviceCode, ServiceVersion: serviceVersion, Status: xrdmodel.StatusError}
			}
			order = append(order, key)
			continue
		}

		filename, hash, err := p.Backend.SaveDoc(ctx, storagePath, hashes, []byte(wsdl), "wsdl", "")
		if err != nil {
			logger.Warn().Err(err).Str("service", serviceCode).Msg("failed to save wsdl")
			byKey[key] = xrdmodel.Method{ServiceCode: serviceCode, ServiceVersion: serviceVersion, Status: xrdmodel.StatusError}
			order = append(order, key)
			continue
		}

		operations, parseErr := p.Client.WSDLMethods(wsdl)
		if parseErr != nil {
			logger.Warn().Err(parseErr).Str("service", serviceCode).Msg("failed to parse wsdl")
			byKey[key] = xrdmodel.Method{ServiceCode: serviceCode, ServiceVersion: serviceVersion, Status: xrdmodel.StatusError}
			order = append(order, key)
			continue
		}

		foundOriginal := false
		for _, op := range operations {
			opCode, opVersion := op[0], op[1]
			opKey := opCode + "\x00" + opVersion
			if opCode == serviceCode && opVersion == serviceVersion {
				foundOriginal = true
			}
			if _, exists := byKey[opKey]; !exists {
				order = append(order, opKey)
			}
			byKey[opKey] = xrdmodel.Method{
				ServiceCode:    opCode,
				ServiceVersion: opVersion,
				Status:         xrdmodel.StatusOK,
				WSDL:           filename,
				Hash:           hash,
			}
		}

		if !foundOriginal {
			logger.Warn().Str("service", serviceCode).Msg("method not found in its own wsdl")
			byKey[key] = xrdmodel.Method{ServiceCode: serviceCode, ServiceVersion: serviceVersion, Status: xrdmodel.StatusError}
			order = append(order, key)
		}
	}

	if err := p.Backend.SaveSubsystemState(ctx, storagePath, hashes, storage.DocTypeWSDL); err != nil {
		logger.Warn().Err(err).Msg("failed to save wsdl hash index")
	}

	methods := make([]xrdmodel.Method, 0, len(order))
	seen := map[string]bool{}
	for _, key := range order {
		if seen[key] {
			continue
		}
		seen[key] = true
		methods = append(methods, byKey[key])
	}
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].ServiceCode != methods[j].ServiceCode {
			return methods[i].ServiceCode < methods[j].ServiceCode
		}
		return methods[i].ServiceVersion < methods[j].ServiceVersion
	})

	return xrdmodel.StatusOK, methods
}

// methodKey extracts (serviceCode, serviceVersion) from a full method
// identifier: 4 subsystem segments followed by serviceCode and,
// optionally, serviceVersion.
func methodKey(raw []string) (serviceCode, serviceVersion string) {
	serviceCode = raw[4]
	if len(raw) >= 6 {
		serviceVersion = raw[5]
	}
	return
}

func (p *Processor) processServices(ctx context.Context, subsystem []string, path string, logger zerolog.Logger) (xrdmodel.Status, []xrdmodel.Service) {
	storagePath, hashes, err := p.Backend.SubsystemState(ctx, path, storage.DocTypeOpenAPI)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to prepare openapi storage state")
		return xrdmodel.StatusError, nil
	}

	rawServices, err := p.Client.MethodsREST(ctx, subsystem)
	if err != nil {
		if xrdclient.IsTimeout(err) {
			logger.Warn().Err(err).Msg("timed out listing rest services")
			return xrdmodel.StatusTimeout, nil
		}
		logger.Warn().Err(err).Msg("failed to list rest services")
		return xrdmodel.StatusError, nil
	}

	sort.Slice(rawServices, func(i, j int) bool {
		return rawServices[i][len(rawServices[i])-1] < rawServices[j][len(rawServices[j])-1]
	})

	services := make([]xrdmodel.Service, 0, len(rawServices))
	skipServices := false
	for _, raw := range rawServices {
		serviceCode := raw[len(raw)-1]

		if skipServices {
			services = append(services, xrdmodel.Service{ServiceCode: serviceCode, Status: xrdmodel.StatusSkipped})
			continue
		}

		doc, err := p.Client.OpenAPI(ctx, raw)
		if err != nil {
			if xrdclient.IsNotOpenapiService(err) {
				services = append(services, xrdmodel.Service{ServiceCode: serviceCode, Status: xrdmodel.StatusOK})
				continue
			}
			if xrdclient.IsTimeout(err) {
				logger.Warn().Err(err).Str("service", serviceCode).Msg("timed out fetching openapi")
				services = append(services, xrdmodel.Service{ServiceCode: serviceCode, Status: xrdmodel.StatusTimeout})
				skipServices = true
				continue
			}
			logger.Warn().Err(err).Str("service", serviceCode).Msg("failed to fetch openapi")
			services = append(services, xrdmodel.Service{ServiceCode: serviceCode, Status: xrdmodel.StatusError})
			continue
		}

		format, parseErr := p.Client.LoadOpenAPI(doc)
		if parseErr != nil {
			logger.Warn().Err(parseErr).Str("service", serviceCode).Msg("failed to parse openapi document")
			services = append(services, xrdmodel.Service{ServiceCode: serviceCode, Status: xrdmodel.StatusError})
			continue
		}

		filename, hash, err := p.Backend.SaveDoc(ctx, storagePath, hashes, []byte(doc), format, serviceCode)
		if err != nil {
			logger.Warn().Err(err).Str("service", serviceCode).Msg("failed to save openapi document")
			services = append(services, xrdmodel.Service{ServiceCode: serviceCode, Status: xrdmodel.StatusError})
			continue
		}

		rawEndpoints, err := p.Client.OpenAPIEndpoints(doc)
		if err != nil {
			logger.Warn().Err(err).Str("service", serviceCode).Msg("failed to extract endpoints")
			services = append(services, xrdmodel.Service{ServiceCode: serviceCode, Status: xrdmodel.StatusError})
			continue
		}
		if len(rawEndpoints) == 0 {
			logger.Warn().Str("service", serviceCode).Msg("no endpoints found in openapi document")
			services = append(services, xrdmodel.Service{ServiceCode: serviceCode, Status: xrdmodel.StatusError})
			continue
		}

		endpoints := make([]xrdmodel.Endpoint, 0, len(rawEndpoints))
		for _, e := range rawEndpoints {
			endpoints = append(endpoints, xrdmodel.Endpoint{Method: e[0], Path: e[1]})
		}

		services = append(services, xrdmodel.Service{
			ServiceCode: serviceCode,
			Status:      xrdmodel.StatusOK,
			OpenAPI:     filename,
			Hash:        hash,
			Endpoints:   endpoints,
		})
	}

	if err := p.Backend.SaveSubsystemState(ctx, storagePath, hashes, storage.DocTypeOpenAPI); err != nil {
		logger.Warn().Err(err).Msg("failed to save openapi hash index")
	}

	return xrdmodel.StatusOK, services
}
