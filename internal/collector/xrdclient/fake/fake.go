// Package fake provides a scriptable xrdclient.Client for tests.
package fake

import (
	"context"
	"fmt"

	"xrdcc/internal/collector/xrdclient"
)

// WSDLResult scripts the response to one WSDL fetch.
type WSDLResult struct {
	WSDL      string
	Err       error
	Operations [][2]string // operations the WSDL parses to
}

// OpenAPIResult scripts the response to one OpenAPI fetch.
type OpenAPIResult struct {
	Doc       string
	Err       error
	Format    string
	Endpoints [][2]string
}

// Client is a fully scriptable fake implementing xrdclient.Client.
type Client struct {
	SharedParams string
	Subsystems   [][]string

	Methods_     map[string][][]string // keyed by identifier.Join(producer)
	MethodsErr   map[string]error
	WSDLs        map[string]WSDLResult // keyed by identifier.Join(service)

	ServicesREST map[string][][]string
	ServicesErr  map[string]error
	OpenAPIs     map[string]OpenAPIResult
}

// New returns an empty, ready-to-script fake client.
func New() *Client {
	return &Client{
		Methods_:     map[string][][]string{},
		MethodsErr:   map[string]error{},
		WSDLs:        map[string]WSDLResult{},
		ServicesREST: map[string][][]string{},
		ServicesErr:  map[string]error{},
		OpenAPIs:     map[string]OpenAPIResult{},
	}
}

func joinKey(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}

var _ xrdclient.Client = (*Client)(nil)

func (c *Client) SharedParamsSS(_ context.Context, _ string) (string, error) {
	return c.SharedParams, nil
}

func (c *Client) RegisteredSubsystems(_ string) ([][]string, error) {
	return c.Subsystems, nil
}

func (c *Client) Methods(_ context.Context, producer []string) ([][]string, error) {
	key := joinKey(producer)
	if err, ok := c.MethodsErr[key]; ok {
		return nil, err
	}
	return c.Methods_[key], nil
}

func (c *Client) WSDL(_ context.Context, service []string) (string, error) {
	key := joinKey(service)
	res, ok := c.WSDLs[key]
	if !ok {
		return "", fmt.Errorf("fake: no WSDL scripted for %s", key)
	}
	if res.Err != nil {
		return "", res.Err
	}
	return res.WSDL, nil
}

func (c *Client) WSDLMethods(wsdl string) ([][2]string, error) {
	for _, res := range c.WSDLs {
		if res.WSDL == wsdl {
			return res.Operations, nil
		}
	}
	return nil, nil
}

func (c *Client) MethodsREST(_ context.Context, producer []string) ([][]string, error) {
	key := joinKey(producer)
	if err, ok := c.ServicesErr[key]; ok {
		return nil, err
	}
	return c.ServicesREST[key], nil
}

func (c *Client) OpenAPI(_ context.Context, service []string) (string, error) {
	key := joinKey(service)
	res, ok := c.OpenAPIs[key]
	if !ok {
		return "", fmt.Errorf("fake: no OpenAPI scripted for %s", key)
	}
	if res.Err != nil {
		return "", res.Err
	}
	return res.Doc, nil
}

func (c *Client) LoadOpenAPI(doc string) (string, error) {
	for _, res := range c.OpenAPIs {
		if res.Doc == doc {
			return res.Format, nil
		}
	}
	return "json", nil
}

func (c *Client) OpenAPIEndpoints(doc string) ([][2]string, error) {
	for _, res := range c.OpenAPIs {
		if res.Doc == doc {
			return res.Endpoints, nil
		}
	}
	return nil, nil
}
