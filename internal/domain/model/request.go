// Package model contains domain models passed between layers.
package model

// Request is the inbound invocation envelope. Its JSON shape follows the
// API gateway proxy event so request schemas can be shared with the
// serverless deployment.
type Request struct {
	Resource              string            `json:"resource,omitempty"`
	Path                  string            `json:"path"`
	HTTPMethod            string            `json:"httpMethod,omitempty"`
	Headers               map[string]string `json:"headers,omitempty"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
	RequestContext        RequestContext    `json:"requestContext"`
}

// RequestContext carries transport metadata for correlation.
type RequestContext struct {
	RequestID string `json:"requestId,omitempty"`
	SourceIP  string `json:"sourceIp,omitempty"`
}

// Query returns the named query string parameter, or "" when absent.
func (r Request) Query(name string) string {
	if r.QueryStringParameters == nil {
		return ""
	}
	return r.QueryStringParameters[name]
}
