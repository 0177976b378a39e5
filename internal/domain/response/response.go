// Package response builds the uniform envelope returned by every operation.
package response

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/winner/internal/domain/schema"
	"github.com/okian/winner/pkg/logger"
)

// Fixed message fragments.
const (
	InvalidRequest   = "Invalid Request"
	IntegrationError = "Integration Error"
	SecurityRisk     = "!!!SECURITY RISK!!!"
	DataCorruption   = "DATA CORRUPTION"
)

// CORS headers present on every envelope.
const (
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
)

// Envelope is the transport-neutral response of an operation.
type Envelope struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Builder constructs envelopes. Apart from logging the failure branches it
// holds no state, so one Builder is shared by all invocations.
type Builder struct {
	log logger.Logger
}

// NewBuilder returns a Builder logging through log.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{log: log}
}

func newEnvelope(status int, body string) Envelope {
	return Envelope{
		StatusCode: status,
		Headers: map[string]string{
			HeaderAllowOrigin:      "*",
			HeaderAllowCredentials: "true",
		},
		Body: body,
	}
}

// Success serializes payload as JSON with status 200.
func (b *Builder) Success(ctx context.Context, payload any) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.log.Error(ctx, "serialize success payload", logger.Error(err))
		return newEnvelope(http.StatusInternalServerError, IntegrationError)
	}
	return newEnvelope(http.StatusOK, string(raw))
}

// ClientError reports a request that failed its schema with status 400. The
// raw request is echoed back; it is the caller's own input.
func (b *Builder) ClientError(ctx context.Context, method string, id schema.ID, errs string, request any) Envelope {
	raw, err := json.Marshal(request)
	if err != nil {
		raw = []byte(fmt.Sprintf("%q", fmt.Sprint(request)))
	}
	b.log.Warn(ctx, "request rejected by schema",
		logger.String("method", method),
		logger.String("schema", string(id)),
		logger.String("errors", errs),
	)
	body := fmt.Sprintf("%s %s could not validate request to '%s' schema. Errors: '%s' found in event: '%s'",
		method, InvalidRequest, id, errs, raw)
	return newEnvelope(http.StatusBadRequest, body)
}

// StoreError reports a query store failure with status 500. The store error
// is logged and never returned to the caller.
func (b *Builder) StoreError(ctx context.Context, method string, err error) Envelope {
	b.log.Error(ctx, "query store failure",
		logger.String("method", method),
		logger.Error(err),
	)
	return newEnvelope(http.StatusInternalServerError, method+" - "+IntegrationError)
}

// SecurityRisk reports store records that failed their item schema with
// status 500. The offending records are logged at security level for
// operators only; the caller sees the generic integration error.
func (b *Builder) SecurityRisk(ctx context.Context, method string, id schema.ID, errs string, items any) Envelope {
	bad, err := json.Marshal(items)
	if err != nil {
		bad = []byte(fmt.Sprint(items))
	}
	b.log.Security(ctx, SecurityRisk+" "+DataCorruption,
		logger.String("method", method),
		logger.String("schema", string(id)),
		logger.String("errors", errs),
		logger.String("bad_data", string(bad)),
	)
	return newEnvelope(http.StatusInternalServerError, method+" - "+IntegrationError)
}
