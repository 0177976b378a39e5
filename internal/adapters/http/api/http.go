// Package api exposes the query operations over HTTP.
package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/okian/winner/internal/domain/model"
	"github.com/okian/winner/internal/domain/response"
	"github.com/okian/winner/pkg/logger"
)

// Operations is the set of query handlers served over HTTP.
type Operations interface {
	Contributions(ctx context.Context, req model.Request) response.Envelope
	Scores(ctx context.Context, req model.Request) response.Envelope
	Popularity(ctx context.Context, req model.Request) response.Envelope
}

// operation is the signature shared by every query handler.
type operation func(ctx context.Context, req model.Request) response.Envelope

// Server wires HTTP routes for the query API.
type Server struct {
	ops           Operations
	healthHandler *HealthHandler
	logger        logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for transport failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server serving ops.
func NewServer(ops Operations, opts ...Option) *Server {
	s := &Server{
		ops:           ops,
		healthHandler: NewHealthHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Register attaches all HTTP routes to router.
func (s *Server) Register(_ context.Context, router *mux.Router) {
	if router == nil {
		panic(ErrNilRouter)
	}
	router.Use(RequestIDMiddleware)

	router.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)

	s.route(router, "/contributions", "contributions", s.ops.Contributions)
	s.route(router, "/scores", "scores", s.ops.Scores)
	s.route(router, "/popularity", "popularity", s.ops.Popularity)
}

func (s *Server) route(router *mux.Router, path, endpoint string, op operation) {
	router.HandleFunc(path, MetricsMiddleware(s.handle(op), endpoint)).Methods(http.MethodGet)
	router.HandleFunc(path, MetricsMiddleware(handlePreflight, endpoint)).Methods(http.MethodOptions)
}

// handle adapts a query handler to net/http: the request becomes a
// model.Request and the envelope is written back verbatim.
func (s *Server) handle(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := op(r.Context(), toRequest(r))
		s.writeEnvelope(r.Context(), w, env)
	}
}

func (s *Server) writeEnvelope(ctx context.Context, w http.ResponseWriter, env response.Envelope) {
	for k, v := range env.Headers {
		w.Header().Set(k, v)
	}
	if env.StatusCode == http.StatusOK {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(env.StatusCode)
	if _, err := w.Write([]byte(env.Body)); err != nil {
		s.logger.Warn(ctx, "write response body", logger.Error(err))
	}
}

// handlePreflight answers CORS preflight requests with the same
// permissive policy every envelope carries.
func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(response.HeaderAllowOrigin, "*")
	w.Header().Set(response.HeaderAllowCredentials, "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+HeaderRequestID)
	w.WriteHeader(http.StatusNoContent)
}

// toRequest converts an HTTP request into the invocation envelope. Repeated
// query parameters and headers keep their first value.
func toRequest(r *http.Request) model.Request {
	req := model.Request{
		Resource:   r.URL.Path,
		Path:       r.URL.Path,
		HTTPMethod: r.Method,
		RequestContext: model.RequestContext{
			RequestID: r.Header.Get(HeaderRequestID),
			SourceIP:  sourceIP(r.RemoteAddr),
		},
	}
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			req.Resource = tpl
		}
	}
	if len(r.Header) > 0 {
		req.Headers = make(map[string]string, len(r.Header))
		for k, v := range r.Header {
			if len(v) > 0 {
				req.Headers[k] = v[0]
			}
		}
	}
	if q := r.URL.Query(); len(q) > 0 {
		req.QueryStringParameters = make(map[string]string, len(q))
		for k, v := range q {
			if len(v) > 0 {
				req.QueryStringParameters[k] = v[0]
			}
		}
	}
	return req
}

func sourceIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err != nil {
		return remoteAddr
	}
	return host
}
