package api_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/okian/winner/internal/adapters/http/api"
	"github.com/okian/winner/internal/domain/model"
	"github.com/okian/winner/internal/domain/response"
	"github.com/okian/winner/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// mockOperations records the last request per operation and answers with a
// canned envelope.
type mockOperations struct {
	mu       sync.Mutex
	last     map[string]model.Request
	envelope response.Envelope
}

func newMockOperations(env response.Envelope) *mockOperations {
	return &mockOperations{last: make(map[string]model.Request), envelope: env}
}

func (m *mockOperations) record(name string, req model.Request) response.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[name] = req
	return m.envelope
}

func (m *mockOperations) Contributions(_ context.Context, req model.Request) response.Envelope {
	return m.record("contributions", req)
}

func (m *mockOperations) Scores(_ context.Context, req model.Request) response.Envelope {
	return m.record("scores", req)
}

func (m *mockOperations) Popularity(_ context.Context, req model.Request) response.Envelope {
	return m.record("popularity", req)
}

func envelope(status int, body string) response.Envelope {
	return response.Envelope{
		StatusCode: status,
		Headers: map[string]string{
			response.HeaderAllowOrigin:      "*",
			response.HeaderAllowCredentials: "true",
		},
		Body: body,
	}
}

func newRouter(ops api.Operations) *mux.Router {
	router := mux.NewRouter()
	server := api.NewServer(ops, api.WithLogger(logger.New(&bytes.Buffer{})))
	server.Register(context.Background(), router)
	return router
}

func serve(router http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		ops := newMockOperations(envelope(http.StatusOK, `[{"productId":"p-1"}]`))
		router := newRouter(ops)

		Convey("Then every operation route answers GET", func() {
			for _, path := range []string{"/contributions", "/scores?role=seller", "/popularity"} {
				w := serve(router, http.MethodGet, path)
				So(w.Code, ShouldEqual, http.StatusOK)
			}
			So(ops.last, ShouldContainKey, "contributions")
			So(ops.last, ShouldContainKey, "scores")
			So(ops.last, ShouldContainKey, "popularity")
		})

		Convey("And the health endpoint serves metrics", func() {
			w := serve(router, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And unknown paths are not found", func() {
			w := serve(router, http.MethodGet, "/leaderboard")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And other methods are rejected", func() {
			w := serve(router, http.MethodPost, "/scores")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(ops.last, ShouldBeEmpty)
		})
	})

	Convey("Given a nil router", t, func() {
		server := api.NewServer(newMockOperations(envelope(http.StatusOK, "")), api.WithLogger(logger.New(&bytes.Buffer{})))
		So(func() { server.Register(context.Background(), nil) }, ShouldPanicWith, api.ErrNilRouter)
	})
}

func TestServer_Envelope(t *testing.T) {
	Convey("Given an operation that succeeds", t, func() {
		router := newRouter(newMockOperations(envelope(http.StatusOK, `"Not one seller found to have sold anything."`)))

		w := serve(router, http.MethodGet, "/scores?role=seller")

		Convey("Then the body is written verbatim as JSON with CORS headers", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldEqual, `"Not one seller found to have sold anything."`)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(w.Header().Get(response.HeaderAllowOrigin), ShouldEqual, "*")
			So(w.Header().Get(response.HeaderAllowCredentials), ShouldEqual, "true")
		})
	})

	Convey("Given an operation that fails", t, func() {
		router := newRouter(newMockOperations(envelope(http.StatusInternalServerError, "scores - Integration Error")))

		w := serve(router, http.MethodGet, "/scores?role=seller")

		Convey("Then the status and plain text body pass through", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldEqual, "scores - Integration Error")
			So(w.Header().Get("Content-Type"), ShouldEqual, "text/plain; charset=utf-8")
			So(w.Header().Get(response.HeaderAllowOrigin), ShouldEqual, "*")
		})
	})
}

func TestServer_RequestConversion(t *testing.T) {
	Convey("Given a scores request with query parameters", t, func() {
		ops := newMockOperations(envelope(http.StatusOK, "[]"))
		router := newRouter(ops)

		req := httptest.NewRequest(http.MethodGet, "/scores?role=seller&limit=5&limit=9", http.NoBody)
		req.RemoteAddr = "203.0.113.7:51234"
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		got := ops.last["scores"]

		Convey("Then the invocation envelope mirrors the HTTP request", func() {
			So(got.Path, ShouldEqual, "/scores")
			So(got.Resource, ShouldEqual, "/scores")
			So(got.HTTPMethod, ShouldEqual, http.MethodGet)
			So(got.QueryStringParameters, ShouldResemble, map[string]string{"role": "seller", "limit": "5"})
			So(got.Headers["Authorization"], ShouldEqual, "Bearer token")
			So(got.RequestContext.SourceIP, ShouldEqual, "203.0.113.7")
		})

		Convey("Then a request id is assigned and echoed", func() {
			So(got.RequestContext.RequestID, ShouldNotBeEmpty)
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, got.RequestContext.RequestID)
		})
	})

	Convey("Given a request without query parameters", t, func() {
		ops := newMockOperations(envelope(http.StatusOK, "[]"))
		router := newRouter(ops)

		serve(router, http.MethodGet, "/popularity")

		So(ops.last["popularity"].QueryStringParameters, ShouldBeNil)
	})

	Convey("Given a caller supplied request id", t, func() {
		ops := newMockOperations(envelope(http.StatusOK, "[]"))
		router := newRouter(ops)

		req := httptest.NewRequest(http.MethodGet, "/contributions", http.NoBody)
		req.Header.Set(api.HeaderRequestID, "trace-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		So(ops.last["contributions"].RequestContext.RequestID, ShouldEqual, "trace-123")
		So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "trace-123")
	})
}

func TestServer_Preflight(t *testing.T) {
	Convey("Given a CORS preflight request", t, func() {
		ops := newMockOperations(envelope(http.StatusOK, "[]"))
		router := newRouter(ops)

		w := serve(router, http.MethodOptions, "/scores")

		Convey("Then it is answered without invoking the operation", func() {
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get(response.HeaderAllowOrigin), ShouldEqual, "*")
			So(w.Header().Get("Access-Control-Allow-Methods"), ShouldContainSubstring, http.MethodGet)
			So(ops.last, ShouldBeEmpty)
		})
	})
}
