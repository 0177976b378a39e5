// Package service implements the three read-only operations: validate the
// request, run one store query, validate the records, transform and respond.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	repository "github.com/okian/winner/internal/adapters/repository"
	"github.com/okian/winner/internal/domain/identity"
	"github.com/okian/winner/internal/domain/model"
	"github.com/okian/winner/internal/domain/response"
	"github.com/okian/winner/internal/domain/schema"
	"github.com/okian/winner/pkg/logger"
	"github.com/okian/winner/pkg/metrics"
)

// Operation names, used in response bodies, logs and metrics.
const (
	MethodContributions = "contributions"
	MethodScores        = "scores"
	MethodPopularity    = "popularity"
)

const defaultMaxScoresLimit = 100

// ErrMissingDependency is returned by New when a required collaborator is absent.
var ErrMissingDependency = errors.New("missing service dependency")

// Validator checks a value against a named schema.
type Validator interface {
	Validate(id schema.ID, value any) (bool, string)
}

// Service implements the operation handlers. It holds no per-invocation
// state and is safe for concurrent use.
type Service struct {
	store          repository.Store
	schemas        Validator
	responses      *response.Builder
	logger         logger.Logger
	tracer         trace.Tracer
	maxScoresLimit int
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the query store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSchemas sets the schema registry.
func WithSchemas(schemas Validator) Option {
	return func(s *Service) {
		s.schemas = schemas
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxScoresLimit caps the limit accepted by the scores operation.
func WithMaxScoresLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxScoresLimit = limit
		}
	}
}

// WithTracerProvider traces operations with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer("github.com/okian/winner/internal/app")
		}
	}
}

// New constructs a Service. A store and a schema registry are required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		tracer:         otel.Tracer("github.com/okian/winner/internal/app"),
		maxScoresLimit: defaultMaxScoresLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	}
	if s.schemas == nil {
		return nil, fmt.Errorf("%w: schemas", ErrMissingDependency)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.responses = response.NewBuilder(s.logger)
	return s, nil
}

// Contributions lists every contributed product id.
func (s *Service) Contributions(ctx context.Context, req model.Request) response.Envelope {
	return run(ctx, s, operation[model.ContributionRecord]{
		method:        MethodContributions,
		requestSchema: schema.ContributionsRequest,
		itemSchema:    schema.ContributionItems,
		query: func(model.Request) repository.Query {
			return repository.ContributionsQuery()
		},
		transform: func(ctx context.Context, _ model.Request, records []model.ContributionRecord) response.Envelope {
			return s.responses.Success(ctx, records)
		},
	}, req)
}

// Scores ranks the highest scores for the requested role, masking user ids.
func (s *Service) Scores(ctx context.Context, req model.Request) response.Envelope {
	return run(ctx, s, operation[model.ScoreRecord]{
		method:        MethodScores,
		requestSchema: schema.ScoresRequest,
		itemSchema:    schema.ScoreItems,
		query: func(req model.Request) repository.Query {
			return repository.ScoresQuery(req.Query("role"), s.scoresLimit(req.Query("limit")))
		},
		transform: s.best,
	}, req)
}

// Popularity ranks the three most purchased products.
func (s *Service) Popularity(ctx context.Context, req model.Request) response.Envelope {
	return run(ctx, s, operation[model.PopularityRecord]{
		method:        MethodPopularity,
		requestSchema: schema.PopularityRequest,
		itemSchema:    schema.PopularityItems,
		query: func(model.Request) repository.Query {
			return repository.PopularityQuery()
		},
		transform: func(ctx context.Context, _ model.Request, records []model.PopularityRecord) response.Envelope {
			return s.responses.Success(ctx, records)
		},
	}, req)
}

// Apology is the success body when nobody in role has scored.
func Apology(role string) string {
	return fmt.Sprintf("Not one %s found to have sold anything.", role)
}

func (s *Service) best(ctx context.Context, req model.Request, records []model.ScoreRecord) response.Envelope {
	if len(records) == 0 || records[0].Score == 0 {
		return s.responses.Success(ctx, Apology(req.Query("role")))
	}
	masked := make([]model.ScoreRecord, len(records))
	for i, rec := range records {
		masked[i] = identity.Display(rec)
	}
	return s.responses.Success(ctx, masked)
}

// scoresLimit parses the limit parameter, already checked against the
// request schema, defaulting to one and clamping to the configured maximum.
func (s *Service) scoresLimit(raw string) int {
	if raw == "" {
		return repository.DefaultScoresLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return repository.DefaultScoresLimit
	}
	if n > s.maxScoresLimit {
		return s.maxScoresLimit
	}
	return n
}

type operation[T any] struct {
	method        string
	requestSchema schema.ID
	itemSchema    schema.ID
	query         func(model.Request) repository.Query
	transform     func(context.Context, model.Request, []T) response.Envelope
}

// run executes the pipeline, stopping at the first failing step, and
// records the terminal outcome.
func run[T any](ctx context.Context, s *Service, op operation[T], req model.Request) response.Envelope {
	ctx, span := s.tracer.Start(ctx, "winner."+op.method)
	defer span.End()

	start := time.Now()
	env, outcome := execute(ctx, s, op, req)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000

	span.SetAttributes(
		attribute.String("winner.outcome", outcome),
		attribute.Int("http.response.status_code", env.StatusCode),
	)
	metrics.RecordOperation(op.method, outcome, latencyMs)
	s.logger.Debug(ctx, "operation complete",
		logger.String("method", op.method),
		logger.String("outcome", outcome),
		logger.Int("status", env.StatusCode),
		logger.Float64("latency_ms", latencyMs),
	)
	return env
}

func execute[T any](ctx context.Context, s *Service, op operation[T], req model.Request) (response.Envelope, string) {
	if ok, errs := s.schemas.Validate(op.requestSchema, req); !ok {
		metrics.RecordValidationFailure(string(op.requestSchema))
		return s.responses.ClientError(ctx, op.method, op.requestSchema, errs, req), metrics.OutcomeClientError
	}

	items, err := s.store.Query(ctx, op.query(req))
	if err != nil {
		return s.responses.StoreError(ctx, op.method, err), metrics.OutcomeStoreError
	}
	if items == nil {
		items = []repository.Item{}
	}

	if ok, errs := s.schemas.Validate(op.itemSchema, items); !ok {
		metrics.RecordValidationFailure(string(op.itemSchema))
		metrics.RecordSecurityRisk(op.method)
		return s.responses.SecurityRisk(ctx, op.method, op.itemSchema, errs, items), metrics.OutcomeSecurityRisk
	}

	records, err := decode[T](items)
	if err != nil {
		metrics.RecordSecurityRisk(op.method)
		return s.responses.SecurityRisk(ctx, op.method, op.itemSchema, err.Error(), items), metrics.OutcomeSecurityRisk
	}

	return op.transform(ctx, req, records), metrics.OutcomeSuccess
}

// decode converts schema-checked items into typed records.
func decode[T any](items []repository.Item) ([]T, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	records := make([]T, 0, len(items))
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return records, nil
}
