package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	catalogmetrics "refdata/internal/catalog/metrics"
	"refdata/internal/changes"
	"refdata/internal/hierarchy"
	"refdata/internal/platform/cache"
	"refdata/internal/query"
	dErrors "refdata/pkg/domain-errors"
	"refdata/pkg/platform/sentinel"
	"refdata/pkg/platform/tx"
	"refdata/pkg/requestcontext"
)

var tracer = otel.Tracer("refdata/internal/catalog")

// CacheKeyPrefix starts every key the service writes to its cache. Keys are
// CacheKeyPrefix + "<entity>:id:<uuid>" or CacheKeyPrefix + "<entity>:code:<code>".
const CacheKeyPrefix = "refdata:"

type options struct {
	logger   *slog.Logger
	metrics  *catalogmetrics.Metrics
	changes  changes.Recorder
	cache    cache.Cache
	cacheTTL time.Duration
	tx       tx.Manager
}

// Option configures a Service.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithChanges records every committed write in r.
func WithChanges(r changes.Recorder) Option {
	return func(o *options) { o.changes = r }
}

// WithCache enables read-through caching of lookups by id and code.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.cache = c
		o.cacheTTL = ttl
	}
}

func WithTxManager(m tx.Manager) Option {
	return func(o *options) { o.tx = m }
}

// Service orchestrates reads and writes of one entity.
type Service[R, D any] struct {
	def      Definition[R, D]
	store    Store[R]
	resolver *hierarchy.Resolver[R]
	joins    []Join[R, D]

	logger   *slog.Logger
	metrics  *catalogmetrics.Metrics
	changes  changes.Recorder
	cache    cache.Cache
	cacheTTL time.Duration
	tx       tx.Manager
}

func NewService[R, D any](def Definition[R, D], store Store[R], opts ...Option) *Service[R, D] {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.changes == nil {
		cfg.changes = changes.Discard{}
	}
	if cfg.tx == nil {
		cfg.tx = tx.NoopManager{}
	}

	s := &Service[R, D]{
		def:      def,
		store:    store,
		logger:   cfg.logger,
		metrics:  cfg.metrics,
		changes:  cfg.changes,
		cache:    cfg.cache,
		cacheTTL: cfg.cacheTTL,
		tx:       cfg.tx,
	}
	if def.Parent != nil {
		s.resolver = hierarchy.NewResolver(def.Parent.Field, store.FindByIDs, def.ID, def.Parent.Get)
	}
	return s
}

// Embed adds joins run on every result after mapping.
func (s *Service[R, D]) Embed(joins ...Join[R, D]) *Service[R, D] {
	s.joins = append(s.joins, joins...)
	return s
}

// Definition returns the entity definition the service was built with.
func (s *Service[R, D]) Definition() Definition[R, D] {
	return s.def
}

// Store returns the underlying store.
func (s *Service[R, D]) Store() Store[R] {
	return s.store
}

// Resolver returns the parent resolver, or nil for flat entities.
func (s *Service[R, D]) Resolver() *hierarchy.Resolver[R] {
	return s.resolver
}

// List returns one page of records in the requested order.
func (s *Service[R, D]) List(ctx context.Context, req query.PageRequest) (query.Page[*D], error) {
	return s.page(ctx, "list", query.FilterRequest{PageRequest: req})
}

// Filter returns one page of records matching every condition of req.
func (s *Service[R, D]) Filter(ctx context.Context, req query.FilterRequest) (query.Page[*D], error) {
	return s.page(ctx, "filter", req)
}

// ListScope lists the records whose scope field equals value.
func (s *Service[R, D]) ListScope(ctx context.Context, path, value string, req query.FilterRequest) (query.Page[*D], error) {
	scope, ok := s.def.Scope(path)
	if !ok {
		return query.Page[*D]{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("%s cannot be listed by %s", s.def.Name, path))
	}
	return s.page(ctx, "list_by_"+path, req.Where(query.Eq(scope.Field, value)))
}

// Children lists the immediate children of parentID.
func (s *Service[R, D]) Children(ctx context.Context, parentID uuid.UUID, req query.FilterRequest) (query.Page[*D], error) {
	if s.resolver == nil {
		return query.Page[*D]{}, dErrors.New(dErrors.CodeNotFound, s.def.Name+" have no hierarchy")
	}
	return s.page(ctx, "children", req.Where(hierarchy.ChildrenOf(s.resolver.Field(), parentID)))
}

func (s *Service[R, D]) page(ctx context.Context, op string, req query.FilterRequest) (_ query.Page[*D], err error) {
	ctx, done := s.observe(ctx, op)
	defer func() { done(err) }()

	page, err := query.Paginate[R](ctx, s.store, s.def.Schema, req)
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return query.Page[*D]{}, err
		}
		return query.Page[*D]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list "+s.def.Name)
	}
	s.metrics.ObservePageSize(s.def.Name, page.Size)

	dtos, err := s.present(ctx, page.Content)
	if err != nil {
		return query.Page[*D]{}, err
	}
	return query.WithContent(page, dtos), nil
}

// Get returns the record with id, or nil when it does not exist.
func (s *Service[R, D]) Get(ctx context.Context, id uuid.UUID) (_ *D, err error) {
	ctx, done := s.observe(ctx, "get")
	defer func() { done(err) }()

	rec, err := s.cached(ctx, s.idKey(id), func(ctx context.Context) (*R, error) {
		return s.store.FindByID(ctx, id)
	})
	if err != nil || rec == nil {
		return nil, err
	}
	return s.presentOne(ctx, rec)
}

// GetByCode returns the record with the natural key code, or nil when it
// does not exist.
func (s *Service[R, D]) GetByCode(ctx context.Context, code string) (_ *D, err error) {
	ctx, done := s.observe(ctx, "get_by_code")
	defer func() { done(err) }()

	rec, err := s.cached(ctx, s.codeKey(code), func(ctx context.Context) (*R, error) {
		return s.store.FindByCode(ctx, code)
	})
	if err != nil || rec == nil {
		return nil, err
	}
	return s.presentOne(ctx, rec)
}

// Create inserts dto. The store assigns the identifier; both audit
// timestamps are set to the request time.
func (s *Service[R, D]) Create(ctx context.Context, dto *D) (_ *D, err error) {
	ctx, done := s.observe(ctx, "create")
	defer func() { done(err) }()
	return s.create(ctx, dto, false)
}

// Import inserts dto like Create but keeps an identifier set on the payload,
// so seed files can reference the rows they create.
func (s *Service[R, D]) Import(ctx context.Context, dto *D) (_ *D, err error) {
	ctx, done := s.observe(ctx, "import")
	defer func() { done(err) }()
	return s.create(ctx, dto, true)
}

func (s *Service[R, D]) create(ctx context.Context, dto *D, keepID bool) (*D, error) {
	rec, err := s.def.Mapper.ToRecord(dto)
	if err != nil {
		return nil, s.mappingErr(err)
	}
	now := s.now(ctx)
	m := s.def.Meta(rec)
	if !keepID {
		m.ID = uuid.Nil
	}
	m.DateCreated = now
	m.DateUpdated = now

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkParent(txCtx, m.ID, rec); err != nil {
			return err
		}
		if err := s.store.Insert(txCtx, rec); err != nil {
			return s.writeErr("create", err)
		}
		return s.record(txCtx, changes.ActionCreated, rec)
	})
	if err != nil {
		return nil, err
	}
	return s.presentOne(ctx, rec)
}

// Update replaces every field of the record with id by dto, keeping its
// identifier and creation time. It returns nil without writing anything
// when the record does not exist.
func (s *Service[R, D]) Update(ctx context.Context, id uuid.UUID, dto *D) (_ *D, err error) {
	ctx, done := s.observe(ctx, "update")
	defer func() { done(err) }()

	rec, err := s.def.Mapper.ToRecord(dto)
	if err != nil {
		return nil, s.mappingErr(err)
	}

	var previous *R
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.store.FindByID(txCtx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+s.def.Name)
		}

		prev, m := s.def.Meta(existing), s.def.Meta(rec)
		m.ID = prev.ID
		m.DateCreated = prev.DateCreated
		m.DateUpdated = s.now(txCtx)
		if m.DateUpdated.Before(prev.DateUpdated) {
			m.DateUpdated = prev.DateUpdated
		}

		if err := s.checkParent(txCtx, id, rec); err != nil {
			return err
		}
		if err := s.store.Update(txCtx, rec); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return s.writeErr("update", err)
		}
		if err := s.record(txCtx, changes.ActionUpdated, rec); err != nil {
			return err
		}
		previous = existing
		return nil
	})
	if err != nil || previous == nil {
		return nil, err
	}

	s.invalidate(ctx, s.idKey(id), s.codeKey(s.def.Code(previous)), s.codeKey(s.def.Code(rec)))
	return s.presentOne(ctx, rec)
}

// Delete removes the record with id and reports whether it existed.
func (s *Service[R, D]) Delete(ctx context.Context, id uuid.UUID) (_ bool, err error) {
	ctx, done := s.observe(ctx, "delete")
	defer func() { done(err) }()

	var removed *R
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.store.Delete(txCtx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return s.writeErr("delete", err)
		}
		if err := s.record(txCtx, changes.ActionDeleted, rec); err != nil {
			return err
		}
		removed = rec
		return nil
	})
	if err != nil || removed == nil {
		return false, err
	}

	s.invalidate(ctx, s.idKey(id), s.codeKey(s.def.Code(removed)))
	return true, nil
}

func (s *Service[R, D]) checkParent(ctx context.Context, id uuid.UUID, rec *R) error {
	if s.resolver == nil {
		return nil
	}
	err := s.resolver.CheckParent(ctx, id, s.def.Parent.Get(rec))
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check parent")
}

func (s *Service[R, D]) record(ctx context.Context, action changes.Action, rec *R) error {
	dto, err := s.def.Mapper.ToDTO(rec)
	if err != nil {
		return s.mappingErr(err)
	}
	payload, err := json.Marshal(dto)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode change")
	}
	change := changes.Change{
		ID:         uuid.New(),
		Entity:     s.def.Name,
		EntityID:   s.def.ID(rec),
		Action:     action,
		OccurredAt: s.now(ctx),
		RequestID:  requestcontext.RequestID(ctx),
		Subject:    requestcontext.Subject(ctx),
		Payload:    payload,
	}
	if err := s.changes.Record(ctx, change); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record change")
	}
	return nil
}

// writeErr translates store errors of a write into domain errors.
func (s *Service[R, D]) writeErr(op string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return &dErrors.Error{
			Code:    dErrors.CodeConflict,
			Message: fmt.Sprintf("%s already exists", s.def.CodeField),
			Fields:  map[string]string{s.def.CodeField: "already exists"},
			Err:     err,
		}
	case errors.Is(err, sentinel.ErrInvalidState) && op == "delete":
		return dErrors.Wrap(err, dErrors.CodeConflict, s.def.Name+" record is still referenced")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeValidation, "references a record that does not exist")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to %s %s", op, s.def.Name))
	}
}

func (s *Service[R, D]) mappingErr(err error) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to map "+s.def.Name)
}

func (s *Service[R, D]) presentOne(ctx context.Context, rec *R) (*D, error) {
	dtos, err := s.present(ctx, []*R{rec})
	if err != nil {
		return nil, err
	}
	return dtos[0], nil
}

// present maps records to DTOs, then runs the joins concurrently.
func (s *Service[R, D]) present(ctx context.Context, recs []*R) ([]*D, error) {
	dtos := make([]*D, len(recs))
	for i, r := range recs {
		d, err := s.def.Mapper.ToDTO(r)
		if err != nil {
			return nil, s.mappingErr(err)
		}
		dtos[i] = d
	}
	if len(recs) == 0 || len(s.joins) == 0 {
		return dtos, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, join := range s.joins {
		g.Go(func() error { return join(gctx, recs, dtos) })
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load related records")
	}
	return dtos, nil
}

// cached loads a record through the cache. Cache failures degrade to a
// store read.
func (s *Service[R, D]) cached(ctx context.Context, key string, load func(context.Context) (*R, error)) (*R, error) {
	if s.cache != nil {
		var rec R
		hit, err := s.cache.Get(ctx, key, &rec)
		switch {
		case err != nil:
			s.metrics.IncrementCache(s.def.Name, "error")
			s.logger.WarnContext(ctx, "cache read failed", "entity", s.def.Name, "key", key, "error", err)
		case hit:
			s.metrics.IncrementCache(s.def.Name, "hit")
			return &rec, nil
		default:
			s.metrics.IncrementCache(s.def.Name, "miss")
		}
	}

	rec, err := load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+s.def.Name)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rec, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "cache write failed", "entity", s.def.Name, "key", key, "error", err)
		}
	}
	return rec, nil
}

func (s *Service[R, D]) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", "entity", s.def.Name, "error", err)
	}
}

func (s *Service[R, D]) idKey(id uuid.UUID) string {
	return CacheKeyPrefix + s.def.Name + ":id:" + id.String()
}

func (s *Service[R, D]) codeKey(code string) string {
	return CacheKeyPrefix + s.def.Name + ":code:" + code
}

// now is the request time at the precision PostgreSQL stores.
func (s *Service[R, D]) now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
}

// observe starts a span for op and returns the func that ends it, recording
// the outcome metric and logging internal failures.
func (s *Service[R, D]) observe(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "catalog."+op,
		trace.WithAttributes(attribute.String("refdata.entity", s.def.Name)),
	)
	return ctx, func(err error) {
		defer span.End()
		outcome := "ok"
		if err != nil {
			code := dErrors.CodeOf(err)
			outcome = string(code)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if code == dErrors.CodeInternal {
				s.logger.ErrorContext(ctx, "catalog operation failed",
					"entity", s.def.Name,
					"operation", op,
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
			}
		}
		s.metrics.ObserveOperation(s.def.Name, op, outcome, start)
	}
}

// Operations is the service surface the HTTP handler depends on.
type Operations[D any] interface {
	List(ctx context.Context, req query.PageRequest) (query.Page[*D], error)
	Filter(ctx context.Context, req query.FilterRequest) (query.Page[*D], error)
	ListScope(ctx context.Context, path, value string, req query.FilterRequest) (query.Page[*D], error)
	Children(ctx context.Context, parentID uuid.UUID, req query.FilterRequest) (query.Page[*D], error)
	Get(ctx context.Context, id uuid.UUID) (*D, error)
	GetByCode(ctx context.Context, code string) (*D, error)
	Create(ctx context.Context, dto *D) (*D, error)
	Update(ctx context.Context, id uuid.UUID, dto *D) (*D, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
