// Package reference defines the reference entities and wires each one into
// the generic catalog: store, service, joins and HTTP routes.
package reference

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"refdata/internal/catalog"
	catalogmetrics "refdata/internal/catalog/metrics"
	"refdata/internal/changes"
	"refdata/internal/platform/cache"
	"refdata/pkg/platform/tx"
	"refdata/pkg/platform/validation"
)

// Deps are the shared collaborators of every module. A nil DB selects
// in-memory stores.
type Deps struct {
	DB        *sql.DB
	Tx        tx.Manager
	Changes   changes.Recorder
	Cache     cache.Cache
	CacheTTL  time.Duration
	Metrics   *catalogmetrics.Metrics
	Validator *validation.Validator
	Logger    *slog.Logger

	// memLock guards every in-memory store so references can be checked
	// across them.
	memLock *sync.RWMutex
}

func (d Deps) options() []catalog.Option {
	opts := []catalog.Option{
		catalog.WithLogger(d.Logger),
		catalog.WithMetrics(d.Metrics),
	}
	if d.Tx != nil {
		opts = append(opts, catalog.WithTxManager(d.Tx))
	}
	if d.Changes != nil {
		opts = append(opts, catalog.WithChanges(d.Changes))
	}
	if d.Cache != nil {
		opts = append(opts, catalog.WithCache(d.Cache, d.CacheTTL))
	}
	return opts
}

// Module is one entity with its routes, independent of its record types.
type Module interface {
	Name() string
	Mount(r chi.Router, writeGuard func(http.Handler) http.Handler)
	Seed(ctx context.Context, items []json.RawMessage) (SeedResult, error)
}

// SeedResult counts what a seed run did for one entity.
type SeedResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type module[R, D any] struct {
	def       catalog.Definition[R, D]
	service   *catalog.Service[R, D]
	handler   *catalog.Handler[D]
	validator *validation.Validator
}

func build[R, D any](deps Deps, def catalog.Definition[R, D]) *module[R, D] {
	var store catalog.Store[R]
	if deps.DB != nil {
		store = catalog.NewPostgres(deps.DB, def)
	} else {
		store = catalog.NewSharedInMemory(def, deps.memLock)
	}
	service := catalog.NewService(def, store, deps.options()...)
	return &module[R, D]{
		def:       def,
		service:   service,
		handler:   catalog.NewHandler(def, catalog.Operations[D](service), deps.Validator, deps.Logger),
		validator: deps.Validator,
	}
}

// refer mirrors a foreign key of from onto the in-memory stores. PostgreSQL
// stores enforce their own constraints and are left alone.
func refer[R, D, T, E any](from *module[R, D], field string, get func(*R) *uuid.UUID, to *module[T, E]) {
	src, ok := from.service.Store().(*catalog.InMemory[R])
	if !ok {
		return
	}
	dst, ok := to.service.Store().(*catalog.InMemory[T])
	if !ok {
		return
	}
	catalog.Refer(src, field, get, dst)
}

// withParent embeds the immediate parent of hierarchical records.
func (m *module[R, D]) withParent(attach func(dto, parent *D)) *module[R, D] {
	m.service.Embed(catalog.EmbedParent(m.service.Resolver(), m.def.Mapper, attach))
	return m
}

func (m *module[R, D]) Name() string {
	return m.def.Name
}

func (m *module[R, D]) Mount(r chi.Router, writeGuard func(http.Handler) http.Handler) {
	r.Route("/"+m.def.Name, func(r chi.Router) {
		m.handler.Register(r, writeGuard)
	})
}

// Seed imports items whose natural key is not taken yet. Items keep the id
// they carry, so later items can reference earlier ones.
func (m *module[R, D]) Seed(ctx context.Context, items []json.RawMessage) (SeedResult, error) {
	var res SeedResult
	for i, raw := range items {
		dto := new(D)
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dto); err != nil {
			return res, fmt.Errorf("%s[%d]: decode: %w", m.def.Name, i, err)
		}
		if err := m.validator.Struct(dto); err != nil {
			return res, fmt.Errorf("%s[%d]: %w", m.def.Name, i, err)
		}
		rec, err := m.def.Mapper.ToRecord(dto)
		if err != nil {
			return res, fmt.Errorf("%s[%d]: %w", m.def.Name, i, err)
		}
		existing, err := m.service.GetByCode(ctx, m.def.Code(rec))
		if err != nil {
			return res, fmt.Errorf("%s[%d]: %w", m.def.Name, i, err)
		}
		if existing != nil {
			res.Skipped++
			continue
		}
		if _, err := m.service.Import(ctx, dto); err != nil {
			return res, fmt.Errorf("%s[%d]: %w", m.def.Name, i, err)
		}
		res.Created++
	}
	return res, nil
}

// Registry holds every module in dependency order: a module only references
// modules listed before it.
type Registry struct {
	modules []Module
	byName  map[string]Module
}

// New builds every reference module over deps.
func New(deps Deps) *Registry {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	deps.memLock = new(sync.RWMutex)

	countryMod := build(deps, countries())
	divisionMod := build(deps, administrativeDivisions()).withParent(func(d, p *AdministrativeDivision) { d.Parent = p })
	refer(divisionMod, "countryId", func(d *AdministrativeDivision) *uuid.UUID { return &d.CountryID }, countryMod)
	legalFormMod := build(deps, legalForms())
	refer(legalFormMod, "countryId", func(l *LegalForm) *uuid.UUID { return l.CountryID }, countryMod)
	bankCodeMod := build(deps, bankCodes())
	refer(bankCodeMod, "countryId", func(b *BankCode) *uuid.UUID { return b.CountryID }, countryMod)
	categoryMod := build(deps, identityDocumentCategories())
	documentMod := build(deps, identityDocuments())
	documentMod.service.Embed(catalog.Embed(
		categoryMod.service.Store().FindByIDs, categoryMod.def,
		func(d *IdentityDocument) *uuid.UUID { return d.CategoryID },
		func(d *IdentityDocument, c *IdentityDocumentCategory) { d.Category = c },
	))
	refer(documentMod, "categoryId", func(d *IdentityDocument) *uuid.UUID { return d.CategoryID }, categoryMod)
	refer(documentMod, "countryId", func(d *IdentityDocument) *uuid.UUID { return d.CountryID }, countryMod)
	templateTypeMod := build(deps, documentTemplateTypes())
	templateMod := build(deps, documentTemplates())
	templateMod.service.Embed(catalog.Embed(
		templateTypeMod.service.Store().FindByIDs, templateTypeMod.def,
		func(t *DocumentTemplate) *uuid.UUID { return t.TemplateTypeID },
		func(d *DocumentTemplateDTO, t *DocumentTemplateType) { d.TemplateType = t },
	))
	refer(templateMod, "templateTypeId", func(t *DocumentTemplate) *uuid.UUID { return t.TemplateTypeID }, templateTypeMod)
	domainMod := build(deps, lookupDomains()).withParent(func(d, p *LookupDomain) { d.Parent = p })
	itemMod := build(deps, lookupItems()).withParent(func(d, p *LookupItemDTO) { d.Parent = p })
	refer(itemMod, "domainId", func(i *LookupItem) *uuid.UUID { return &i.DomainID }, domainMod)

	modules := []Module{
		countryMod,
		build(deps, currencies()),
		build(deps, languages()),
		divisionMod,
		build(deps, titles()),
		build(deps, occupations()),
		legalFormMod,
		build(deps, contractTypes()),
		build(deps, relationshipTypes()),
		bankCodeMod,
		build(deps, consents()),
		categoryMod,
		documentMod,
		templateTypeMod,
		templateMod,
		domainMod,
		itemMod,
		build(deps, activityCodes()).withParent(func(d, p *ActivityCode) { d.Parent = p }),
		build(deps, transactionCategories()).withParent(func(d, p *TransactionCategory) { d.Parent = p }),
	}

	reg := &Registry{modules: modules, byName: make(map[string]Module, len(modules))}
	for _, m := range modules {
		reg.byName[m.Name()] = m
	}
	return reg
}

// Modules returns the modules in dependency order.
func (r *Registry) Modules() []Module {
	return r.modules
}

// Module looks a module up by its route name.
func (r *Registry) Module(name string) (Module, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Mount registers every module under its own route.
func (r *Registry) Mount(router chi.Router, writeGuard func(http.Handler) http.Handler) {
	for _, m := range r.modules {
		m.Mount(router, writeGuard)
	}
}
