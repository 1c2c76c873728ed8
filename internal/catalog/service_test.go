package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	catalogmetrics "refdata/internal/catalog/metrics"
	"refdata/internal/changes"
	"refdata/internal/platform/cache"
	"refdata/internal/query"
	dErrors "refdata/pkg/domain-errors"
	"refdata/pkg/requestcontext"
	"refdata/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	def     Definition[node, node]
	store   *InMemory[node]
	outbox  *changes.MemoryOutbox
	cache   *cache.Memory
	service *Service[node, node]
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	s.ctx = testutil.RequestContext("req-1", "ops", s.now)
	s.def = nodeDefinition()
	s.store = NewInMemory(s.def)
	s.outbox = changes.NewMemoryOutbox()
	s.cache = cache.NewMemory()
	s.service = NewService[node, node](s.def, s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(catalogmetrics.New(prometheus.NewRegistry())),
		WithChanges(s.outbox),
		WithCache(s.cache, time.Minute),
	)
	s.service.Embed(EmbedParent(s.service.Resolver(), s.def.Mapper, func(d *node, p *node) { d.Parent = p }))
}

func (s *ServiceSuite) create(code, name string, parent *uuid.UUID) *node {
	created, err := s.service.Create(s.ctx, newNode(code, name, parent))
	s.Require().NoError(err)
	return created
}

func (s *ServiceSuite) count() int64 {
	n, err := s.store.Count(s.ctx, nil)
	s.Require().NoError(err)
	return n
}

func (s *ServiceSuite) TestCreate() {
	s.Run("assigns identifier and audit timestamps", func() {
		in := newNode("A", "Alpha", nil)
		in.ID = uuid.New()
		in.DateCreated = s.now.Add(-24 * time.Hour)

		created, err := s.service.Create(s.ctx, in)
		s.Require().NoError(err)

		s.NotEqual(uuid.Nil, created.ID)
		s.NotEqual(in.ID, created.ID, "client supplied ids are ignored")
		s.Equal(s.now, created.DateCreated)
		s.Equal(s.now, created.DateUpdated)

		got, err := s.service.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Require().NotNil(got)
		s.Equal("A", got.Code)
		s.Equal("Alpha", got.Name)
		s.Equal(StatusActive, got.Status)
		s.Nil(got.ParentID)
	})

	s.Run("duplicate code is a conflict", func() {
		_, err := s.service.Create(s.ctx, newNode("A", "Again", nil))
		s.Require().Error(err)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeConflict, de.Code)
		s.Equal("already exists", de.Fields["code"])
	})

	s.Run("unknown parent is rejected", func() {
		missing := uuid.New()
		_, err := s.service.Create(s.ctx, newNode("B", "Beta", &missing))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(int64(1), s.count())
	})

	s.Run("records a change", func() {
		recorded := s.outbox.Changes()
		s.Require().Len(recorded, 1)
		s.Equal("nodes", recorded[0].Entity)
		s.Equal(changes.ActionCreated, recorded[0].Action)
		s.Equal("req-1", recorded[0].RequestID)

		var payload node
		s.Require().NoError(json.Unmarshal(recorded[0].Payload, &payload))
		s.Equal("A", payload.Code)
	})
}

func (s *ServiceSuite) TestGetAbsent() {
	got, err := s.service.Get(s.ctx, uuid.New())
	s.NoError(err)
	s.Nil(got)

	got, err = s.service.GetByCode(s.ctx, "nope")
	s.NoError(err)
	s.Nil(got)
}

func (s *ServiceSuite) TestGetByCode() {
	created := s.create("XK", "Kosovo", nil)

	got, err := s.service.GetByCode(s.ctx, "XK")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(created.ID, got.ID)
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("absent record is not written", func() {
		s.create("A", "Alpha", nil)
		before := len(s.outbox.Changes())

		got, err := s.service.Update(s.ctx, uuid.New(), newNode("Z", "Zulu", nil))
		s.NoError(err)
		s.Nil(got)
		s.Equal(int64(1), s.count())
		s.Len(s.outbox.Changes(), before)

		absent, err := s.service.GetByCode(s.ctx, "Z")
		s.NoError(err)
		s.Nil(absent)
	})

	s.Run("replaces fields and keeps identity", func() {
		parent := s.create("P", "Parent", nil)
		original := s.create("C", "Child", &parent.ID)

		later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
		replacement := newNode("C2", "Renamed", nil)
		replacement.ID = uuid.New()
		replacement.DateCreated = s.now.Add(48 * time.Hour)
		replacement.Status = StatusInactive

		updated, err := s.service.Update(later, original.ID, replacement)
		s.Require().NoError(err)
		s.Require().NotNil(updated)

		s.Equal(original.ID, updated.ID)
		s.Equal(original.DateCreated, updated.DateCreated)
		s.Equal(s.now.Add(time.Hour), updated.DateUpdated)
		s.Equal("C2", updated.Code)
		s.Equal("Renamed", updated.Name)
		s.Equal(StatusInactive, updated.Status)
		s.Nil(updated.ParentID, "a full replace clears the parent")
	})

	s.Run("update time never goes backwards", func() {
		rec := s.create("T", "Time", nil)
		earlier := requestcontext.WithTime(s.ctx, s.now.Add(-time.Hour))

		updated, err := s.service.Update(earlier, rec.ID, newNode("T", "Time", nil))
		s.Require().NoError(err)
		s.False(updated.DateUpdated.Before(rec.DateUpdated))
	})

	s.Run("self reference is rejected", func() {
		rec := s.create("S", "Self", nil)
		_, err := s.service.Update(s.ctx, rec.ID, newNode("S", "Self", &rec.ID))
		s.Require().Error(err)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Contains(de.Fields, "parentId")
	})

	s.Run("cycle is rejected", func() {
		a := s.create("CA", "A", nil)
		b := s.create("CB", "B", &a.ID)

		_, err := s.service.Update(s.ctx, a.ID, newNode("CA", "A", &b.ID))
		s.Require().Error(err)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal("would create a cycle", de.Fields["parentId"])
	})
}

func (s *ServiceSuite) TestUpdateInvalidatesCache() {
	rec := s.create("A", "Alpha", nil)

	_, err := s.service.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	_, err = s.service.GetByCode(s.ctx, "A")
	s.Require().NoError(err)
	s.Equal(2, s.cache.Len())

	_, err = s.service.Update(s.ctx, rec.ID, newNode("B", "Bravo", nil))
	s.Require().NoError(err)
	s.Equal(0, s.cache.Len())

	got, err := s.service.Get(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal("Bravo", got.Name)

	stale, err := s.service.GetByCode(s.ctx, "A")
	s.Require().NoError(err)
	s.Nil(stale)
}

func (s *ServiceSuite) TestDelete() {
	s.Run("reports whether the record existed", func() {
		rec := s.create("A", "Alpha", nil)
		_, err := s.service.Get(s.ctx, rec.ID)
		s.Require().NoError(err)

		existed, err := s.service.Delete(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.True(existed)

		got, err := s.service.Get(s.ctx, rec.ID)
		s.NoError(err)
		s.Nil(got)

		existed, err = s.service.Delete(s.ctx, rec.ID)
		s.NoError(err)
		s.False(existed)
	})

	s.Run("parent with children is a conflict", func() {
		parent := s.create("P", "Parent", nil)
		s.create("C", "Child", &parent.ID)

		_, err := s.service.Delete(s.ctx, parent.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("records deletions", func() {
		last := s.outbox.Changes()
		s.Equal(changes.ActionCreated, last[len(last)-1].Action)

		var deleted int
		for _, c := range last {
			if c.Action == changes.ActionDeleted {
				deleted++
			}
		}
		s.Equal(1, deleted)
	})
}

func (s *ServiceSuite) TestList() {
	for _, code := range []string{"E", "D", "C", "B", "A"} {
		s.create(code, "Node "+code, nil)
	}

	s.Run("first page", func() {
		page, err := s.service.List(s.ctx, query.PageRequest{Page: 0, Size: 2})
		s.Require().NoError(err)
		s.Equal(int64(5), page.TotalElements)
		s.Equal(3, page.TotalPages)
		s.Require().Len(page.Content, 2)
		s.Equal("A", page.Content[0].Code)
		s.Equal("B", page.Content[1].Code)
	})

	s.Run("page past the end is empty but counted", func() {
		page, err := s.service.List(s.ctx, query.PageRequest{Page: 7, Size: 2})
		s.Require().NoError(err)
		s.Equal(int64(5), page.TotalElements)
		s.NotNil(page.Content)
		s.Empty(page.Content)
	})

	s.Run("explicit sort", func() {
		page, err := s.service.List(s.ctx, query.PageRequest{Size: 1, Sort: []query.Sort{{Field: "code", Direction: query.DESC}}})
		s.Require().NoError(err)
		s.Equal("E", page.Content[0].Code)
	})

	s.Run("oversized page is rejected", func() {
		_, err := s.service.List(s.ctx, query.PageRequest{Size: query.MaxPageSize + 1})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestFilterCountsMatchingSubset() {
	for i, kind := range []string{"region", "region", "city", "region", "city"} {
		n := newNode(string(rune('A'+i)), "n", nil)
		n.Kind = kind
		_, err := s.service.Create(s.ctx, n)
		s.Require().NoError(err)
	}

	page, err := s.service.Filter(s.ctx, query.FilterRequest{
		PageRequest: query.PageRequest{Size: 2},
		Filters:     []query.Condition{query.Eq("kind", "region")},
	})
	s.Require().NoError(err)
	s.Equal(int64(3), page.TotalElements)
	s.Len(page.Content, 2)
	for _, n := range page.Content {
		s.Equal("region", n.Kind)
	}

	scoped, err := s.service.ListScope(s.ctx, "kind", "city", query.FilterRequest{})
	s.Require().NoError(err)
	s.Equal(int64(2), scoped.TotalElements)

	_, err = s.service.ListScope(s.ctx, "colour", "red", query.FilterRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Filter(s.ctx, query.FilterRequest{Filters: []query.Condition{query.Eq("colour", "red")}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestHierarchy() {
	root := s.create("R", "Root", nil)
	child := s.create("C1", "Child 1", &root.ID)
	s.create("C2", "Child 2", &root.ID)
	s.create("G", "Grandchild", &child.ID)

	s.Run("child embeds its parent", func() {
		got, err := s.service.Get(s.ctx, child.ID)
		s.Require().NoError(err)
		s.Require().NotNil(got.Parent)
		s.Equal(root.ID, got.Parent.ID)
		s.Nil(got.Parent.Parent, "only one hop is resolved")
	})

	s.Run("root has no parent", func() {
		got, err := s.service.Get(s.ctx, root.ID)
		s.Require().NoError(err)
		s.Nil(got.Parent)
	})

	s.Run("children are one level deep", func() {
		page, err := s.service.Children(s.ctx, root.ID, query.FilterRequest{})
		s.Require().NoError(err)
		s.Equal(int64(2), page.TotalElements)
		for _, c := range page.Content {
			s.Equal(root.ID, *c.ParentID)
			s.Equal(root.ID, c.Parent.ID)
		}
	})

	s.Run("embedded parent is not persisted", func() {
		in := newNode("C3", "Child 3", &root.ID)
		in.Parent = &node{Code: "FAKE"}
		created, err := s.service.Create(s.ctx, in)
		s.Require().NoError(err)

		stored, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Nil(stored.Parent)
	})
}

func TestChildrenOfFlatEntity(t *testing.T) {
	def := flatDefinition()
	svc := NewService[node, node](def, NewInMemory(def))

	_, err := svc.Children(context.Background(), uuid.New(), query.FilterRequest{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Nil(t, svc.Resolver())
}

func (s *ServiceSuite) TestImportKeepsIdentifier() {
	id := uuid.New()
	in := newNode("I", "Imported", nil)
	in.ID = id

	imported, err := s.service.Import(s.ctx, in)
	s.Require().NoError(err)
	s.Equal(id, imported.ID)

	child := newNode("IC", "Imported child", &id)
	_, err = s.service.Import(s.ctx, child)
	s.Require().NoError(err)

	again := newNode("I2", "Same id", nil)
	again.ID = id
	_, err = s.service.Import(s.ctx, again)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}
