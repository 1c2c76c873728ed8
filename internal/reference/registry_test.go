package reference

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"refdata/internal/catalog"
	"refdata/internal/changes"
	"refdata/internal/platform/cache"
	"refdata/internal/query"
	dErrors "refdata/pkg/domain-errors"
	"refdata/pkg/testutil"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
	outbox   *changes.MemoryOutbox
	router   chi.Router
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RegistrySuite) SetupTest() {
	s.outbox = changes.NewMemoryOutbox()
	s.registry = New(Deps{
		Changes: s.outbox,
		Cache:   cache.NewMemory(),
		Logger:  discardLogger(),
	})
	s.router = chi.NewRouter()
	s.registry.Mount(s.router, nil)
}

func (s *RegistrySuite) do(method, path string, body any) *http.Response {
	req := testutil.NewRequest(s.T(), method, path)
	if body != nil {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	}
	return testutil.DoRequest(s.router, req).Result()
}

func (s *RegistrySuite) create(path string, body any, dst any) {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, body)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	s.Require().NoError(decode(rr.Body, dst))
}

func (s *RegistrySuite) TestModulesInDependencyOrder() {
	names := make([]string, 0, len(s.registry.Modules()))
	for _, m := range s.registry.Modules() {
		names = append(names, m.Name())
	}
	s.Len(names, 19)
	s.Less(indexOf(names, "countries"), indexOf(names, "administrative-divisions"))
	s.Less(indexOf(names, "identity-document-categories"), indexOf(names, "identity-documents"))
	s.Less(indexOf(names, "document-template-types"), indexOf(names, "document-templates"))
	s.Less(indexOf(names, "lookup-domains"), indexOf(names, "lookup-items"))

	_, ok := s.registry.Module("lookup-items")
	s.True(ok)
	_, ok = s.registry.Module("planets")
	s.False(ok)
}

func (s *RegistrySuite) TestCountryLifecycle() {
	testutil.Given(s.T(), "a created country", func(t *testing.T) {
		var created Country
		s.create("/countries", map[string]any{
			"isoCode":     "US",
			"countryName": "United States",
			"region":      "NA",
			"status":      "ACTIVE",
		}, &created)
		s.NotEqual(uuid.Nil, created.ID)

		testutil.When(t, "it is read back by id", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/countries/"+created.ID.String()))
			testutil.AssertStatus(t, rr, http.StatusOK)
			got := testutil.UnmarshalResponse[Country](t, rr)

			testutil.Then(t, "the fields round-trip exactly", func(t *testing.T) {
				s.Equal("US", got.IsoCode)
				s.Equal("United States", got.CountryName)
				s.Equal(RegionNorthAmerica, got.Region)
				s.Equal(catalog.StatusActive, got.Status)
				s.Equal(created.ID, got.ID)
			})
		})

		testutil.When(t, "it is read by natural key and region", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/countries/code/US"))
			testutil.AssertStatus(t, rr, http.StatusOK)

			rr = testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/countries/region/NA"))
			testutil.AssertStatus(t, rr, http.StatusOK)
			page := testutil.UnmarshalResponse[query.Page[Country]](t, rr)
			s.EqualValues(1, page.TotalElements)
		})

		testutil.When(t, "it is deleted", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodDelete, "/countries/"+created.ID.String()))
			testutil.AssertStatus(t, rr, http.StatusNoContent)

			testutil.Then(t, "a later get is not found", func(t *testing.T) {
				rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/countries/"+created.ID.String()))
				testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
			})

			testutil.And(t, "a second delete is not found", func(t *testing.T) {
				rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodDelete, "/countries/"+created.ID.String()))
				testutil.AssertStatus(t, rr, http.StatusNotFound)
			})
		})
	})
	s.Equal(2, s.outbox.Pending())
}

func (s *RegistrySuite) TestCountryValidation() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/countries", map[string]any{
		"isoCode":     "usa",
		"countryName": "United States",
		"region":      "XX",
		"status":      "ACTIVE",
	}))

	testutil.AssertValidationFields(s.T(), rr, "isoCode", "region")
}

func (s *RegistrySuite) TestMisspelledFieldsAreRejected() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/countries", map[string]any{
		"isoCode":     "US",
		"countryName": "United States",
		"region":      "NA",
		"status":      "ACTIVE",
		"iso3Cod":     "USA",
	}))
	testutil.AssertValidationFields(s.T(), rr, "iso3Cod")

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/consents/filter", map[string]any{
		"filter": []testutil.Filter{{Field: "consentType", Operator: "eq", Value: "MARKETING"}},
	}))
	testutil.AssertValidationFields(s.T(), rr, "filter")
	s.Zero(s.outbox.Pending())
}

func (s *RegistrySuite) TestUnknownEnumValuesAreRejected() {
	for _, path := range []string{
		"/countries?status=bogus",
		"/countries/region/XX",
		"/occupations/risk-level/EXTREME",
	} {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	}

	rr := testutil.DoRequest(s.router, testutil.NewFilterRequest(s.T(), "/countries", 0, 10,
		testutil.Filter{Field: "region", Operator: "in", Value: []string{"EU", "XX"}}))
	testutil.AssertValidationFields(s.T(), rr, "filters[0]")

	rr = testutil.DoRequest(s.router, testutil.NewFilterRequest(s.T(), "/occupations", 0, 10,
		testutil.Filter{Field: "riskLevel", Operator: "eq", Value: "HIGH"}))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *RegistrySuite) TestReferencesAreEnforced() {
	var country Country
	s.create("/countries", map[string]any{
		"isoCode": "FR", "countryName": "France", "region": "EU", "status": "ACTIVE",
	}, &country)

	testutil.Given(s.T(), "a division pointing at a country that does not exist", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodPost, "/administrative-divisions", map[string]any{
			"code": "FR-IDF", "name": "Ile-de-France", "divisionType": "REGION", "countryId": uuid.New(), "status": "ACTIVE",
		}))

		testutil.Then(t, "it is rejected", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
		})
	})

	testutil.Given(s.T(), "a division of the country", func(t *testing.T) {
		var division AdministrativeDivision
		s.create("/administrative-divisions", map[string]any{
			"code": "FR-IDF", "name": "Ile-de-France", "divisionType": "REGION", "countryId": country.ID, "status": "ACTIVE",
		}, &division)

		testutil.When(t, "the country is deleted", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodDelete, "/countries/"+country.ID.String()))

			testutil.Then(t, "it is still referenced", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
			})
		})

		testutil.When(t, "the division is deleted first", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodDelete, "/administrative-divisions/"+division.ID.String()))
			testutil.AssertStatus(t, rr, http.StatusNoContent)

			rr = testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodDelete, "/countries/"+country.ID.String()))
			testutil.AssertStatus(t, rr, http.StatusNoContent)
		})
	})
}

func (s *RegistrySuite) TestMalformedStoredAttributesAreInternal() {
	var domain LookupDomain
	s.create("/lookup-domains", map[string]any{"code": "MARITAL", "name": "Marital status", "status": "ACTIVE"}, &domain)

	items := s.registry.byName["lookup-items"].(*module[LookupItem, LookupItemDTO])
	broken := &LookupItem{
		Base:      catalog.Base{Status: catalog.StatusActive},
		Code:      "BROKEN",
		DomainID:  domain.ID,
		Label:     "Broken",
		ExtraJSON: sql.NullString{String: `{"legacyCode":`, Valid: true},
	}
	s.Require().NoError(items.service.Store().Insert(context.Background(), broken))

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/lookup-items/"+broken.ID.String()))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	s.NotContains(rr.Body.String(), "legacyCode")

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/lookup-items"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")

	_, err := items.service.Get(context.Background(), broken.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *RegistrySuite) TestConsentsFilteredByType() {
	for _, c := range []struct{ code, kind string }{
		{"MKT_EMAIL", "MARKETING"},
		{"MKT_SMS", "MARKETING"},
		{"PRIV_BASE", "PRIVACY"},
	} {
		var created Consent
		s.create("/consents", map[string]any{
			"code": c.code, "name": c.code, "consentType": c.kind, "version": 1, "status": "ACTIVE",
		}, &created)
	}

	rr := testutil.DoRequest(s.router, testutil.NewFilterRequest(s.T(), "/consents", 0, 10,
		testutil.Filter{Field: "consentType", Operator: "eq", Value: "MARKETING"}))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	page := testutil.UnmarshalResponse[query.Page[Consent]](s.T(), rr)
	s.EqualValues(2, page.TotalElements)
	for _, c := range page.Content {
		s.Equal("MARKETING", c.ConsentType)
	}

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/consents/type/PRIVACY"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	page = testutil.UnmarshalResponse[query.Page[Consent]](s.T(), rr)
	s.EqualValues(1, page.TotalElements)
	s.Equal("PRIV_BASE", page.Content[0].Code)
}

func (s *RegistrySuite) TestIdentityDocumentEmbedsCategory() {
	var category IdentityDocumentCategory
	s.create("/identity-document-categories", map[string]any{
		"code": "PASSPORT", "name": "Passport", "status": "ACTIVE",
	}, &category)

	var doc IdentityDocument
	s.create("/identity-documents", map[string]any{
		"code": "US_PASSPORT", "name": "US passport", "categoryId": category.ID, "status": "ACTIVE",
	}, &doc)
	s.Require().NotNil(doc.Category)
	s.Equal("PASSPORT", doc.Category.Code)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/identity-documents/category/"+category.ID.String()))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	page := testutil.UnmarshalResponse[query.Page[IdentityDocument]](s.T(), rr)
	s.Require().Len(page.Content, 1)
	s.Require().NotNil(page.Content[0].Category)
	s.Equal(category.ID, page.Content[0].Category.ID)
}

func (s *RegistrySuite) TestLookupItemHierarchyAndAttributes() {
	var domain LookupDomain
	s.create("/lookup-domains", map[string]any{"code": "MARITAL", "name": "Marital status", "status": "ACTIVE"}, &domain)

	var root LookupItemDTO
	s.create("/lookup-items", map[string]any{
		"code": "MARRIED", "domainId": domain.ID, "label": "Married", "status": "ACTIVE",
		"extraJson": map[string]any{"legacyCode": "M", "weight": 2},
	}, &root)
	s.Equal(map[string]any{"legacyCode": "M", "weight": float64(2)}, map[string]any(root.ExtraJSON))
	s.Nil(root.Parent)

	var child LookupItemDTO
	s.create("/lookup-items", map[string]any{
		"code": "CIVIL_UNION", "domainId": domain.ID, "label": "Civil union", "status": "ACTIVE",
		"sortOrder": 1, "parentItemId": root.ID,
	}, &child)
	s.Require().NotNil(child.Parent)
	s.Equal(root.ID, child.Parent.ID)
	s.Nil(child.Parent.Parent)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/lookup-items/"+root.ID.String()+"/children"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	children := testutil.UnmarshalResponse[query.Page[LookupItemDTO]](s.T(), rr)
	s.Require().Len(children.Content, 1)
	s.Equal(child.ID, children.Content[0].ID)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/lookup-items/domain/"+domain.ID.String()+"?sort=sortOrder,desc"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	items := testutil.UnmarshalResponse[query.Page[LookupItemDTO]](s.T(), rr)
	s.Require().Len(items.Content, 2)
	s.Equal("CIVIL_UNION", items.Content[0].Code)
}

func (s *RegistrySuite) TestDocumentTemplateVariables() {
	var kind DocumentTemplateType
	s.create("/document-template-types", map[string]any{"code": "LETTER", "name": "Letter", "status": "ACTIVE"}, &kind)

	var tpl DocumentTemplateDTO
	s.create("/document-templates", map[string]any{
		"code": "WELCOME", "name": "Welcome", "templateTypeId": kind.ID, "content": "Hello {{name}}",
		"templateVariables": map[string]any{"name": "string"}, "status": "ACTIVE",
	}, &tpl)
	s.Equal(map[string]any{"name": "string"}, map[string]any(tpl.TemplateVariables))
	s.Require().NotNil(tpl.TemplateType)
	s.Equal("LETTER", tpl.TemplateType.Code)
}

func (s *RegistrySuite) TestUnknownIDIsNotFound() {
	for _, m := range s.registry.Modules() {
		resp := s.do(http.MethodGet, "/"+m.Name()+"/"+uuid.NewString(), nil)
		s.Equal(http.StatusNotFound, resp.StatusCode, m.Name())
		_ = resp.Body.Close()
	}
}

func decode(r io.Reader, dst any) error {
	return json.NewDecoder(r).Decode(dst)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
