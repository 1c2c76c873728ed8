package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Authorize()
	Do(method, path string, body []byte) error
	LastStatus() int
	LastBody() []byte
	Field(path string) (any, error)
	Remember(name, value string)
	Expand(s string) string
}

// RegisterSteps registers steps that set up reference records. Setup steps
// tolerate records left behind by earlier runs.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &referenceSteps{tc: tc}

	ctx.Step(`^a country "([^"]*)" named "([^"]*)" in region "([^"]*)" exists$`, steps.countryExists)
	ctx.Step(`^a lookup domain "([^"]*)" named "([^"]*)" exists$`, steps.lookupDomainExists)
	ctx.Step(`^a lookup item "([^"]*)" labelled "([^"]*)" in domain "([^"]*)" exists$`, steps.lookupItemExists)
	ctx.Step(`^a lookup item "([^"]*)" labelled "([^"]*)" under "([^"]*)" in domain "([^"]*)" exists$`, steps.childLookupItemExists)
	ctx.Step(`^a consent "([^"]*)" of type "([^"]*)" exists$`, steps.consentExists)
}

type referenceSteps struct {
	tc TestContext
}

// ensure creates the record or, on conflict, loads the existing one by code.
// The record id is remembered under the expanded code.
func (s *referenceSteps) ensure(module, code string, body map[string]any) error {
	s.tc.Authorize()
	code = s.tc.Expand(code)
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if err := s.tc.Do(http.MethodPost, "/"+module, payload); err != nil {
		return err
	}
	switch s.tc.LastStatus() {
	case http.StatusCreated:
	case http.StatusConflict:
		if err := s.tc.Do(http.MethodGet, "/"+module+"/code/"+code, nil); err != nil {
			return err
		}
		if s.tc.LastStatus() != http.StatusOK {
			return fmt.Errorf("%s %s exists but cannot be read: %d %s", module, code, s.tc.LastStatus(), s.tc.LastBody())
		}
	default:
		return fmt.Errorf("creating %s %s: %d %s", module, code, s.tc.LastStatus(), s.tc.LastBody())
	}

	id, err := s.tc.Field("id")
	if err != nil {
		return err
	}
	s.tc.Remember(strings.ToLower(code), fmt.Sprint(id))
	return nil
}

// ref resolves the id remembered for a code created earlier in the scenario.
func (s *referenceSteps) ref(code string) string {
	return s.tc.Expand("{{" + strings.ToLower(s.tc.Expand(code)) + "}}")
}

func (s *referenceSteps) countryExists(ctx context.Context, iso, name, region string) error {
	return s.ensure("countries", iso, map[string]any{
		"isoCode":     iso,
		"countryName": name,
		"region":      region,
		"status":      "ACTIVE",
	})
}

func (s *referenceSteps) lookupDomainExists(ctx context.Context, code, name string) error {
	return s.ensure("lookup-domains", code, map[string]any{
		"code":   s.tc.Expand(code),
		"name":   name,
		"status": "ACTIVE",
	})
}

func (s *referenceSteps) lookupItemExists(ctx context.Context, code, label, domain string) error {
	return s.ensure("lookup-items", code, map[string]any{
		"code":     s.tc.Expand(code),
		"label":    label,
		"domainId": s.ref(domain),
		"status":   "ACTIVE",
	})
}

func (s *referenceSteps) childLookupItemExists(ctx context.Context, code, label, parent, domain string) error {
	return s.ensure("lookup-items", code, map[string]any{
		"code":         s.tc.Expand(code),
		"label":        label,
		"sortOrder":    1,
		"parentItemId": s.ref(parent),
		"domainId":     s.ref(domain),
		"status":       "ACTIVE",
	})
}

func (s *referenceSteps) consentExists(ctx context.Context, code, kind string) error {
	return s.ensure("consents", code, map[string]any{
		"code":        s.tc.Expand(code),
		"name":        code,
		"consentType": s.tc.Expand(kind),
		"version":     1,
		"status":      "ACTIVE",
	})
}
