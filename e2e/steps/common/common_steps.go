package common

import (
	"context"
	"fmt"
	"net/http"

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

// RegisterSteps registers request and response assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is healthy$`, steps.serviceIsHealthy)
	ctx.Step(`^I am authorized to write reference data$`, steps.authorize)

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I DELETE "([^"]*)"$`, steps.delete)
	ctx.Step(`^I POST to "([^"]*)" with:$`, steps.post)
	ctx.Step(`^I PUT to "([^"]*)" with:$`, steps.put)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be absent$`, steps.fieldShouldBeAbsent)
	ctx.Step(`^the response should list (\d+) records?$`, steps.shouldList)
	ctx.Step(`^I remember the response field "([^"]*)" as "([^"]*)"$`, steps.remember)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsHealthy(ctx context.Context) error {
	if err := s.tc.Do(http.MethodGet, "/healthz", nil); err != nil {
		return err
	}
	return s.statusShouldBe(ctx, http.StatusOK)
}

func (s *commonSteps) authorize(ctx context.Context) error {
	s.tc.Authorize()
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.Do(http.MethodGet, path, nil)
}

func (s *commonSteps) delete(ctx context.Context, path string) error {
	return s.tc.Do(http.MethodDelete, path, nil)
}

func (s *commonSteps) post(ctx context.Context, path string, body *godog.DocString) error {
	return s.tc.Do(http.MethodPost, path, []byte(body.Content))
}

func (s *commonSteps) put(ctx context.Context, path string, body *godog.DocString) error {
	return s.tc.Do(http.MethodPut, path, []byte(body.Content))
}

func (s *commonSteps) statusShouldBe(ctx context.Context, status int) error {
	if got := s.tc.LastStatus(); got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, path, want string) error {
	v, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	want = s.tc.Expand(want)
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s to be %q, got %q", path, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeAbsent(ctx context.Context, path string) error {
	if v, err := s.tc.Field(path); err == nil && v != nil {
		return fmt.Errorf("expected %s to be absent, got %v", path, v)
	}
	return nil
}

func (s *commonSteps) shouldList(ctx context.Context, n int) error {
	v, err := s.tc.Field("content")
	if err != nil {
		return err
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("content is not a list")
	}
	if len(items) != n {
		return fmt.Errorf("expected %d records, got %d", n, len(items))
	}
	return nil
}

func (s *commonSteps) remember(ctx context.Context, path, name string) error {
	v, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	s.tc.Remember(name, fmt.Sprint(v))
	return nil
}
