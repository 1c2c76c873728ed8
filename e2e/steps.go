// Package e2e drives a running refdata service through Gherkin scenarios.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"refdata/e2e/steps/common"
	"refdata/e2e/steps/reference"
)

// TestContext holds the HTTP client and the state one scenario builds up.
type TestContext struct {
	BaseURL    string
	WriteToken string

	client     *http.Client
	authorized bool
	status     int
	body       []byte
	saved      map[string]string
}

func NewTestContext(baseURL, writeToken string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		WriteToken: writeToken,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.authorized = false
	tc.status = 0
	tc.body = nil
	tc.saved = make(map[string]string)
}

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	reference.RegisterSteps(ctx, tc)
}

func (tc *TestContext) Authorize() {
	tc.authorized = true
}

// Expand replaces {{name}} with remembered values.
func (tc *TestContext) Expand(s string) string {
	for name, value := range tc.saved {
		s = strings.ReplaceAll(s, "{{"+name+"}}", value)
	}
	return s
}

func (tc *TestContext) Remember(name, value string) {
	tc.saved[name] = value
}

func (tc *TestContext) Do(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader([]byte(tc.Expand(string(body))))
	}
	req, err := http.NewRequest(method, tc.BaseURL+tc.Expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.authorized && tc.WriteToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.WriteToken)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.status = resp.StatusCode
	tc.body, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) LastStatus() int {
	return tc.status
}

func (tc *TestContext) LastBody() []byte {
	return tc.body
}

// Field reads a dotted path such as "content.0.code" from the last JSON
// response.
func (tc *TestContext) Field(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.body, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w: %s", err, tc.body)
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.body)
			}
			cur = v
		case []any:
			var i int
			if _, err := fmt.Sscanf(part, "%d", &i); err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %s", part, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("field %q not found in %s", path, tc.body)
		}
	}
	return cur, nil
}
