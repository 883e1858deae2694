package support

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterServerSteps registers HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a running server with mapping table "([^"]*)"$`, testCtx.aRunningServerWithMappings)
	sc.Step(`^I POST the fragments file "([^"]*)" to "([^"]*)"$`, testCtx.iPostFragmentsTo)
	sc.Step(`^I PUT the file "([^"]*)" to "([^"]*)"$`, testCtx.iPutFileTo)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGet)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
}

// readTempFile reads a scenario file created by an earlier step.
func (testCtx *TestContext) readTempFile(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(testCtx.TempDir, name)) //nolint:gosec // G304: scenario-controlled path
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", name, err)
	}
	return data, nil
}

func (testCtx *TestContext) aRunningServerWithMappings(name string) error {
	return testCtx.startTestHTTPServer(testCtx.TempFile(name))
}

func (testCtx *TestContext) iPostFragmentsTo(name, path string) error {
	data, err := testCtx.readTempFile(name)
	if err != nil {
		return err
	}

	body := append([]byte(`{"fragments":`), data...)
	body = append(body, '}')
	return testCtx.doRequest(http.MethodPost, serverURLPath(path), "application/json", body)
}

func (testCtx *TestContext) iPutFileTo(name, path string) error {
	data, err := testCtx.readTempFile(name)
	if err != nil {
		return err
	}
	return testCtx.doRequest(http.MethodPut, serverURLPath(path), "application/yaml", data)
}

func (testCtx *TestContext) iGet(path string) error {
	return testCtx.doRequest(http.MethodGet, serverURLPath(path), "", nil)
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d\nResponse: %s",
			status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, expected) {
		return fmt.Errorf("response does not contain %q\nResponse: %s", expected, testCtx.LastHTTPResponse)
	}
	return nil
}
