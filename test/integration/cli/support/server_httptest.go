package support

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/MeKo-Tech/fieldmark/internal/server"
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// startTestHTTPServer starts an in-process server with the given mapping file.
func (testCtx *TestContext) startTestHTTPServer(mappingFile string) error {
	srv, err := server.NewServer(server.Config{
		CORSOrigin:  "*",
		MaxBodyMB:   10,
		TimeoutSec:  30,
		MappingFile: mappingFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(mux),
		TestServer: srv,
	}
	return nil
}

// stopTestHTTPServer shuts down the in-process server.
func (testCtx *TestContext) stopTestHTTPServer() error {
	if testCtx.HTTPTestServer == nil {
		return nil
	}
	testCtx.HTTPTestServer.Server.Close()
	err := testCtx.HTTPTestServer.TestServer.Close()
	testCtx.HTTPTestServer = nil
	return err
}

// doRequest performs an HTTP request against the in-process server and
// records the response.
func (testCtx *TestContext) doRequest(method, path, contentType string, body []byte) error {
	if testCtx.HTTPTestServer == nil {
		return fmt.Errorf("no test server running")
	}

	url := testCtx.HTTPTestServer.Server.URL + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body)) //nolint:noctx // short-lived test request
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastOutput = string(data)
	return nil
}

// serverURLPath normalizes a path for requests.
func serverURLPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
