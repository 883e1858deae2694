package support

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	WorkingDir string
	TempDir    string
	EnvVars    []string

	// Server management
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string

	// Test artifacts
	CreatedFiles []string
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Tests may run from a subdirectory; walk up to the project root.
	currentDir := workingDir
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "go.mod")); err == nil {
			workingDir = currentDir
			break
		}
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}

	tempDir, err := os.MkdirTemp("", "fieldmark-integration-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		WorkingDir: workingDir,
		TempDir:    tempDir,
	}, nil
}

// AddEnvVar records an environment variable for subsequent commands.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, name+"="+value)
}

// TempFile returns a path inside the scenario temp directory and records it.
func (testCtx *TestContext) TempFile(name string) string {
	path := filepath.Join(testCtx.TempDir, name)
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, path)
	return path
}

// Cleanup removes scenario artifacts and stops any running server.
func (testCtx *TestContext) Cleanup() error {
	if err := testCtx.StopServer(); err != nil {
		return err
	}

	if testCtx.TempDir != "" {
		if err := os.RemoveAll(testCtx.TempDir); err != nil {
			return fmt.Errorf("failed to remove temp directory: %w", err)
		}
	}
	return nil
}

// StopServer stops the running in-process server, if any.
func (testCtx *TestContext) StopServer() error {
	if testCtx.HTTPTestServer != nil {
		return testCtx.stopTestHTTPServer()
	}
	return nil
}
