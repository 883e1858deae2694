package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// RegisterCommonSteps registers command execution and assertion steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a mapping table file "([^"]*)" with:$`, testCtx.aFileWith)
	sc.Step(`^a fragments file "([^"]*)" with:$`, testCtx.aFileWith)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aFileWith)
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON output should have field "([^"]*)" with value (-?[0-9.]+)$`, testCtx.theJSONFieldShouldHaveValue)
	sc.Step(`^the JSON output should list "([^"]*)" as unresolved$`, testCtx.theJSONShouldListUnresolved)
}

// aFileWith writes a docstring to a file in the scenario temp directory.
func (testCtx *TestContext) aFileWith(name string, content *godog.DocString) error {
	path := testCtx.TempFile(name)
	return os.WriteFile(path, []byte(content.Content), 0o600)
}

// substituteCommandVariables replaces placeholders in commands with
// scenario-specific paths.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	command = strings.ReplaceAll(command, "${TMPDIR}", testCtx.TempDir)
	if bin := os.Getenv("FIELDMARK_BIN"); bin != "" {
		command = strings.ReplaceAll(command, "fieldmark ", bin+" ")
	}
	return command
}

// iRunCommand executes a CLI command and captures its output.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = testCtx.WorkingDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	output, err := cmd.CombinedOutput()
	testCtx.LastOutput = string(output)
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}

	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// extractJSON finds the JSON document in the command output, skipping
// any log lines that may precede it.
func (testCtx *TestContext) extractJSON() (map[string]interface{}, error) {
	output := strings.TrimSpace(testCtx.LastOutput)

	jsonStart := strings.IndexAny(output, "{[")
	if jsonStart < 0 {
		return nil, fmt.Errorf("no JSON found in output: %s", output)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(output[jsonStart:]), &doc); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, output)
	}
	return doc, nil
}

// theOutputShouldBeValidJSON verifies the output parses as JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.extractJSON()
	return err
}

// theJSONFieldShouldHaveValue checks a resolved field's extracted value.
func (testCtx *TestContext) theJSONFieldShouldHaveValue(fieldKey, expected string) error {
	doc, err := testCtx.extractJSON()
	if err != nil {
		return err
	}

	// Server responses nest the result one level down.
	if result, ok := doc["result"].(map[string]interface{}); ok {
		doc = result
	}

	fields, ok := doc["fields"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("no fields object in output: %s", testCtx.LastOutput)
	}

	entry, ok := fields[fieldKey].(map[string]interface{})
	if !ok {
		return fmt.Errorf("field %q not resolved\nOutput: %s", fieldKey, testCtx.LastOutput)
	}

	want, err := strconv.ParseFloat(expected, 64)
	if err != nil {
		return fmt.Errorf("expected value %q is not numeric: %w", expected, err)
	}

	got, ok := entry["value"].(float64)
	if !ok {
		return fmt.Errorf("field %q has non-numeric value %v", fieldKey, entry["value"])
	}

	if got != want {
		return fmt.Errorf("field %q: expected %v, got %v", fieldKey, want, got)
	}
	return nil
}

// theJSONShouldListUnresolved checks the diagnostics unresolved list.
func (testCtx *TestContext) theJSONShouldListUnresolved(fieldKey string) error {
	doc, err := testCtx.extractJSON()
	if err != nil {
		return err
	}

	diags, ok := doc["diagnostics"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("no diagnostics object in output: %s", testCtx.LastOutput)
	}

	unresolved, _ := diags["unresolved"].([]interface{})
	for _, u := range unresolved {
		if u == fieldKey {
			return nil
		}
	}
	return fmt.Errorf("field %q not listed as unresolved\nOutput: %s", fieldKey, testCtx.LastOutput)
}
