//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	BaseURL    string
	Token      string
	GroupID    string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		BaseURL:    os.Getenv("DIRAPI_INTEGRATION_BASEURL"),
		Token:      os.Getenv("DIRAPI_INTEGRATION_TOKEN"),
		GroupID:    os.Getenv("DIRAPI_INTEGRATION_GROUP_ID"),
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("DIRAPI_INTEGRATION_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the dirapi binary
func getBinaryPath() string {
	if path := os.Getenv("DIRAPI_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../dirapi",
		"./dirapi",
		"../dirapi",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "dirapi"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.BaseURL == "" || config.Token == "" {
		t.Skip("DIRAPI_INTEGRATION_BASEURL or DIRAPI_INTEGRATION_TOKEN not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("dirapi binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner provides utilities for running dirapi commands
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a dirapi command against the configured tenant and returns
// its output.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(),
		"DIRAPI_BASEURL="+runner.config.BaseURL,
		"DIRAPI_API_TOKEN="+runner.config.Token,
	)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes a command with json output and decodes the result.
func (runner *CommandRunner) RunJSON(out interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	require.NoError(runner.t, err, "command failed: %s", stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), out), "output is not JSON: %s", stdout)
}

// GenerateTestLogin creates a unique test login
func GenerateTestLogin(prefix string) string {
	return fmt.Sprintf("%s-%d@integration.test", prefix, time.Now().Unix())
}
