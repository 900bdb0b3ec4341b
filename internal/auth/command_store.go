package auth

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fivetwenty-io/dirapi/internal/constants"
)

// CommandStore runs an external helper to fetch a secret. The helper is
// invoked as `<command> <args...> <location> <name>` and must print the
// secret on stdout.
type CommandStore struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewCommandStore creates a command backed secret store.
func NewCommandStore(command string, args []string) *CommandStore {
	normalized := make([]string, 0, len(args))

	for _, arg := range args {
		trimmed := strings.TrimSpace(arg)
		if trimmed == "" {
			continue
		}

		normalized = append(normalized, trimmed)
	}

	return &CommandStore{
		Command: strings.TrimSpace(command),
		Args:    normalized,
		Timeout: constants.DefaultSecretStoreTimeout,
	}
}

// Name returns "command".
func (s *CommandStore) Name() string {
	return constants.SecureStorageCommand
}

// Lookup runs the helper and returns its trimmed stdout.
func (s *CommandStore) Lookup(ctx context.Context, location, name string) (string, error) {
	if s.Command == "" {
		return "", constants.ErrStoreCommandRequired
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultSecretStoreTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{}, s.Args...)
	if location != "" {
		args = append(args, location)
	}

	args = append(args, name)

	var stdout, stderr bytes.Buffer

	// #nosec G204 -- the helper command is explicit operator configuration.
	cmd := exec.CommandContext(ctx, s.Command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %s after %s", constants.ErrSecretStoreTimedOut, s.Command, timeout)
	}

	if err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", constants.ErrSecretStoreCommand, s.Command, err, strings.TrimSpace(stderr.String()))
	}

	value := strings.TrimSpace(stdout.String())
	if value == "" {
		return "", fmt.Errorf("%w: %s", constants.ErrSecretStoreEmpty, s.Command)
	}

	return value, nil
}
