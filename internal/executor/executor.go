package executor

import (
	"context"
	"io"
	"os/exec"
	"sync"
)

// CommandExecutor is an interface for executing system commands
type CommandExecutor interface {
	// Execute runs a command and returns its combined output
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream runs a command with stdout and stderr copied to w as they are produced
	Stream(ctx context.Context, w io.Writer, name string, args ...string) error

	// LookPath searches for an executable in the directories named by the PATH
	LookPath(file string) (string, error)
}

// SystemExecutor implements CommandExecutor using os/exec
type SystemExecutor struct{}

// NewSystemExecutor creates a new SystemExecutor
func NewSystemExecutor() *SystemExecutor {
	return &SystemExecutor{}
}

// Execute runs a command and returns combined output.
// The process is killed when ctx is done.
func (e *SystemExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Stream runs a command writing its output to w
func (e *SystemExecutor) Stream(ctx context.Context, w io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}

// LookPath searches for an executable
func (e *SystemExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// MockExecutor is a mock implementation for testing
type MockExecutor struct {
	ExecuteFunc  func(name string, args ...string) ([]byte, error)
	LookPathFunc func(file string) (string, error)
	Calls        []CommandCall

	mu sync.Mutex
}

// CommandCall records a command execution for verification
type CommandCall struct {
	Name string
	Args []string
}

func (m *MockExecutor) record(name string, args []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, CommandCall{Name: name, Args: args})
}

// Execute calls the mock function
func (m *MockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.record(name, args)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(name, args...)
	}
	return []byte(""), nil
}

// Stream calls the mock function and writes its output to w
func (m *MockExecutor) Stream(ctx context.Context, w io.Writer, name string, args ...string) error {
	out, err := m.Execute(ctx, name, args...)
	if len(out) > 0 && w != nil {
		_, _ = w.Write(out)
	}
	return err
}

// LookPath calls the mock function
func (m *MockExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}
