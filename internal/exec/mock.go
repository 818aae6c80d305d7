package exec

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MockResponse is the canned result of a mocked command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// MockCall records one command the mock executor received.
type MockCall struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call the way it would be typed in a shell.
func (c MockCall) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type matcher struct {
	name  string
	args  []string
	exact bool
	resp  MockResponse
}

// MockExecutor answers commands from registered matchers.
// The longest matching argument prefix wins; exact matches beat prefixes.
type MockExecutor struct {
	mu       sync.Mutex
	matchers []matcher
	calls    []MockCall
	fallback CommandExecutor
	paths    map[string]string
}

// NewMockExecutor creates a mock. Unmatched commands go to fallback, or fail
// when fallback is nil.
func NewMockExecutor(fallback CommandExecutor) *MockExecutor {
	return &MockExecutor{fallback: fallback, paths: make(map[string]string)}
}

// AddPrefixMatch answers any name invocation whose args start with argsPrefix.
func (m *MockExecutor) AddPrefixMatch(name string, argsPrefix []string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchers = append(m.matchers, matcher{name: name, args: argsPrefix, resp: resp})
}

// AddExactMatch answers only name invocations with exactly args.
func (m *MockExecutor) AddExactMatch(name string, args []string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchers = append(m.matchers, matcher{name: name, args: args, exact: true, resp: resp})
}

// SetPath makes LookPath(name) succeed with path.
func (m *MockExecutor) SetPath(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[name] = path
}

// Calls returns a copy of every call received so far.
func (m *MockExecutor) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func (m *MockExecutor) find(name string, args []string) (MockResponse, bool) {
	best := -1
	bestLen := -1
	for i, mt := range m.matchers {
		if mt.name != name {
			continue
		}
		if mt.exact {
			if slices.Equal(mt.args, args) {
				return mt.resp, true
			}
			continue
		}
		if len(mt.args) <= len(args) && slices.Equal(mt.args, args[:len(mt.args)]) && len(mt.args) > bestLen {
			best, bestLen = i, len(mt.args)
		}
	}
	if best < 0 {
		return MockResponse{}, false
	}
	return m.matchers[best].resp, true
}

// Run implements CommandExecutor.
func (m *MockExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Dir: dir, Name: name, Args: slices.Clone(args)})
	resp, ok := m.find(name, args)
	m.mu.Unlock()

	if ok {
		return resp.Stdout, resp.Stderr, resp.Err
	}
	if m.fallback != nil {
		return m.fallback.Run(ctx, dir, name, args...)
	}
	return nil, nil, fmt.Errorf("mock executor: unexpected command %q", MockCall{Name: name, Args: args})
}

// Output implements CommandExecutor.
func (m *MockExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	stdout, _, err := m.Run(ctx, dir, name, args...)
	return stdout, err
}

// LookPath implements CommandExecutor.
func (m *MockExecutor) LookPath(name string) (string, error) {
	m.mu.Lock()
	path, ok := m.paths[name]
	m.mu.Unlock()
	if ok {
		return path, nil
	}
	if m.fallback != nil {
		return m.fallback.LookPath(name)
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}
