// Package testutils provides test doubles shared by the pipeline packages.
package testutils

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
)

// Context returns a background context carrying a logger, the way every
// component expects to receive it.
func Context() context.Context {
	return logger.New().WithContext(context.Background())
}

// Call is a recorded invocation of FakeRunner.
type Call struct {
	Name string
	Args []string
}

// HandlerFunc scripts the result of a fake command.
type HandlerFunc func(args []string) (*shell.Result, error)

// FakeRunner is a shell.Runner that never starts a process. Tools listed in
// Missing are reported as unavailable; tools without a handler succeed with
// empty output.
type FakeRunner struct {
	mu       sync.Mutex
	Missing  map[string]bool
	Handlers map[string]HandlerFunc
	Calls    []Call
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Missing:  map[string]bool{},
		Handlers: map[string]HandlerFunc{},
	}
}

// Handle registers fn for the named tool and returns the runner for chaining.
func (f *FakeRunner) Handle(name string, fn HandlerFunc) *FakeRunner {
	f.Handlers[name] = fn
	return f
}

// Output makes the named tool print stdout and exit with status 0.
func (f *FakeRunner) Output(name, stdout string) *FakeRunner {
	return f.Handle(name, func([]string) (*shell.Result, error) {
		return &shell.Result{Stdout: stdout}, nil
	})
}

// Fail makes the named tool print stderr and exit with status 1.
func (f *FakeRunner) Fail(name, stderr string) *FakeRunner {
	return f.Handle(name, func([]string) (*shell.Result, error) {
		return &shell.Result{ExitCode: 1, Stderr: stderr}, nil
	})
}

// Uninstall marks the given tools as not installed.
func (f *FakeRunner) Uninstall(names ...string) *FakeRunner {
	for _, n := range names {
		f.Missing[n] = true
	}
	return f
}

func (f *FakeRunner) Available(name string) bool {
	return !f.Missing[name]
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) (*shell.Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, Call{Name: name, Args: append([]string{}, args...)})
	fn := f.Handlers[name]
	f.mu.Unlock()

	if f.Missing[name] {
		return nil, errors.WithStack(errcodes.ToolUnavailable(name))
	}
	if fn == nil {
		return &shell.Result{}, nil
	}
	return fn(args)
}

// CallCount returns how many times the named tool was run.
func (f *FakeRunner) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}
