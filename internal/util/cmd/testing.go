package cmd_utils

import (
	"context"
	"strings"
	"sync"
)

// FakeExecutor returns scripted results for tests. Scripts are matched by
// executable path and argument prefix; unmatched invocations fail with a
// recognizable stderr so tests surface missing scripts immediately.
type FakeExecutor struct {
	mu      sync.Mutex
	scripts []fakeScript
	Calls   []Spec
}

type fakeScript struct {
	path        string
	argPrefix   []string
	argContains string
	result      Result
	effect      func(Spec)
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{}
}

// Script registers a canned result for invocations of path whose argument
// list starts with argPrefix. Later registrations win over earlier ones.
func (f *FakeExecutor) Script(path string, argPrefix []string, result Result) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scripts = append(f.scripts, fakeScript{
		path:      path,
		argPrefix: argPrefix,
		result:    result,
	})
}

// ScriptWithEffect is Script plus a callback invoked when the invocation
// matches, letting tests mimic side effects like files a tool would create.
func (f *FakeExecutor) ScriptWithEffect(
	path string,
	argPrefix []string,
	result Result,
	effect func(Spec),
) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scripts = append(f.scripts, fakeScript{
		path:      path,
		argPrefix: argPrefix,
		result:    result,
		effect:    effect,
	})
}

// ScriptContains registers a canned result for invocations of path where
// any argument contains the given substring.
func (f *FakeExecutor) ScriptContains(path, substring string, result Result) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scripts = append(f.scripts, fakeScript{
		path:        path,
		argContains: substring,
		result:      result,
	})
}

func (f *FakeExecutor) Run(_ context.Context, spec Spec) Result {
	f.mu.Lock()
	f.Calls = append(f.Calls, spec)

	var matched *fakeScript
	for i := len(f.scripts) - 1; i >= 0; i-- {
		script := f.scripts[i]
		if script.path != spec.Path {
			continue
		}
		if !hasArgPrefix(spec.Args, script.argPrefix) {
			continue
		}
		if script.argContains != "" && !anyArgContains(spec.Args, script.argContains) {
			continue
		}
		matched = &script
		break
	}
	f.mu.Unlock()

	if matched == nil {
		return Result{
			ExitCode: 127,
			Stderr:   "no scripted result for: " + spec.Path + " " + strings.Join(spec.Args, " "),
		}
	}

	// Effects run unlocked so they may register follow-up scripts.
	if matched.effect != nil {
		matched.effect(spec)
	}
	return matched.result
}

// CallsTo returns the recorded invocations of the given executable.
func (f *FakeExecutor) CallsTo(path string) []Spec {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []Spec
	for _, call := range f.Calls {
		if call.Path == path {
			calls = append(calls, call)
		}
	}
	return calls
}

func anyArgContains(args []string, substring string) bool {
	for _, arg := range args {
		if strings.Contains(arg, substring) {
			return true
		}
	}
	return false
}

func hasArgPrefix(args, prefix []string) bool {
	if len(prefix) > len(args) {
		return false
	}
	for i, p := range prefix {
		if args[i] != p {
			return false
		}
	}
	return true
}
