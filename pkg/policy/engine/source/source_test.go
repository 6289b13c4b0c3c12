package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/janus/pkg/pcl/parser"
	"mercator-hq/janus/pkg/radius/dict"
	"mercator-hq/janus/pkg/radius/value"
)

const policyDoc = `
policies:
  - name: always
    when: {const: true}
  - name: named-user
    when:
      lhs: {attr: User-Name}
      op: "=="
      rhs: {value: alice}
`

func testParser(t *testing.T) *parser.Parser {
	t.Helper()
	d := dict.New()
	d.MustRegister(&dict.Attribute{Name: "User-Name", Number: 1, Type: value.TypeString})
	return parser.NewParser(d)
}

func TestFileSource_LoadSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte(policyDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path, testParser(t), nil)
	policies, err := src.LoadPolicies(context.Background())
	if err != nil {
		t.Fatalf("LoadPolicies() error = %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("LoadPolicies() returned %d policies, want 2", len(policies))
	}
	if policies[0].Name != "always" || policies[1].Name != "named-user" {
		t.Errorf("policy names = %q, %q", policies[0].Name, policies[1].Name)
	}
}

func TestFileSource_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.yaml":   policyDoc,
		"b.yml":    "policies:\n  - name: other\n    when: {const: false}\n",
		"skip.txt": "not a policy",
		"bad.yaml": "policies: [", // invalid YAML, skipped with a warning
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	src := NewFileSource(dir, testParser(t), nil)
	policies, err := src.LoadPolicies(context.Background())
	if err != nil {
		t.Fatalf("LoadPolicies() error = %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("LoadPolicies() returned %d policies, want 3", len(policies))
	}
}

func TestFileSource_MissingPath(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope"), testParser(t), nil)
	if _, err := src.LoadPolicies(context.Background()); err == nil {
		t.Fatal("LoadPolicies() succeeded on a missing path")
	}
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte(policyDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(&WatcherConfig{
		DebounceInterval: 10 * time.Millisecond,
		Extensions:       []string{".yaml"},
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, dir, func() error {
			select {
			case reloaded <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte(policyDoc+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed after file change")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	defer d.stop()

	fired := make(chan struct{}, 10)
	for i := 0; i < 5; i++ {
		d.trigger(func() { fired <- struct{}{} })
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("debounced callback never fired")
	}

	select {
	case <-fired:
		t.Fatal("burst of triggers fired more than once")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	fired := make(chan struct{}, 1)
	d.trigger(func() { fired <- struct{}{} })
	d.stop()

	select {
	case <-fired:
		t.Fatal("stopped debouncer still fired")
	case <-time.After(100 * time.Millisecond):
	}
}
