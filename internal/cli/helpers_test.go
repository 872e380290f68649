package cli

import (
	"bytes"
	"context"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/speechdataset/internal/config"
	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/interrupt"
	"github.com/alnah/speechdataset/internal/pcm"
	"github.com/alnah/speechdataset/internal/segment"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnvOptions configures a test environment.
type testEnvOptions struct {
	getenv func(string) string
	now    func() time.Time
	config *mockConfigLoader
	rand   *mockRandSource
	corpus *mockCorpusFactory
}

// testEnvOption configures testEnv.
type testEnvOption func(*testEnvOptions)

func withTestConfig(cfg config.Config) testEnvOption {
	return func(o *testEnvOptions) {
		o.config = configWith(cfg)
	}
}

func withTestCorpus(f *mockCorpusFactory) testEnvOption {
	return func(o *testEnvOptions) {
		o.corpus = f
	}
}

func withTestGetenv(env map[string]string) testEnvOption {
	return func(o *testEnvOptions) {
		o.getenv = staticEnv(env)
	}
}

// testEnv creates a test Env with every dependency mocked.
// Returns the Env and its stdout and stderr buffers.
func testEnv(opts ...testEnvOption) (*Env, *syncBuffer, *syncBuffer) {
	options := &testEnvOptions{
		getenv: staticEnv(nil),
		now:    fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		config: &mockConfigLoader{},
		rand:   &mockRandSource{},
		corpus: &mockCorpusFactory{},
	}
	for _, opt := range opts {
		opt(options)
	}

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := &Env{
		Stdout:        stdout,
		Stderr:        stderr,
		Getenv:        options.getenv,
		Now:           options.now,
		ConfigLoader:  options.config,
		CorpusFactory: options.corpus,
		RandSource:    options.rand.New,
		Interrupts:    noInterrupts,
	}
	return env, stdout, stderr
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// noInterrupts returns a handler that never observes a signal.
func noInterrupts(ctx context.Context) (*interrupt.Handler, context.Context) {
	return interrupt.NewHandlerWithOptions(ctx, interrupt.Options{})
}

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// configWith returns a ConfigLoader that returns cfg.
func configWith(cfg config.Config) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			return cfg, nil
		},
	}
}

// execute runs cmd with args and returns its error.
func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// writeNpy saves seq under dir and returns the path.
func writeNpy(t *testing.T, dir, name string, seq segment.Sequence) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := dataset.SaveSeries(path, seq); err != nil {
		t.Fatalf("SaveSeries(%s) failed: %v", name, err)
	}
	return path
}

// writeWav saves a mono 16-bit WAV under dir and returns the path.
func writeWav(t *testing.T, dir, name string, samples []int16, rate int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer func() { _ = f.Close() }()
	if err := pcm.WriteWAV(f, segment.NewSeries(samples), rate); err != nil {
		t.Fatalf("WriteWAV(%s) failed: %v", name, err)
	}
	return path
}

// readNpy loads a series written by a command.
func readNpy[T any](t *testing.T, path string) segment.Series[T] {
	t.Helper()
	seq, err := dataset.LoadSeries(path)
	if err != nil {
		t.Fatalf("LoadSeries(%s) failed: %v", path, err)
	}
	s, ok := segment.As[T](seq)
	if !ok {
		t.Fatalf("LoadSeries(%s) returned %T", path, seq)
	}
	return s
}

// ramp returns [0, 1, ..., n-1] as T.
func ramp[T float32 | float64 | int64](n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = T(i)
	}
	return out
}

// fixedSource is a rand.Source that replays one value.
type fixedSource uint64

func (s fixedSource) Uint64() uint64 { return uint64(s) }

var _ rand.Source = fixedSource(0)
