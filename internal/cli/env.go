package cli

import (
	"context"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/alnah/speechdataset/internal/config"
	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/interrupt"
	"github.com/alnah/speechdataset/internal/prepare"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	ConfigLoader  ConfigLoader
	CorpusFactory CorpusFactory
	// RandSource builds the random source for a seed. Used by "clip" when no
	// start is given.
	RandSource func(seed uint64) rand.Source
	// Interrupts subscribes "prepare" to Ctrl+C. The returned context is
	// canceled on the first interrupt.
	Interrupts func(ctx context.Context) (*interrupt.Handler, context.Context)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// Corpus lists and loads the raw items of a corpus directory.
type Corpus interface {
	Discover() ([]dataset.ItemID, error)
	prepare.Loader
}

// CorpusFactory opens corpora for "prepare".
type CorpusFactory interface {
	NewCorpus(dir string) Corpus
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithCorpusFactory sets the corpus factory.
func WithCorpusFactory(f CorpusFactory) EnvOption {
	return func(e *Env) {
		e.CorpusFactory = f
	}
}

// WithRandSource sets the random source factory.
func WithRandSource(fn func(seed uint64) rand.Source) EnvOption {
	return func(e *Env) {
		e.RandSource = fn
	}
}

// WithInterrupts sets the interrupt handler factory.
func WithInterrupts(fn func(ctx context.Context) (*interrupt.Handler, context.Context)) EnvOption {
	return func(e *Env) {
		e.Interrupts = fn
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Getenv:        os.Getenv,
		Now:           time.Now,
		ConfigLoader:  &defaultConfigLoader{},
		CorpusFactory: &defaultCorpusFactory{},
		RandSource:    newPCG,
		Interrupts:    interrupt.NewHandler,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// newPCG seeds a PCG generator. The second word is fixed so a seed alone
// reproduces a draw.
func newPCG(seed uint64) rand.Source {
	return rand.NewPCG(seed, 0x9e3779b97f4a7c15)
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultCorpusFactory opens corpus directories with the prepare package.
type defaultCorpusFactory struct{}

func (defaultCorpusFactory) NewCorpus(dir string) Corpus {
	return prepare.NewCorpus(dir)
}

// Compile-time interface verification.
var (
	_ ConfigLoader  = (*defaultConfigLoader)(nil)
	_ CorpusFactory = (*defaultCorpusFactory)(nil)
	_ Corpus        = (*prepare.Corpus)(nil)
)
