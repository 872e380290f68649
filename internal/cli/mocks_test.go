package cli

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/alnah/speechdataset/internal/config"
	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/prepare"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock random source factory
// ---------------------------------------------------------------------------

// mockRandSource records the seeds it is asked for and returns a seeded PCG,
// or SourceFunc's result when set.
type mockRandSource struct {
	SourceFunc func(seed uint64) rand.Source

	mu    sync.Mutex
	seeds []uint64
}

func (m *mockRandSource) New(seed uint64) rand.Source {
	m.mu.Lock()
	m.seeds = append(m.seeds, seed)
	m.mu.Unlock()

	if m.SourceFunc != nil {
		return m.SourceFunc(seed)
	}
	return newPCG(seed)
}

func (m *mockRandSource) Seeds() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.seeds...)
}

// ---------------------------------------------------------------------------
// Mock CorpusFactory
// ---------------------------------------------------------------------------

// mockCorpusFactory opens real corpora on disk. LoadHook, when set, runs
// before each Load with the 1-based call number; a non-nil error is
// returned in place of the item.
type mockCorpusFactory struct {
	LoadHook func(ctx context.Context, call int) error

	mu    sync.Mutex
	loads int
}

func (m *mockCorpusFactory) NewCorpus(dir string) Corpus {
	return &hookedCorpus{Corpus: prepare.NewCorpus(dir), factory: m}
}

func (m *mockCorpusFactory) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

type hookedCorpus struct {
	*prepare.Corpus
	factory *mockCorpusFactory
}

func (c *hookedCorpus) Load(ctx context.Context, id dataset.ItemID) (dataset.Item, error) {
	c.factory.mu.Lock()
	c.factory.loads++
	call := c.factory.loads
	c.factory.mu.Unlock()

	if c.factory.LoadHook != nil {
		if err := c.factory.LoadHook(ctx, call); err != nil {
			return dataset.Item{}, err
		}
	}
	return c.Corpus.Load(ctx, id)
}

// Compile-time interface verification.
var (
	_ ConfigLoader  = (*mockConfigLoader)(nil)
	_ CorpusFactory = (*mockCorpusFactory)(nil)
	_ Corpus        = (*hookedCorpus)(nil)
)
