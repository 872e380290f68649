package prepare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/pcm"
	"github.com/alnah/speechdataset/internal/segment"
)

// Raw corpus file suffixes.
const (
	suffixWave    = ".wav"
	suffixFeature = ".feature.npy"
	suffixLabel   = ".label.npy"
)

// Corpus reads raw items from a directory laid out as
//
//	{root}/{speaker}/{name}.wav
//	{root}/{speaker}/{name}.feature.npy
//	{root}/{speaker}/{name}.label.npy
type Corpus struct {
	root string
}

// NewCorpus creates a Corpus rooted at dir.
func NewCorpus(dir string) *Corpus {
	return &Corpus{root: dir}
}

// Discover lists every item that has a waveform, sorted by speaker then name.
func (c *Corpus) Discover() ([]dataset.ItemID, error) {
	speakers, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("cannot read corpus: %w", err)
	}

	var ids []dataset.ItemID
	for _, spk := range speakers {
		if !spk.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(c.root, spk.Name()))
		if err != nil {
			return nil, fmt.Errorf("cannot read speaker %s: %w", spk.Name(), err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), suffixWave) {
				continue
			}
			ids = append(ids, dataset.ItemID{
				Subtype: dataset.DefaultSubtype,
				Speaker: spk.Name(),
				Name:    strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			})
		}
	}

	slices.SortFunc(ids, func(a, b dataset.ItemID) int {
		if n := strings.Compare(a.Speaker, b.Speaker); n != 0 {
			return n
		}
		return strings.Compare(a.Name, b.Name)
	})
	return ids, nil
}

// Load reads the waveform, feature and label of one item.
func (c *Corpus) Load(ctx context.Context, id dataset.ItemID) (dataset.Item, error) {
	if err := ctx.Err(); err != nil {
		return dataset.Item{}, err
	}

	base := filepath.Join(c.root, id.Speaker, id.Name)

	wave, err := loadMonoWAV(base + suffixWave)
	if err != nil {
		return dataset.Item{}, err
	}

	feat, err := loadTyped[float64](base + suffixFeature)
	if err != nil {
		return dataset.Item{}, err
	}

	label, err := loadTyped[int64](base + suffixLabel)
	if err != nil {
		return dataset.Item{}, err
	}

	return dataset.Item{Wave: wave, Feature: feat, Label: label}, nil
}

func loadMonoWAV(path string) (segment.Series[float32], error) {
	f, err := os.Open(path) // #nosec G304 -- path from Discover
	if err != nil {
		return segment.Series[float32]{}, err
	}
	defer func() { _ = f.Close() }()

	w, err := pcm.ReadWAV(f)
	if err != nil {
		return segment.Series[float32]{}, fmt.Errorf("%s: %w", path, err)
	}
	if w.Channels() != 1 {
		return segment.Series[float32]{}, fmt.Errorf("%s: %w: %d channels", path, ErrNotMono, w.Channels())
	}
	return w.Samples, nil
}

func loadTyped[T any](path string) (segment.Series[T], error) {
	seq, err := dataset.LoadSeries(path)
	if err != nil {
		return segment.Series[T]{}, err
	}
	s, ok := segment.As[T](seq)
	if !ok {
		var zero T
		return segment.Series[T]{}, fmt.Errorf("%s: %w: want %T, got %T", path, dataset.ErrSchemaMismatch, zero, seq)
	}
	return s, nil
}
