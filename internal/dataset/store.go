package dataset

import (
	"fmt"

	"github.com/alnah/speechdataset/internal/segment"
)

// Field names of the Item schema. Each field is stored in its own file, see PathFor.
const (
	FieldWave    = "wave"
	FieldFeature = "feature"
	FieldLabel   = "label"
)

// Item is the prepared-data schema: one waveform, one frame-rate feature and
// one label sequence per utterance, all on the same timeline.
type Item struct {
	Wave    segment.Series[float32] // [time]
	Feature segment.Series[float64] // [bins, frames]
	Label   segment.Series[int64]   // [labels]
}

// Hops gives the hop of each Item field in waveform samples.
type Hops struct {
	Wave    int
	Feature int
	Label   int
}

// DefaultHops is a 16 kHz waveform with 10 ms features and 20 ms labels.
var DefaultHops = Hops{Wave: 1, Feature: 160, Label: 320}

// WorkingSet pairs every field with its hop, waveform first.
func (it Item) WorkingSet(h Hops) ([]segment.SeriesHop, error) {
	wave, err := segment.NewSeriesHop(it.Wave, h.Wave)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldWave, err)
	}
	feat, err := segment.NewSeriesHop(it.Feature, h.Feature)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldFeature, err)
	}
	label, err := segment.NewSeriesHop(it.Label, h.Label)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FieldLabel, err)
	}
	return []segment.SeriesHop{wave, feat, label}, nil
}

// ItemFromSequences rebuilds an Item from sequences in WorkingSet order.
func ItemFromSequences(seqs []segment.Sequence) (Item, error) {
	if len(seqs) != 3 {
		return Item{}, fmt.Errorf("%w: want 3 sequences, got %d", ErrSchemaMismatch, len(seqs))
	}
	var (
		it Item
		ok bool
	)
	if it.Wave, ok = segment.As[float32](seqs[0]); !ok {
		return Item{}, fmt.Errorf("%w: %s is %T", ErrSchemaMismatch, FieldWave, seqs[0])
	}
	if it.Feature, ok = segment.As[float64](seqs[1]); !ok {
		return Item{}, fmt.Errorf("%w: %s is %T", ErrSchemaMismatch, FieldFeature, seqs[1])
	}
	if it.Label, ok = segment.As[int64](seqs[2]); !ok {
		return Item{}, fmt.Errorf("%w: %s is %T", ErrSchemaMismatch, FieldLabel, seqs[2])
	}
	return it, nil
}

// Store saves and loads Items under a contents directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at a dataset contents directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the contents directory.
func (s *Store) Root() string { return s.root }

// Path returns the file of one field of an item.
func (s *Store) Path(field string, id ItemID) string {
	return PathFor(s.root, field, id)
}

// Save writes every field of it.
func (s *Store) Save(id ItemID, it Item) error {
	fields := []struct {
		name string
		seq  segment.Sequence
	}{
		{FieldWave, it.Wave},
		{FieldFeature, it.Feature},
		{FieldLabel, it.Label},
	}
	for _, f := range fields {
		if err := SaveSeries(s.Path(f.name, id), f.seq); err != nil {
			return fmt.Errorf("save %s of %s: %w", f.name, id, err)
		}
	}
	return nil
}

// Load reads every field of an item.
func (s *Store) Load(id ItemID) (Item, error) {
	seqs := make([]segment.Sequence, 0, 3)
	for _, name := range []string{FieldWave, FieldFeature, FieldLabel} {
		seq, err := LoadSeries(s.Path(name, id))
		if err != nil {
			return Item{}, fmt.Errorf("load %s of %s: %w", name, id, err)
		}
		seqs = append(seqs, seq)
	}
	it, err := ItemFromSequences(seqs)
	if err != nil {
		return Item{}, fmt.Errorf("load %s: %w", id, err)
	}
	return it, nil
}
