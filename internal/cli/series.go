package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/format"
	"github.com/alnah/speechdataset/internal/pcm"
	"github.com/alnah/speechdataset/internal/segment"
)

// supportedFormats lists the series file formats commands read.
var supportedFormats = map[string]bool{
	".npy": true,
	".wav": true,
}

// defaultSampleRate is the base sample rate assumed when reporting durations
// of .npy inputs.
const defaultSampleRate = 16000

// supportedFormatsList returns a sorted, comma-separated list for error messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// seriesInput is one positional path:hop argument after loading.
type seriesInput struct {
	Path       string
	Hop        int
	SampleRate int // 0 unless read from a WAV header
	Seq        segment.Sequence
}

// parseSeriesArg splits "path:hop". The last colon separates the hop so
// paths containing colons still parse.
func parseSeriesArg(arg string) (string, int, error) {
	i := strings.LastIndex(arg, ":")
	if i <= 0 || i == len(arg)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidSeriesArg, arg)
	}
	hop, err := strconv.Atoi(arg[i+1:])
	if err != nil || hop < 1 {
		return "", 0, fmt.Errorf("%w: hop must be a positive integer in %q", ErrInvalidSeriesArg, arg)
	}
	return arg[:i], hop, nil
}

// checkInput verifies that path exists and has a supported extension.
func checkInput(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormats[ext] {
		return fmt.Errorf("unsupported format %q (supported: %s): %w",
			ext, supportedFormatsList(), ErrUnsupportedFormat)
	}
	return nil
}

// loadSeries reads a .npy array or a WAV waveform. WAV files also report
// their sample rate.
func loadSeries(path string) (segment.Sequence, int, error) {
	if err := checkInput(path); err != nil {
		return nil, 0, err
	}

	if strings.ToLower(filepath.Ext(path)) == ".npy" {
		seq, err := dataset.LoadSeries(path)
		return seq, 0, err
	}

	f, err := os.Open(path) // #nosec G304 -- user-specified input file
	if err != nil {
		return nil, 0, fmt.Errorf("cannot open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w, err := pcm.ReadWAV(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return w.Samples, w.SampleRate, nil
}

// loadInputs parses and loads every path:hop argument, in order.
func loadInputs(args []string) ([]seriesInput, error) {
	inputs := make([]seriesInput, 0, len(args))
	for _, arg := range args {
		path, hop, err := parseSeriesArg(arg)
		if err != nil {
			return nil, err
		}
		seq, rate, err := loadSeries(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, seriesInput{Path: path, Hop: hop, SampleRate: rate, Seq: seq})
	}
	return inputs, nil
}

// workingSet pairs every loaded input with its hop.
func workingSet(inputs []seriesInput) ([]segment.SeriesHop, error) {
	set := make([]segment.SeriesHop, len(inputs))
	for i, in := range inputs {
		e, err := segment.NewSeriesHop(in.Seq, in.Hop)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Path, err)
		}
		set[i] = e
	}
	return set, nil
}

// sampleRate returns the first WAV sample rate among inputs, or fallback.
func sampleRate(inputs []seriesInput, fallback int) int {
	for _, in := range inputs {
		if in.SampleRate > 0 {
			return in.SampleRate
		}
	}
	return fallback
}

// deriveOutputPath maps an input to {outDir}/{base}.{tag}.npy.
// Example: ("out", "a/utt1.wav", "aligned") -> "out/utt1.aligned.npy"
func deriveOutputPath(outDir, inputPath, tag string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base+"."+tag+".npy")
}

// writeOutputs saves seqs[i] to paths[i]. Every path and series is checked
// before the first write, and files already written are removed if a later
// write fails, so a failed run leaves no partial output.
func writeOutputs(paths []string, seqs []segment.Sequence, force bool) error {
	seen := make(map[string]bool, len(paths))
	for i, p := range paths {
		if err := dataset.CheckSeries(seqs[i]); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if seen[p] {
			return fmt.Errorf("%w: %s would be written twice", ErrOutputExists, p)
		}
		seen[p] = true

		if force {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("cannot access output file: %w", err)
		}
	}

	for i, p := range paths {
		if err := dataset.SaveSeries(p, seqs[i]); err != nil {
			for _, written := range paths[:i] {
				_ = os.Remove(written)
			}
			return err
		}
	}
	return nil
}

// reportSeries writes one status line per output.
func reportSeries(w io.Writer, paths []string, inputs []seriesInput, seqs []segment.Sequence, rate int) {
	for i, p := range paths {
		in := inputs[i]
		n := seqs[i].Len()
		_, _ = fmt.Fprintf(w, "  %s: %d -> %d frames (hop %d, %s)\n",
			p, in.Seq.Len(), n, in.Hop, format.Duration(format.Frames(n, in.Hop, rate)))
	}
}
