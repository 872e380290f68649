package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/speechdataset/internal/format"
	"github.com/alnah/speechdataset/internal/pcm"
	"github.com/alnah/speechdataset/internal/segment"
)

// QuantizeCmd creates the quantize command.
// The env parameter provides injectable dependencies for testing.
func QuantizeCmd(env *Env) *cobra.Command {
	var (
		rate  int
		force bool
	)

	cmd := &cobra.Command{
		Use:   "quantize <input> <output.wav>",
		Short: "Convert a unit-scale waveform to 16-bit PCM WAV",
		Long: `Scale a float waveform in [-1, 1) by 32768, round half to even, clip to
the int16 range and write it as a 16-bit PCM WAV file.

The input is a .npy array of float32 or float64, either [time] (mono) or
[channels, time]. A .wav input is re-quantized at its own sample rate.`,
		Example: `  speechdataset quantize generated.npy generated.wav --rate 22050
  speechdataset quantize clip.npy clip.wav`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rateSet := cmd.Flags().Changed("rate")
			return runQuantize(env, args[0], args[1], rate, rateSet, force)
		},
	}

	cmd.Flags().IntVarP(&rate, "rate", "r", defaultSampleRate, "Sample rate of the output WAV")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing output")

	return cmd
}

// runQuantize reads a float series and writes it as s16 PCM.
func runQuantize(env *Env, inputPath, outputPath string, rate int, rateSet, force bool) error {
	if ext := strings.ToLower(filepath.Ext(outputPath)); ext != ".wav" {
		return fmt.Errorf("output must be a .wav file, got %q: %w", ext, ErrUnsupportedFormat)
	}

	seq, wavRate, err := loadSeries(inputPath)
	if err != nil {
		return err
	}
	if wavRate > 0 && !rateSet {
		rate = wavRate
	}

	var s16 segment.Series[int16]
	if s, ok := segment.As[float32](seq); ok {
		s16 = pcm.QuantizeSeries(s)
	} else if s, ok := segment.As[float64](seq); ok {
		s16 = pcm.QuantizeSeries(s)
	} else {
		return fmt.Errorf("%s: %w", inputPath, ErrNotFloatSeries)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		flags = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(outputPath, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, outputPath)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		return pcm.WriteWAV(f, s16, rate)
	}()
	if writeErr != nil {
		_ = os.Remove(outputPath)
		return writeErr
	}

	frames := s16.Len()
	fmt.Fprintf(env.Stderr, "Wrote %s (%d channel(s), %d Hz, %s)\n",
		outputPath, s16.Rows(), rate, format.Duration(format.Frames(frames, 1, rate)))
	return nil
}
