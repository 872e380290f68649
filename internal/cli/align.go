package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/speechdataset/internal/segment"
)

// AlignCmd creates the align command.
// The env parameter provides injectable dependencies for testing.
func AlignCmd(env *Env) *cobra.Command {
	var (
		minLength int
		outDir    string
		force     bool
		rate      int
	)

	cmd := &cobra.Command{
		Use:   "align <file:hop>...",
		Short: "Length-match series sampled at different rates",
		Long: `Trim every series to the longest whole number of shared time units, then
repeat the set until it covers at least --min-length base samples.

Each argument names a .npy or .wav file and the hop of that series: the
number of base samples between consecutive frames. The first argument is
the reference; its length defines the duration of the set.

Outputs are written as <name>.aligned.npy in --out-dir.`,
		Example: `  speechdataset align utt1.wav:1 utt1.feature.npy:160 utt1.label.npy:320
  speechdataset align wave.npy:1 mel.npy:256 --min-length 48000 -o aligned/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlign(env, args, minLength, outDir, force, rate)
		},
	}

	cmd.Flags().IntVar(&minLength, "min-length", segment.DefaultMinLength, "Minimum output duration in base samples")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Output directory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing outputs")
	cmd.Flags().IntVar(&rate, "sample-rate", defaultSampleRate, "Base sample rate used to report durations (WAV inputs override)")

	return cmd
}

// runAlign loads the inputs, length-matches them and writes the results.
func runAlign(env *Env, args []string, minLength int, outDir string, force bool, rate int) error {
	inputs, err := loadInputs(args)
	if err != nil {
		return err
	}
	set, err := workingSet(inputs)
	if err != nil {
		return err
	}

	out, err := segment.MatchLength(set, minLength)
	if err != nil {
		return err
	}

	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = deriveOutputPath(outDir, in.Path, "aligned")
	}
	if err := writeOutputs(paths, out, force); err != nil {
		return err
	}

	unit, _ := segment.Unit(set)
	fmt.Fprintf(env.Stderr, "Aligned %d series (unit %d samples)\n", len(out), unit)
	reportSeries(env.Stderr, paths, inputs, out, sampleRate(inputs, rate))
	return nil
}
