package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/speechdataset/internal/format"
	"github.com/alnah/speechdataset/internal/segment"
)

// ClipCmd creates the clip command.
// The env parameter provides injectable dependencies for testing.
func ClipCmd(env *Env) *cobra.Command {
	var (
		length int
		start  int
		seed   uint64
		outDir string
		force  bool
		rate   int
	)

	cmd := &cobra.Command{
		Use:   "clip <file:hop>...",
		Short: "Cut the same time window out of aligned series",
		Long: `Cut a window of --length base samples out of every series.

With --start the window begins there; both values must sit on the shared
time unit of the set. Without --start a unit-aligned start is drawn at
random; --seed makes the draw reproducible.

Inputs are usually the output of "speechdataset align". Outputs are written
as <name>.clip.npy in --out-dir.`,
		Example: `  speechdataset clip utt1.aligned.npy:1 utt1.feature.aligned.npy:160 --length 3200 --start 6400
  speechdataset clip wave.npy:1 mel.npy:256 --length 8192 --seed 42 -o clips/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var startPtr *int
			if cmd.Flags().Changed("start") {
				startPtr = &start
			}
			if !cmd.Flags().Changed("seed") {
				seed = uint64(env.Now().UnixNano()) // #nosec G115 -- any bit pattern is a valid seed
			}
			return runClip(env, args, length, startPtr, seed, outDir, force, rate)
		},
	}

	cmd.Flags().IntVarP(&length, "length", "n", 0, "Window length in base samples")
	cmd.Flags().IntVarP(&start, "start", "s", 0, "Window start in base samples (default: random)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the random start (default: time-based)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "Output directory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing outputs")
	cmd.Flags().IntVar(&rate, "sample-rate", defaultSampleRate, "Base sample rate used to report durations (WAV inputs override)")
	_ = cmd.MarkFlagRequired("length")
	cmd.MarkFlagsMutuallyExclusive("start", "seed")

	return cmd
}

// runClip cuts a fixed or random window and writes the results.
// A nil start selects a random window.
func runClip(env *Env, args []string, length int, start *int, seed uint64, outDir string, force bool, rate int) error {
	inputs, err := loadInputs(args)
	if err != nil {
		return err
	}
	set, err := workingSet(inputs)
	if err != nil {
		return err
	}

	var seg segment.Segment
	if start != nil {
		if err := segment.CheckAligned(set, length, *start); err != nil {
			return err
		}
		series, err := segment.ClipSegment(set, length, *start)
		if err != nil {
			return err
		}
		seg = segment.Segment{Start: *start, Length: length, Series: series}
	} else {
		seg, err = segment.ClipSegmentRandom(set, length, env.RandSource(seed))
		if err != nil {
			return err
		}
	}

	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = deriveOutputPath(outDir, in.Path, "clip")
	}
	if err := writeOutputs(paths, seg.Series, force); err != nil {
		return err
	}

	r := sampleRate(inputs, rate)
	fmt.Fprintf(env.Stderr, "Clipped [%d, %d) at %s\n",
		seg.Start, seg.Start+seg.Length, format.Duration(format.Frames(seg.Start, 1, r)))
	if start == nil {
		fmt.Fprintf(env.Stderr, "  seed %d\n", seed)
	}
	reportSeries(env.Stderr, paths, inputs, seg.Series, r)
	return nil
}
