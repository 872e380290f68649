package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/format"
	"github.com/alnah/speechdataset/internal/interrupt"
	"github.com/alnah/speechdataset/internal/prepare"
	"github.com/alnah/speechdataset/internal/segment"
)

// prepareOptions holds the flags of the prepare command.
type prepareOptions struct {
	Corpus     string
	Type       string
	Args       string
	Hops       dataset.Hops
	MinLength  int
	Workers    int // 0 defers to config, then one per CPU
	Force      bool
	NoArchive  bool
	NoProgress bool
}

// PrepareCmd creates the prepare command.
// The env parameter provides injectable dependencies for testing.
func PrepareCmd(env *Env) *cobra.Command {
	opts := prepareOptions{Hops: dataset.DefaultHops}

	cmd := &cobra.Command{
		Use:   "prepare <corpus-dir>",
		Short: "Align a whole corpus into a dataset",
		Long: `Align the waveform, feature and label of every item in a corpus and store
the result as a dataset.

The corpus directory holds one directory per speaker with, for each item,
<name>.wav (mono), <name>.feature.npy and <name>.label.npy.

Aligned items are written under
  {contents-root}/datasets/{corpus}/{type}/contents/{args}/
and the contents are zipped to
  {archive-root}/datasets/{corpus}/{type}/archive/{args}.zip

Roots come from "speechdataset config" and default to ./tmp.

When the contents directory is empty and the archive already exists, the
contents are restored from the archive instead (use --force to re-align).

Ctrl+C stops the run and keeps the items finished so far (they are still
archived). Press Ctrl+C again within 2 seconds to discard instead.`,
		Example: `  speechdataset prepare ./corpus/jvs --corpus jvs --args hop160
  speechdataset prepare ./corpus --corpus mine --feature-hop 256 --label-hop 256 -w 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, env, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Corpus, "corpus", "", "Corpus name used in the dataset address")
	cmd.Flags().StringVar(&opts.Type, "type", "aligned", "Dataset type used in the dataset address")
	cmd.Flags().StringVar(&opts.Args, "args", "default", "Preprocess arguments tag used in the dataset address")
	cmd.Flags().IntVar(&opts.Hops.Wave, "wave-hop", dataset.DefaultHops.Wave, "Hop of the waveform in base samples")
	cmd.Flags().IntVar(&opts.Hops.Feature, "feature-hop", dataset.DefaultHops.Feature, "Hop of the feature frames in base samples")
	cmd.Flags().IntVar(&opts.Hops.Label, "label-hop", dataset.DefaultHops.Label, "Hop of the label frames in base samples")
	cmd.Flags().IntVar(&opts.MinLength, "min-length", segment.DefaultMinLength, "Minimum aligned duration in base samples")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 0, "Items prepared in parallel (default: config, then one per CPU)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Write into a non-empty contents directory and ignore an existing archive")
	cmd.Flags().BoolVar(&opts.NoArchive, "no-archive", false, "Skip zipping the contents")
	cmd.Flags().BoolVar(&opts.NoProgress, "no-progress", false, "Hide the progress bar")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

// runPrepare executes the dataset pipeline.
// Validation order: corpus dir -> config -> contents dir -> archive restore -> discovery -> run -> archive
func runPrepare(cmd *cobra.Command, env *Env, corpusDir string, opts prepareOptions) error {
	ctx := cmd.Context()
	started := env.Now()

	// === VALIDATION (fail-fast) ===

	info, err := os.Stat(corpusDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, corpusDir)
		}
		return fmt.Errorf("cannot access corpus: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("corpus is not a directory: %s", corpusDir)
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	addr := dataset.NewAddress(cfg.ArchiveRoot, cfg.ContentsRoot, opts.Corpus, opts.Type, opts.Args)
	if !opts.Force {
		if err := checkEmptyDir(addr.ContentsDir); err != nil {
			return err
		}
		if archiveExists(addr.ArchiveFile) {
			if err := dataset.Extract(addr.ArchiveFile, addr.ContentsDir); err != nil {
				return err
			}
			fmt.Fprintf(env.Stderr, "Restored contents from archive %s\n", addr.ArchiveFile)
			fmt.Fprintf(env.Stderr, "Contents: %s\n", addr.ContentsDir)
			return nil
		}
	}

	workers := opts.Workers
	if workers < 1 {
		workers = cfg.Workers
	}
	if workers < 1 {
		workers = prepare.DefaultParallel()
	}

	corpus := env.CorpusFactory.NewCorpus(corpusDir)
	ids, err := corpus.Discover()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no .wav files under %s", prepare.ErrNoItems, corpusDir)
	}

	// === PIPELINE ===

	fmt.Fprintf(env.Stderr, "Preparing %d items with %d workers...\n", len(ids), workers)

	// First Ctrl+C stops dispatching items, second within 2s discards the run.
	interrupts, runCtx := env.Interrupts(ctx)
	defer interrupts.Stop()

	store := dataset.NewStore(addr.ContentsDir)
	var finished int
	runOpts := prepare.Options{
		Hops:       opts.Hops,
		MinLength:  opts.MinLength,
		Parallel:   workers,
		OnProgress: func(done, _ int) { finished = done },
	}

	var (
		progress *mpb.Progress
		bar      *mpb.Bar
	)
	if !opts.NoProgress {
		progress = mpb.NewWithContext(runCtx, mpb.WithOutput(env.Stderr), mpb.WithWidth(64))
		bar = progress.AddBar(int64(len(ids)),
			mpb.PrependDecorators(
				decor.Name("Aligning: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.Elapsed(decor.ET_STYLE_GO),
			),
		)
		runOpts.OnProgress = func(done, _ int) {
			finished = done
			bar.Increment()
		}
	}

	runErr := prepare.Run(runCtx, ids, corpus, store, runOpts)
	if progress != nil {
		if runErr != nil {
			bar.Abort(false)
		}
		progress.Wait()
	}

	prepared := len(ids)
	if runErr != nil {
		if !interrupts.Interrupted() {
			return runErr
		}
		if finished == 0 {
			return fmt.Errorf("interrupted before any item finished: %w", context.Canceled)
		}
		decision := interrupts.Decide(fmt.Sprintf(
			"Ctrl+C again to discard, wait 2s to keep %d finished items...", finished))
		if decision == interrupt.Discard {
			return context.Canceled
		}
		fmt.Fprintf(env.Stderr, "\nKeeping %d of %d items.\n", finished, len(ids))
		prepared = finished
	}

	fmt.Fprintf(env.Stderr, "Contents: %s\n", addr.ContentsDir)

	// === ARCHIVE ===

	switch {
	case opts.NoArchive:
	case isRemote(addr.ArchiveFile):
		fmt.Fprintf(env.Stderr, "Warning: archive root is remote, skipping archive %s\n", addr.ArchiveFile)
	default:
		if err := dataset.Archive(addr.ContentsDir, addr.ArchiveFile); err != nil {
			return err
		}
		size := int64(0)
		if st, err := os.Stat(addr.ArchiveFile); err == nil {
			size = st.Size()
		}
		fmt.Fprintf(env.Stderr, "Archive: %s (%s)\n", addr.ArchiveFile, format.Size(size))
	}

	fmt.Fprintf(env.Stderr, "Prepared %d items in %s\n", prepared, format.Elapsed(env.Now().Sub(started)))
	return nil
}

// checkEmptyDir fails if dir exists and holds any entry.
func checkEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cannot access contents directory: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s is not empty (use --force to write into it)", ErrOutputExists, dir)
	}
	return nil
}

// archiveExists reports whether a local archive file is present.
func archiveExists(location string) bool {
	if isRemote(location) {
		return false
	}
	st, err := os.Stat(location)
	return err == nil && st.Mode().IsRegular()
}

// isRemote reports whether an archive location is a URL rather than a path.
func isRemote(location string) bool {
	return strings.Contains(location, "://")
}
