package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/alnah/speechdataset/internal/config"
	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/interrupt"
	"github.com/alnah/speechdataset/internal/prepare"
	"github.com/alnah/speechdataset/internal/segment"
)

// writeCorpus lays out {root}/{speaker}/{name}.wav|.feature.npy|.label.npy
// for each name: 9 samples, 4 feature frames at hop 2, 2 labels at hop 4.
func writeCorpus(t *testing.T, speaker string, names ...string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, speaker)
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		writeWav(t, dir, name+".wav", []int16{0, 1, 2, 3, 4, 5, 6, 7, 8}, 16000)
		feat, err := segment.NewSeriesShape(ramp[float64](8), 2, 4)
		if err != nil {
			t.Fatal(err)
		}
		writeNpy(t, dir, name+".feature.npy", feat)
		writeNpy(t, dir, name+".label.npy", segment.NewSeries([]int64{5, 6}))
	}
	return root
}

var testHopArgs = []string{"--wave-hop", "1", "--feature-hop", "2", "--label-hop", "4"}

func prepareArgs(corpus string, extra ...string) []string {
	args := append([]string{corpus, "--corpus", "test", "--args", "h4", "--no-progress"}, testHopArgs...)
	return append(args, extra...)
}

// ---------------------------------------------------------------------------
// Tests for runPrepare
// ---------------------------------------------------------------------------

func TestPrepare_AlignsStoresAndArchives(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "utt1", "utt2")
	roots := t.TempDir()
	cfg := config.Config{
		ArchiveRoot:  filepath.Join(roots, "archives"),
		ContentsRoot: filepath.Join(roots, "contents"),
		Workers:      3,
	}
	env, _, stderr := testEnv(withTestConfig(cfg))

	if err := execute(t, PrepareCmd(env), prepareArgs(corpus)...); err != nil {
		t.Fatalf("prepare unexpected error: %v", err)
	}

	addr := dataset.NewAddress(cfg.ArchiveRoot, cfg.ContentsRoot, "test", "aligned", "h4")
	store := dataset.NewStore(addr.ContentsDir)
	for _, name := range []string{"utt1", "utt2"} {
		it, err := store.Load(dataset.ItemID{Subtype: dataset.DefaultSubtype, Speaker: "spk", Name: name})
		if err != nil {
			t.Fatalf("store.Load(%s) unexpected error: %v", name, err)
		}
		if it.Wave.Len() != 8 || it.Feature.Len() != 4 || it.Label.Len() != 2 {
			t.Errorf("%s lengths = %d/%d/%d, want 8/4/2", name, it.Wave.Len(), it.Feature.Len(), it.Label.Len())
		}
	}

	if _, err := os.Stat(addr.ArchiveFile); err != nil {
		t.Errorf("archive not written: %v", err)
	}

	out := stderr.String()
	for _, want := range []string{"Preparing 2 items with 3 workers", "Archive: ", "Prepared 2 items"} {
		if !strings.Contains(out, want) {
			t.Errorf("stderr = %q, want containing %q", out, want)
		}
	}
}

func TestPrepare_ArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "utt")
	roots := t.TempDir()
	cfg := config.Config{ArchiveRoot: filepath.Join(roots, "a"), ContentsRoot: filepath.Join(roots, "c")}
	env, _, _ := testEnv(withTestConfig(cfg))

	if err := execute(t, PrepareCmd(env), prepareArgs(corpus, "--min-length", "16")...); err != nil {
		t.Fatalf("prepare unexpected error: %v", err)
	}

	addr := dataset.NewAddress(cfg.ArchiveRoot, cfg.ContentsRoot, "test", "aligned", "h4")
	restored := t.TempDir()
	if err := dataset.Extract(addr.ArchiveFile, restored); err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	it, err := dataset.NewStore(restored).Load(dataset.ItemID{Speaker: "spk", Name: "utt"})
	if err != nil {
		t.Fatalf("Load() from extracted archive: %v", err)
	}
	if it.Wave.Len() != 16 {
		t.Errorf("wave length = %d, want 16 (tiled twice)", it.Wave.Len())
	}
}

func TestPrepare_RestoresContentsFromArchive(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "utt1", "utt2")
	roots := t.TempDir()
	cfg := config.Config{ArchiveRoot: filepath.Join(roots, "a"), ContentsRoot: filepath.Join(roots, "c")}
	env, _, _ := testEnv(withTestConfig(cfg))
	if err := execute(t, PrepareCmd(env), prepareArgs(corpus)...); err != nil {
		t.Fatalf("first prepare unexpected error: %v", err)
	}

	addr := dataset.NewAddress(cfg.ArchiveRoot, cfg.ContentsRoot, "test", "aligned", "h4")
	if err := os.RemoveAll(addr.ContentsDir); err != nil {
		t.Fatal(err)
	}

	corpora := &mockCorpusFactory{}
	env, _, stderr := testEnv(withTestConfig(cfg), withTestCorpus(corpora))
	if err := execute(t, PrepareCmd(env), prepareArgs(corpus)...); err != nil {
		t.Fatalf("restoring prepare unexpected error: %v", err)
	}
	if !strings.Contains(stderr.String(), "Restored contents from archive") {
		t.Errorf("stderr = %q, want restore notice", stderr.String())
	}
	if n := corpora.LoadCalls(); n != 0 {
		t.Errorf("restore loaded %d corpus items, want 0", n)
	}
	if got := countStored(t, addr.ContentsDir, "spk", "utt1", "utt2"); got != 2 {
		t.Errorf("restored contents hold %d items, want 2", got)
	}
}

func TestPrepare_RemoteArchiveRootSkipsArchive(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "utt")
	cfg := config.Config{ArchiveRoot: "s3://bucket", ContentsRoot: t.TempDir()}
	env, _, stderr := testEnv(withTestConfig(cfg))

	if err := execute(t, PrepareCmd(env), prepareArgs(corpus)...); err != nil {
		t.Fatalf("prepare unexpected error: %v", err)
	}
	if !strings.Contains(stderr.String(), "Warning: archive root is remote") {
		t.Errorf("stderr = %q, want remote archive warning", stderr.String())
	}
}

func TestPrepare_NoArchive(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "utt")
	roots := t.TempDir()
	cfg := config.Config{ArchiveRoot: filepath.Join(roots, "a"), ContentsRoot: filepath.Join(roots, "c")}
	env, _, _ := testEnv(withTestConfig(cfg))

	if err := execute(t, PrepareCmd(env), prepareArgs(corpus, "--no-archive")...); err != nil {
		t.Fatalf("prepare unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(roots, "a")); !errors.Is(err, os.ErrNotExist) {
		t.Error("--no-archive still created the archive root")
	}
}

func TestPrepare_RefusesNonEmptyContents(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "utt")
	roots := t.TempDir()
	cfg := config.Config{ArchiveRoot: filepath.Join(roots, "a"), ContentsRoot: filepath.Join(roots, "c")}
	env, _, _ := testEnv(withTestConfig(cfg))

	if err := execute(t, PrepareCmd(env), prepareArgs(corpus)...); err != nil {
		t.Fatal(err)
	}
	err := execute(t, PrepareCmd(env), prepareArgs(corpus)...)
	if !errors.Is(err, ErrOutputExists) {
		t.Fatalf("second prepare error = %v, want ErrOutputExists", err)
	}
	if err := execute(t, PrepareCmd(env), prepareArgs(corpus, "--force")...); err != nil {
		t.Errorf("prepare --force unexpected error: %v", err)
	}
}

func TestPrepare_Errors(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	file := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{name: "missing corpus", args: prepareArgs(filepath.Join(empty, "nope")), wantErr: ErrFileNotFound},
		{name: "empty corpus", args: prepareArgs(empty), wantErr: prepare.ErrNoItems},
		{name: "corpus is a file", args: prepareArgs(file), wantMsg: "not a directory"},
		{
			name:    "excessive repeat",
			args:    prepareArgs(writeCorpus(t, "spk", "utt"), "--min-length", "800"),
			wantErr: segment.ErrExcessiveRepeat,
		},
		{
			name:    "invalid hop",
			args:    prepareArgs(writeCorpus(t, "spk", "utt"), "--label-hop", "0"),
			wantErr: segment.ErrInvalidHop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, _ := testEnv(withTestConfig(config.Config{ContentsRoot: t.TempDir(), ArchiveRoot: t.TempDir()}))
			err := execute(t, PrepareCmd(env), tt.args...)
			if err == nil {
				t.Fatal("prepare expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("prepare error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("prepare error = %q, want containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestPrepare_ConfigErrorIsWarning(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "utt")
	contents := t.TempDir()
	env, _, stderr := testEnv()
	env.ConfigLoader = &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			return config.Config{ContentsRoot: contents, ArchiveRoot: contents}, config.ErrInvalidWorkers
		},
	}

	if err := execute(t, PrepareCmd(env), prepareArgs(corpus, "--no-archive", "-w", "1")...); err != nil {
		t.Fatalf("prepare unexpected error: %v", err)
	}
	if !strings.Contains(stderr.String(), "Warning: failed to load config") {
		t.Errorf("stderr = %q, want config warning", stderr.String())
	}
	if !strings.Contains(stderr.String(), "with 1 workers") {
		t.Errorf("stderr = %q, want the --workers flag to win", stderr.String())
	}
}

func TestPrepare_ProgressBar(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "a", "b", "c")
	roots := t.TempDir()
	cfg := config.Config{ArchiveRoot: filepath.Join(roots, "a"), ContentsRoot: filepath.Join(roots, "c")}
	env, _, stderr := testEnv(withTestConfig(cfg))

	args := append([]string{corpus, "--corpus", "test"}, testHopArgs...)
	if err := execute(t, PrepareCmd(env), args...); err != nil {
		t.Fatalf("prepare unexpected error: %v", err)
	}
	if !strings.Contains(stderr.String(), "Prepared 3 items") {
		t.Errorf("stderr = %q, want summary after the progress bar", stderr.String())
	}
}

func TestPrepareCmd_RequiresCorpusFlag(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv()
	err := execute(t, PrepareCmd(env), t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "required flag") {
		t.Errorf("prepare without --corpus error = %v, want required flag error", err)
	}
}

func TestPrepare_InterruptedBeforeAnyItem(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "a", "b")
	roots := t.TempDir()
	cfg := config.Config{ArchiveRoot: filepath.Join(roots, "a"), ContentsRoot: filepath.Join(roots, "c")}
	env, _, stderr := testEnv(withTestConfig(cfg))

	var exits atomic.Int32
	env.Interrupts = func(ctx context.Context) (*interrupt.Handler, context.Context) {
		sig := make(chan os.Signal, 1)
		h, runCtx := interrupt.NewHandlerWithOptions(ctx, interrupt.Options{
			SigCh:    sig,
			ExitFunc: func(int) { exits.Add(1) },
			Stderr:   env.Stderr,
		})
		sig <- syscall.SIGINT
		<-runCtx.Done()
		return h, runCtx
	}

	err := execute(t, PrepareCmd(env), prepareArgs(corpus)...)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("prepare error = %v, want context.Canceled", err)
	}
	if exits.Load() != 0 {
		t.Error("a single interrupt should not exit")
	}

	addr := dataset.NewAddress(cfg.ArchiveRoot, cfg.ContentsRoot, "test", "aligned", "h4")
	if _, err := os.Stat(addr.ArchiveFile); !errors.Is(err, os.ErrNotExist) {
		t.Error("interrupted run still wrote an archive")
	}
	if strings.Contains(stderr.String(), "Prepared ") {
		t.Errorf("stderr = %q, want no completion summary", stderr.String())
	}
}

// interruptOnSecondLoad returns a hook that lets the first item through,
// then interrupts the run from inside the second Load and waits for the
// cancellation to land. With one worker exactly one item finishes.
func interruptOnSecondLoad(sig chan<- os.Signal, after func()) func(ctx context.Context, call int) error {
	return func(ctx context.Context, call int) error {
		switch call {
		case 1:
			return nil
		case 2:
			sig <- syscall.SIGINT
			<-ctx.Done()
			if after != nil {
				after()
			}
		}
		return ctx.Err()
	}
}

// countStored reports how many of the named items load from the contents dir.
func countStored(t *testing.T, contentsDir, speaker string, names ...string) int {
	t.Helper()
	store := dataset.NewStore(contentsDir)
	n := 0
	for _, name := range names {
		if _, err := store.Load(dataset.ItemID{Subtype: dataset.DefaultSubtype, Speaker: speaker, Name: name}); err == nil {
			n++
		}
	}
	return n
}

func TestPrepare_InterruptKeepsFinishedItems(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "a", "b", "c")
	roots := t.TempDir()
	cfg := config.Config{ArchiveRoot: filepath.Join(roots, "a"), ContentsRoot: filepath.Join(roots, "c")}
	sig := make(chan os.Signal, 2)
	corpora := &mockCorpusFactory{LoadHook: interruptOnSecondLoad(sig, nil)}
	env, _, stderr := testEnv(withTestConfig(cfg), withTestCorpus(corpora))

	// The first interrupt is stamped at t0; every later reading is past the
	// window, so the decision keeps the partial run without waiting.
	t0 := time.Date(2026, 1, 26, 14, 30, 0, 0, time.UTC)
	var clockReads atomic.Int32
	var exits atomic.Int32
	env.Interrupts = func(ctx context.Context) (*interrupt.Handler, context.Context) {
		return interrupt.NewHandlerWithOptions(ctx, interrupt.Options{
			SigCh:    sig,
			ExitFunc: func(int) { exits.Add(1) },
			NowFunc: func() time.Time {
				if clockReads.Add(1) == 1 {
					return t0
				}
				return t0.Add(interrupt.Window + time.Second)
			},
			Stderr: env.Stderr,
		})
	}

	if err := execute(t, PrepareCmd(env), prepareArgs(corpus, "-w", "1")...); err != nil {
		t.Fatalf("prepare unexpected error: %v", err)
	}
	if exits.Load() != 0 {
		t.Error("a single interrupt should not exit")
	}
	for _, want := range []string{"Keeping 1 of 3 items", "Prepared 1 items"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr = %q, want containing %q", stderr.String(), want)
		}
	}

	addr := dataset.NewAddress(cfg.ArchiveRoot, cfg.ContentsRoot, "test", "aligned", "h4")
	if got := countStored(t, addr.ContentsDir, "spk", "a", "b", "c"); got != 1 {
		t.Errorf("contents hold %d items, want 1", got)
	}
	if _, err := os.Stat(addr.ArchiveFile); err != nil {
		t.Fatalf("archive not written for the kept items: %v", err)
	}
	extracted := t.TempDir()
	if err := dataset.Extract(addr.ArchiveFile, extracted); err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if got := countStored(t, extracted, "spk", "a", "b", "c"); got != 1 {
		t.Errorf("archive holds %d items, want 1", got)
	}
}

func TestPrepare_SecondInterruptDiscards(t *testing.T) {
	t.Parallel()

	corpus := writeCorpus(t, "spk", "a", "b", "c")
	roots := t.TempDir()
	cfg := config.Config{ArchiveRoot: filepath.Join(roots, "a"), ContentsRoot: filepath.Join(roots, "c")}
	sig := make(chan os.Signal, 2)
	exits := make(chan int, 1)
	secondInterrupt := func() {
		sig <- syscall.SIGINT
		select {
		case <-exits:
		case <-time.After(time.Second):
			t.Error("exit not called after the second interrupt")
		}
	}
	corpora := &mockCorpusFactory{LoadHook: interruptOnSecondLoad(sig, secondInterrupt)}
	env, _, stderr := testEnv(withTestConfig(cfg), withTestCorpus(corpora))

	var exitCode atomic.Int32
	env.Interrupts = func(ctx context.Context) (*interrupt.Handler, context.Context) {
		return interrupt.NewHandlerWithOptions(ctx, interrupt.Options{
			SigCh: sig,
			ExitFunc: func(code int) {
				exitCode.Store(int32(code))
				exits <- code
			},
			NowFunc: fixedTime(time.Date(2026, 1, 26, 14, 30, 0, 0, time.UTC)),
			Stderr:  env.Stderr,
		})
	}

	err := execute(t, PrepareCmd(env), prepareArgs(corpus, "-w", "1")...)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("prepare error = %v, want context.Canceled", err)
	}
	if got := exitCode.Load(); got != interrupt.ExitInterrupt {
		t.Errorf("exit code = %d, want %d", got, interrupt.ExitInterrupt)
	}
	if !strings.Contains(stderr.String(), "Discarded.") {
		t.Errorf("stderr = %q, want discard notice", stderr.String())
	}

	addr := dataset.NewAddress(cfg.ArchiveRoot, cfg.ContentsRoot, "test", "aligned", "h4")
	if _, err := os.Stat(addr.ArchiveFile); !errors.Is(err, os.ErrNotExist) {
		t.Error("discarded run still wrote an archive")
	}
	if strings.Contains(stderr.String(), "Prepared ") {
		t.Errorf("stderr = %q, want no completion summary", stderr.String())
	}
}
