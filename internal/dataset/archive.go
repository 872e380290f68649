package dataset

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Archive zips every file under contentsDir into archiveFile. Entry names are
// slash-separated paths relative to contentsDir.
func Archive(contentsDir, archiveFile string) error {
	if err := os.MkdirAll(filepath.Dir(archiveFile), 0750); err != nil { // #nosec G301 -- dataset dir
		return fmt.Errorf("cannot create archive directory: %w", err)
	}
	out, err := os.Create(archiveFile) // #nosec G304 -- path built by NewAddress
	if err != nil {
		return fmt.Errorf("cannot create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(contentsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(contentsDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		return copyFileTo(w, path)
	})

	closeErr := zw.Close()
	if err := out.Close(); closeErr == nil {
		closeErr = err
	}
	if walkErr != nil || closeErr != nil {
		_ = os.Remove(archiveFile)
		if walkErr != nil {
			return fmt.Errorf("failed to archive %s: %w", contentsDir, walkErr)
		}
		return fmt.Errorf("failed to finish archive: %w", closeErr)
	}
	return nil
}

// Extract unpacks archiveFile into contentsDir.
func Extract(archiveFile, contentsDir string) error {
	zr, err := zip.OpenReader(archiveFile)
	if errors.Is(err, zip.ErrInsecurePath) {
		if zr != nil {
			_ = zr.Close()
		}
		return fmt.Errorf("%w: %w", ErrUnsafeArchivePath, err)
	}
	if err != nil {
		return fmt.Errorf("cannot open archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	root := filepath.Clean(contentsDir)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return fmt.Errorf("%w: %s", ErrUnsafeArchivePath, f.Name)
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil { // #nosec G301 -- dataset dir
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.Create(target) // #nosec G304 -- target checked against root
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil { // #nosec G110 -- archives are produced by Archive
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copyFileTo(w io.Writer, path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from WalkDir under contentsDir
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}
