package dataset

import (
	"fmt"
	"path/filepath"
)

// DefaultLocalRoot is where contents (and archives, when no archive root is
// given) live by default.
const DefaultLocalRoot = "./tmp"

// DefaultSubtype is the corpus subtype used when the corpus has no split.
const DefaultSubtype = "default"

// ItemID identifies one utterance in a corpus.
type ItemID struct {
	Subtype string
	Speaker string
	Name    string
}

// String returns "speaker/name" for logging.
func (id ItemID) String() string {
	return id.Speaker + "/" + id.Name
}

// Address locates a prepared dataset: a single archive file and the directory
// its contents are unpacked into.
//
// Layout:
//
//	{archiveRoot}/datasets/{corpus}/{type}/archive/{args}.zip
//	{contentsRoot}/datasets/{corpus}/{type}/contents/{args}/...
//
// The corpus selects the original data, the dataset type selects what was
// derived from it, and the preprocess args distinguish parameterizations of
// the same derivation.
type Address struct {
	// ArchiveFile is a plain string because archives may live behind a URL.
	ArchiveFile string
	ContentsDir string
}

// NewAddress builds the address of a dataset. Empty roots fall back to
// DefaultLocalRoot.
func NewAddress(archiveRoot, contentsRoot, corpus, datasetType, preprocessArgs string) Address {
	if archiveRoot == "" {
		archiveRoot = DefaultLocalRoot
	}
	if contentsRoot == "" {
		contentsRoot = DefaultLocalRoot
	}

	rel := fmt.Sprintf("datasets/%s/%s", corpus, datasetType)
	return Address{
		ArchiveFile: fmt.Sprintf("%s/%s/archive/%s.zip", archiveRoot, rel, preprocessArgs),
		ContentsDir: filepath.Join(contentsRoot, filepath.FromSlash(rel), "contents", preprocessArgs),
	}
}

// PathFor returns the file holding the named datum of an item:
//
//	{root}/{speaker}/{name}s/{item}.{name}.pt.npy
func PathFor(root, name string, id ItemID) string {
	return filepath.Join(root, id.Speaker, name+"s", id.Name+"."+name+".pt.npy")
}
