package interfaces

import (
	"io"
	"os"
)

// ScratchStore manages the transient upload and output directories
type ScratchStore interface {
	// StageUpload copies an upload into the uploads directory under a unique name
	// that keeps the original suffix. Returns the staged path.
	StageUpload(name string, r io.Reader) (string, error)

	// CreateOutput creates a uniquely named file in the outputs directory.
	CreateOutput(stem, ext string) (*os.File, error)

	// Remove deletes a scratch file; failures are logged, not returned.
	Remove(path string)
}
