package scratch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/inkwell/internal/common"
	"github.com/ternarybob/inkwell/internal/interfaces"
)

// ErrInvalidName is returned when an upload filename reduces to nothing usable
var ErrInvalidName = errors.New("scratch: invalid filename")

// Service implements interfaces.ScratchStore on two local directories
type Service struct {
	uploadsDir string
	outputsDir string
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ScratchStore = (*Service)(nil)

// NewService creates a scratch store. Call EnsureDirs before first use.
func NewService(cfg common.StorageConfig, logger arbor.ILogger) *Service {
	return &Service{
		uploadsDir: cfg.UploadsDir,
		outputsDir: cfg.OutputsDir,
		logger:     logger,
	}
}

// EnsureDirs creates the uploads and outputs directories if missing
func (s *Service) EnsureDirs() error {
	for _, dir := range []string{s.uploadsDir, s.outputsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
		}
	}
	return nil
}

// Dirs returns the uploads and outputs directories
func (s *Service) Dirs() []string {
	return []string{s.uploadsDir, s.outputsDir}
}

// StageUpload writes r to <uploads>/<uuid>_<base name>. Only the base of the client
// name is used so a crafted name cannot escape the uploads directory.
func (s *Service) StageUpload(name string, r io.Reader) (string, error) {
	// Rooting the name first collapses "", "." and ".." traversal to "/"
	base := filepath.Base(filepath.Clean("/" + name))
	if base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	path := filepath.Join(s.uploadsDir, common.NewScratchID()+"_"+base)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create staged upload: %w", err)
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.Remove(path)
		return "", fmt.Errorf("failed to stage upload: %w", err)
	}

	s.logger.Debug().
		Str("name", base).
		Str("path", path).
		Int64("bytes", written).
		Msg("Staged upload")

	return path, nil
}

// CreateOutput creates <outputs>/<uuid>_<stem><ext> for writing
func (s *Service) CreateOutput(stem, ext string) (*os.File, error) {
	stem = filepath.Base(stem)
	if stem == "." || stem == string(filepath.Separator) {
		stem = "output"
	}

	path := filepath.Join(s.outputsDir, common.NewScratchID()+"_"+stem+ext)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// Remove deletes a scratch file. Failures are logged; the janitor picks up leftovers.
func (s *Service) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove scratch file")
	}
}
