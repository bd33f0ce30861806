package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	errs "boorudl/pkg/errors"
)

// Manager handles the output directory and file writes
type Manager struct {
	outputDir string
}

// NewManager creates a new storage manager, creating outputDir and its parents if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeIO, err, "failed to create output directory")
	}

	return &Manager{outputDir: outputDir}, nil
}

// CleanFilename reduces a remote filename to a single path element inside the output directory
func CleanFilename(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", errs.New(errs.ErrorTypeIO, fmt.Sprintf("invalid filename %q", name))
	}
	return base, nil
}

// Path returns where a file with the given name is stored
func (m *Manager) Path(filename string) (string, error) {
	name, err := CleanFilename(filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.outputDir, name), nil
}

// Save writes r to <outputDir>/<filename>, replacing any existing file. The data is
// written to a temporary file first, so a failed save never leaves the target behind.
func (m *Manager) Save(r io.Reader, filename string) (string, int64, error) {
	target, err := m.Path(filename)
	if err != nil {
		return "", 0, err
	}

	out, err := os.CreateTemp(m.outputDir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return "", 0, errs.Wrap(errs.ErrorTypeIO, err, "failed to create temporary file")
	}
	tempFile := out.Name()

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", 0, errs.Wrap(errs.ErrorTypeIO, err, "failed to write file data")
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", 0, errs.Wrap(errs.ErrorTypeIO, closeErr, "failed to close file")
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", 0, errs.Wrap(errs.ErrorTypeIO, err, "failed to set file mode")
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return "", 0, errs.Wrap(errs.ErrorTypeIO, err, "failed to rename temporary file")
	}

	return target, written, nil
}
