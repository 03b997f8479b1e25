package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service stores uploaded portal documents (timetables, exam schedules,
// study resources) on the local filesystem under random names.
type Service struct {
	dir    string
	logger zerolog.Logger
}

// NewService creates the upload directory if needed and returns a Service
func NewService(dir string, logger zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Service{dir: dir, logger: logger}, nil
}

// Save writes the uploaded content under a uuid-prefixed name derived from
// the original file name and returns the stored name. The original name is
// kept as a suffix so downloads stay human-readable.
func (s *Service) Save(src io.Reader, originalName string) (string, error) {
	stored := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeName(originalName))

	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		// Best effort cleanup of the partial file
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug().Str("file", stored).Msg("Stored uploaded file")
	return stored, nil
}

// Path resolves a stored name to an absolute path, rejecting anything that
// would escape the upload directory.
func (s *Service) Path(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", fmt.Errorf("invalid file name")
	}
	path := filepath.Join(s.dir, storedName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found: %w", err)
	}
	return path, nil
}

// Create opens a writable file under the given stored name. Used by workers
// that generate exports with deterministic names.
func (s *Service) Create(storedName string) (*os.File, error) {
	if storedName != filepath.Base(storedName) {
		return nil, fmt.Errorf("invalid file name")
	}
	return os.Create(filepath.Join(s.dir, storedName))
}

// Remove deletes a stored file; missing files are not an error
func (s *Service) Remove(storedName string) error {
	if storedName != filepath.Base(storedName) {
		return fmt.Errorf("invalid file name")
	}
	err := os.Remove(filepath.Join(s.dir, storedName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DisplayName strips the uuid prefix added by Save
func DisplayName(storedName string) string {
	if i := strings.Index(storedName, "_"); i >= 0 && i == 36 {
		return storedName[i+1:]
	}
	return storedName
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	// Base maps "" to "." and a bare parent reference survives the filter
	if name == "." || name == ".." {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
