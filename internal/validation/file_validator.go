package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"contractpulse/internal/sheet"
)

// FileValidator checks files named on the command line before they are
// opened
type FileValidator struct {
	maxSize int64
	logger  *slog.Logger
}

// NewFileValidator creates a file validator. A maxSize of zero disables the
// size check.
func NewFileValidator(maxSize int64, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxSize: maxSize,
		logger:  logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return nil, fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	return info, nil
}

// ValidateSpreadsheet checks that path is a readable contract spreadsheet
// of an accepted format and within the size limit
func (v *FileValidator) ValidateSpreadsheet(path string) error {
	if err := sheet.CheckFormat(path); err != nil {
		v.logger.Error("Unsupported spreadsheet format",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return err
	}

	// Office lock files share the workbook extension
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	info, err := v.ValidateFile(path)
	if err != nil {
		return err
	}

	if v.maxSize > 0 && info.Size() > v.maxSize {
		v.logger.Error("Spreadsheet too large",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.Int64("max_size", v.maxSize))
		return fmt.Errorf("file %s is %d bytes, limit is %d", path, info.Size(), v.maxSize)
	}

	v.logger.Debug("Spreadsheet validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputFile ensures the parent directory of path exists or can be
// created and is writable
func (v *FileValidator) ValidateOutputFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	testFile, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := testFile.Name()
	testFile.Close()
	os.Remove(name)

	return nil
}
