package srdose

import (
	"errors"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gabrielamaroufrj/OpenZoe/internal/models"
)

// Inserter stores one parsed exam record and returns its id.
type Inserter interface {
	InsertExam(rec models.ExamRecord) (int64, error)
}

// Importer scans a directory tree for Structured Report files and stores
// their dose records. One importer call holds no state between runs.
type Importer struct {
	store  Inserter
	logger *zap.Logger
}

// NewImporter creates an importer writing to the given store.
func NewImporter(store Inserter, logger *zap.Logger) *Importer {
	return &Importer{store: store, logger: logger}
}

// ImportDirectory processes every file under dir and returns the number of
// records stored and the number of failures. Files that are not Structured
// Reports are skipped silently; a file that cannot be read or stored counts
// as one error and the scan continues. A single bad file never aborts the
// batch.
func (i *Importer) ImportDirectory(dir string) (imported, failed int) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			i.logger.Warn("cannot access path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rec, perr := ParseFile(path)
		if errors.Is(perr, ErrNotApplicable) {
			return nil
		}
		if perr != nil {
			i.logger.Warn("unreadable file", zap.String("path", path), zap.Error(perr))
			failed++
			return nil
		}
		if _, serr := i.store.InsertExam(*rec); serr != nil {
			i.logger.Error("insert failed", zap.String("path", path), zap.Error(serr))
			failed++
			return nil
		}
		imported++
		return nil
	})
	return imported, failed
}
