// Package upload stores incoming report files, runs the importer on them and
// keeps the normalized records for later retrieval.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"patchimport/importer"
	"patchimport/internal/timeutil"
	"patchimport/storage"
)

var ErrInvalidUpload = errors.New("invalid upload")

// Store persists uploads and their record sets.
type Store interface {
	SaveUpload(upload storage.Upload) error
	UploadExists(id string) (bool, error)
	ReplaceRecords(uploadID string, records []importer.Record) (int, error)
	ListUploads() ([]storage.Upload, error)
	GetUpload(id string) (storage.Upload, bool, error)
	RecordsJSON(uploadID string) ([]byte, error)
	DeleteUpload(id string) (bool, error)
	DeleteAllUploads() (int64, error)
}

type Service struct {
	store  Store
	dir    string
	logger *zap.Logger
	now    func() time.Time

	allocMu sync.Mutex
}

func NewService(store Store, uploadDir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		dir:    uploadDir,
		logger: logger,
		now:    time.Now,
	}
}

// Dir is the directory raw uploads are written to.
func (s *Service) Dir() string {
	return s.dir
}

// Accept stores content under a fresh upload ID and imports it. A failed
// import is still recorded with status failed; the import error is returned
// together with that upload.
func (s *Service) Accept(ctx context.Context, originalName string, content io.Reader) (storage.Upload, error) {
	name := filepath.Base(strings.TrimSpace(originalName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return storage.Upload{}, fmt.Errorf("%w: file name is required", ErrInvalidUpload)
	}
	format, err := importer.FormatFromName(name)
	if err != nil {
		return storage.Upload{}, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}
	if err := ctx.Err(); err != nil {
		return storage.Upload{}, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return storage.Upload{}, fmt.Errorf("create upload directory: %w", err)
	}

	uploadedAt := s.now()
	id, file, err := s.allocate(uploadedAt, format)
	if err != nil {
		return storage.Upload{}, err
	}
	path := file.Name()

	size, copyErr := io.Copy(file, content)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		return storage.Upload{}, fmt.Errorf("write upload %s: %w", id, errors.Join(copyErr, closeErr))
	}

	upload := storage.Upload{
		ID:           id,
		OriginalName: name,
		Format:       string(format),
		StoredPath:   path,
		SizeBytes:    size,
		UploadedAt:   uploadedAt.UTC().Truncate(time.Second),
	}
	logger := s.logger.With(zap.String("upload_id", id), zap.String("file", name))

	if err := ctx.Err(); err != nil {
		_ = os.Remove(path)
		return storage.Upload{}, err
	}

	result, importErr := importer.Import(path, name)
	if importErr != nil {
		upload.Status = storage.StatusFailed
		upload.Error = importErr.Error()
		if err := s.store.SaveUpload(upload); err != nil {
			return upload, errors.Join(importErr, err)
		}
		logger.Warn("import failed", zap.Error(importErr))
		return upload, fmt.Errorf("import %s: %w", name, importErr)
	}

	upload.Status = storage.StatusPending
	upload.RowsRead = result.RowsRead
	upload.RowsDropped = result.RowsDropped
	if err := s.store.SaveUpload(upload); err != nil {
		return upload, err
	}
	count, err := s.store.ReplaceRecords(id, result.Records)
	if err != nil {
		upload.Status = storage.StatusFailed
		upload.Error = fmt.Sprintf("store records: %v", err)
		if saveErr := s.store.SaveUpload(upload); saveErr != nil {
			return upload, errors.Join(err, saveErr)
		}
		logger.Error("storing records failed", zap.Error(err))
		return upload, fmt.Errorf("store records of %s: %w", id, err)
	}

	upload.Status = storage.StatusImported
	upload.RecordCount = count
	if err := s.store.SaveUpload(upload); err != nil {
		return upload, err
	}

	logger.Info("import finished",
		zap.Int64("bytes", size),
		zap.Int("rows_read", result.RowsRead),
		zap.Int("rows_dropped", result.RowsDropped),
		zap.Int("records", count),
	)
	return upload, nil
}

// allocate reserves an upload ID and creates its raw file. IDs come from the
// wall clock; a short random suffix is added when the second is taken.
func (s *Service) allocate(at time.Time, format importer.Format) (string, *os.File, error) {
	s.allocMu.Lock()
	defer s.allocMu.Unlock()

	base := timeutil.UploadID(at)
	candidates := []string{base}
	for i := 0; i < 3; i++ {
		candidates = append(candidates, base+"-"+strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}

	for _, id := range candidates {
		exists, err := s.store.UploadExists(id)
		if err != nil {
			return "", nil, err
		}
		if exists {
			continue
		}

		path := filepath.Join(s.dir, id+"."+string(format))
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", nil, fmt.Errorf("create upload file: %w", err)
		}
		return id, file, nil
	}
	return "", nil, fmt.Errorf("allocate upload id for %s: all candidates taken", base)
}

// List returns every upload, newest first.
func (s *Service) List() ([]storage.Upload, error) {
	return s.store.ListUploads()
}

func (s *Service) Get(id string) (storage.Upload, error) {
	if !timeutil.ValidUploadID(id) {
		return storage.Upload{}, fmt.Errorf("%w: id %q", ErrInvalidUpload, id)
	}
	upload, found, err := s.store.GetUpload(id)
	if err != nil {
		return storage.Upload{}, err
	}
	if !found {
		return storage.Upload{}, fmt.Errorf("%w: %s", storage.ErrUploadNotFound, id)
	}
	return upload, nil
}

// RecordsJSON returns the normalized records of an imported upload.
func (s *Service) RecordsJSON(id string) ([]byte, error) {
	if !timeutil.ValidUploadID(id) {
		return nil, fmt.Errorf("%w: id %q", ErrInvalidUpload, id)
	}
	return s.store.RecordsJSON(id)
}

// Delete removes the upload, its records and its raw file.
func (s *Service) Delete(id string) error {
	upload, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, err := s.store.DeleteUpload(id); err != nil {
		return err
	}
	if upload.StoredPath != "" {
		if err := os.Remove(upload.StoredPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove upload file: %w", err)
		}
	}
	s.logger.Info("upload deleted", zap.String("upload_id", id))
	return nil
}

// DeleteAll removes every upload and the raw files the store knows about. It
// returns the number of uploads removed.
func (s *Service) DeleteAll() (int64, error) {
	uploads, err := s.store.ListUploads()
	if err != nil {
		return 0, err
	}
	removed, err := s.store.DeleteAllUploads()
	if err != nil {
		return 0, err
	}

	var fileErrs []error
	for _, item := range uploads {
		if item.StoredPath == "" {
			continue
		}
		if err := os.Remove(item.StoredPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fileErrs = append(fileErrs, err)
		}
	}
	s.logger.Info("uploads deleted", zap.Int64("count", removed))
	if len(fileErrs) > 0 {
		return removed, fmt.Errorf("remove upload files: %w", errors.Join(fileErrs...))
	}
	return removed, nil
}
