package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"patchimport/importer"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Upload statuses. An upload stays pending until its records are committed.
const (
	StatusPending  = "pending"
	StatusImported = "imported"
	StatusFailed   = "failed"
)

// Upload is one stored source file and the outcome of importing it.
type Upload struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Format       string    `json:"format"`
	StoredPath   string    `json:"stored_path"`
	SizeBytes    int64     `json:"size_bytes"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	RowsRead     int       `json:"rows_read"`
	RowsDropped  int       `json:"rows_dropped"`
	RecordCount  int       `json:"record_count"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Imported reports whether the upload has a normalized record set.
func (u Upload) Imported() bool {
	return u.Status == StatusImported
}

type SQLiteStore struct {
	db *sql.DB
}

var ErrUploadNotFound = errors.New("upload not found")

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database still answers.
func (s *SQLiteStore) Ping() error {
	var one int
	if err := s.db.QueryRow(`SELECT 1;`).Scan(&one); err != nil {
		return fmt.Errorf("query sqlite db: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id TEXT PRIMARY KEY,
	original_name TEXT NOT NULL,
	format TEXT NOT NULL,
	stored_path TEXT NOT NULL,
	size_bytes INTEGER NOT NULL CHECK(size_bytes >= 0),
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	rows_read INTEGER NOT NULL DEFAULT 0,
	rows_dropped INTEGER NOT NULL DEFAULT 0,
	record_count INTEGER NOT NULL DEFAULT 0,
	uploaded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	upload_id TEXT NOT NULL,
	position INTEGER NOT NULL CHECK(position >= 0),
	payload TEXT NOT NULL,
	PRIMARY KEY (upload_id, position)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveUpload inserts the upload or replaces the stored row with the same ID.
func (s *SQLiteStore) SaveUpload(upload Upload) error {
	if strings.TrimSpace(upload.ID) == "" {
		return fmt.Errorf("upload id is required")
	}

	const upsertStmt = `
INSERT INTO uploads (
	id,
	original_name,
	format,
	stored_path,
	size_bytes,
	status,
	error,
	rows_read,
	rows_dropped,
	record_count,
	uploaded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	original_name = excluded.original_name,
	format = excluded.format,
	stored_path = excluded.stored_path,
	size_bytes = excluded.size_bytes,
	status = excluded.status,
	error = excluded.error,
	rows_read = excluded.rows_read,
	rows_dropped = excluded.rows_dropped,
	record_count = excluded.record_count,
	uploaded_at = excluded.uploaded_at;`

	_, err := s.db.Exec(
		upsertStmt,
		upload.ID,
		upload.OriginalName,
		upload.Format,
		upload.StoredPath,
		upload.SizeBytes,
		upload.Status,
		upload.Error,
		upload.RowsRead,
		upload.RowsDropped,
		upload.RecordCount,
		upload.UploadedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save upload %s: %w", upload.ID, err)
	}
	return nil
}

// UploadExists reports whether an upload with id is stored.
func (s *SQLiteStore) UploadExists(id string) (bool, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM uploads WHERE id = ?;`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("query upload %s: %w", id, err)
	}
	return count > 0, nil
}

// ReplaceRecords stores records as the complete record set of an upload.
func (s *SQLiteStore) ReplaceRecords(uploadID string, records []importer.Record) (int, error) {
	exists, err := s.UploadExists(uploadID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM records WHERE upload_id = ?;`, uploadID); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("clear records of %s: %w", uploadID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO records (upload_id, position, payload) VALUES (?, ?, ?);`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for position, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("encode record %d: %w", position, err)
		}
		if _, err := stmt.Exec(uploadID, position, string(payload)); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert record %d: %w", position, err)
		}
		inserted++
	}

	if _, err := tx.Exec(`UPDATE uploads SET record_count = ? WHERE id = ?;`, inserted, uploadID); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("update record count of %s: %w", uploadID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

// ListUploads returns every upload, newest first.
func (s *SQLiteStore) ListUploads() ([]Upload, error) {
	rows, err := s.db.Query(selectUploads + ` ORDER BY uploaded_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]Upload, 0, 32)
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return uploads, nil
}

// GetUpload returns one upload by ID.
func (s *SQLiteStore) GetUpload(id string) (Upload, bool, error) {
	upload, err := scanUpload(s.db.QueryRow(selectUploads+` WHERE id = ?;`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Upload{}, false, nil
		}
		return Upload{}, false, err
	}
	return upload, true, nil
}

// ListRecords decodes the stored record set of an upload in position order.
func (s *SQLiteStore) ListRecords(uploadID string) ([]importer.Record, error) {
	payloads, err := s.recordPayloads(uploadID)
	if err != nil {
		return nil, err
	}

	records := make([]importer.Record, 0, len(payloads))
	for i, payload := range payloads {
		var record importer.Record
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("decode record %d of %s: %w", i, uploadID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// RecordsJSON returns the stored record set of an upload as one JSON array.
func (s *SQLiteStore) RecordsJSON(uploadID string) ([]byte, error) {
	payloads, err := s.recordPayloads(uploadID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payloads)
	if err != nil {
		return nil, fmt.Errorf("encode records of %s: %w", uploadID, err)
	}
	return data, nil
}

func (s *SQLiteStore) recordPayloads(uploadID string) ([]json.RawMessage, error) {
	upload, found, err := s.GetUpload(uploadID)
	if err != nil {
		return nil, err
	}
	if !found || !upload.Imported() {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}

	rows, err := s.db.Query(`SELECT payload FROM records WHERE upload_id = ? ORDER BY position;`, uploadID)
	if err != nil {
		return nil, fmt.Errorf("query records of %s: %w", uploadID, err)
	}
	defer rows.Close()

	payloads := make([]json.RawMessage, 0, upload.RecordCount)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		payloads = append(payloads, json.RawMessage(payload))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return payloads, nil
}

// DeleteUpload removes an upload and its records.
func (s *SQLiteStore) DeleteUpload(id string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM records WHERE upload_id = ?;`, id); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("delete records of %s: %w", id, err)
	}
	res, err := tx.Exec(`DELETE FROM uploads WHERE id = ?;`, id)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("delete upload %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("read deleted row count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteAllUploads removes every upload and record and returns the number of uploads removed.
func (s *SQLiteStore) DeleteAllUploads() (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM records;`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete records: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM uploads;`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete uploads: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return rows, nil
}

const selectUploads = `
SELECT
	id,
	original_name,
	format,
	stored_path,
	size_bytes,
	status,
	error,
	rows_read,
	rows_dropped,
	record_count,
	uploaded_at
FROM uploads`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (Upload, error) {
	var (
		upload      Upload
		uploadedRaw string
	)
	if err := row.Scan(
		&upload.ID,
		&upload.OriginalName,
		&upload.Format,
		&upload.StoredPath,
		&upload.SizeBytes,
		&upload.Status,
		&upload.Error,
		&upload.RowsRead,
		&upload.RowsDropped,
		&upload.RecordCount,
		&uploadedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Upload{}, err
		}
		return Upload{}, fmt.Errorf("scan upload: %w", err)
	}

	uploadedAt, err := time.Parse(time.RFC3339, uploadedRaw)
	if err != nil {
		return Upload{}, fmt.Errorf("parse uploaded_at %q: %w", uploadedRaw, err)
	}
	upload.UploadedAt = uploadedAt
	return upload, nil
}
