package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"patchimport/importer"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "patchimport_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testUpload(id string, uploadedAt time.Time) Upload {
	return Upload{
		ID:           id,
		OriginalName: "report.csv",
		Format:       "csv",
		StoredPath:   "storage/uploads/" + id + ".csv",
		SizeBytes:    2048,
		Status:       StatusImported,
		UploadedAt:   uploadedAt,
	}
}

func testRecords() []importer.Record {
	return []importer.Record{
		importer.NewRecord(
			importer.Field{Name: importer.FieldComputerName, Value: importer.CastText(importer.FieldComputerName, "PC1")},
			importer.Field{Name: importer.FieldPatchID, Value: importer.CastText(importer.FieldPatchID, "1,050")},
		),
		importer.NewRecord(
			importer.Field{Name: importer.FieldComputerName, Value: importer.CastText(importer.FieldComputerName, "PC2")},
			importer.Field{Name: importer.FieldPatchID, Value: importer.CastText(importer.FieldPatchID, "")},
		),
	}
}

func TestSQLiteStore_SaveAndGetUpload(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	uploadedAt := time.Date(2025, 11, 10, 9, 5, 7, 0, time.UTC)
	if err := store.SaveUpload(testUpload("2025-11-10_09-05-07", uploadedAt)); err != nil {
		t.Fatalf("save upload: %v", err)
	}

	got, found, err := store.GetUpload("2025-11-10_09-05-07")
	if err != nil {
		t.Fatalf("get upload: %v", err)
	}
	if !found {
		t.Fatalf("expected upload to be found")
	}
	if got.OriginalName != "report.csv" || got.SizeBytes != 2048 || !got.UploadedAt.Equal(uploadedAt) {
		t.Fatalf("unexpected upload: %+v", got)
	}

	_, found, err = store.GetUpload("missing")
	if err != nil {
		t.Fatalf("get missing upload: %v", err)
	}
	if found {
		t.Fatalf("expected missing upload not to be found")
	}
}

func TestSQLiteStore_SaveUploadUpdatesExisting(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	upload := testUpload("a", time.Now().UTC())
	if err := store.SaveUpload(upload); err != nil {
		t.Fatalf("save upload: %v", err)
	}
	upload.Status = StatusFailed
	upload.Error = "unreadable source"
	if err := store.SaveUpload(upload); err != nil {
		t.Fatalf("update upload: %v", err)
	}

	uploads, err := store.ListUploads()
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 1 || uploads[0].Status != StatusFailed || uploads[0].Error != "unreadable source" {
		t.Fatalf("unexpected uploads: %+v", uploads)
	}
}

func TestSQLiteStore_ListUploadsNewestFirst(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	base := time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"older", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		if err := store.SaveUpload(testUpload(id, base.Add(offsets[i]))); err != nil {
			t.Fatalf("save upload %s: %v", id, err)
		}
	}

	uploads, err := store.ListUploads()
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	want := []string{"newest", "middle", "older"}
	if len(uploads) != len(want) {
		t.Fatalf("expected %d uploads, got %d", len(want), len(uploads))
	}
	for i, id := range want {
		if uploads[i].ID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, uploads[i].ID)
		}
	}
}

func TestSQLiteStore_ReplaceRecordsAndRead(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	if err := store.SaveUpload(testUpload("u1", time.Now().UTC())); err != nil {
		t.Fatalf("save upload: %v", err)
	}
	inserted, err := store.ReplaceRecords("u1", testRecords())
	if err != nil {
		t.Fatalf("replace records: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted records, got %d", inserted)
	}

	data, err := store.RecordsJSON("u1")
	if err != nil {
		t.Fatalf("records json: %v", err)
	}
	want := `[{"computer_name":"PC1","patch_id":1050},{"computer_name":"PC2","patch_id":null}]`
	if string(data) != want {
		t.Fatalf("unexpected JSON:\nwant %s\ngot  %s", want, data)
	}

	records, err := store.ListRecords("u1")
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	patchID, _ := records[0].Get(importer.FieldPatchID)
	if patchID.Int != 1050 {
		t.Fatalf("unexpected patch id %v", patchID.Interface())
	}

	upload, _, err := store.GetUpload("u1")
	if err != nil {
		t.Fatalf("get upload: %v", err)
	}
	if upload.RecordCount != 2 {
		t.Fatalf("expected record count 2, got %d", upload.RecordCount)
	}

	if _, err := store.ReplaceRecords("u1", testRecords()[:1]); err != nil {
		t.Fatalf("replace records again: %v", err)
	}
	records, err = store.ListRecords("u1")
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected replaced record set of 1, got %d", len(records))
	}
}

func TestSQLiteStore_ReplaceRecordsUnknownUpload(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	if _, err := store.ReplaceRecords("missing", testRecords()); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("expected ErrUploadNotFound, got %v", err)
	}
}

func TestSQLiteStore_RecordsOfFailedUploadNotFound(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	upload := testUpload("failed", time.Now().UTC())
	upload.Status = StatusFailed
	if err := store.SaveUpload(upload); err != nil {
		t.Fatalf("save upload: %v", err)
	}
	if _, err := store.RecordsJSON("failed"); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("expected ErrUploadNotFound, got %v", err)
	}
}

func TestSQLiteStore_EmptyRecordSet(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	if err := store.SaveUpload(testUpload("empty", time.Now().UTC())); err != nil {
		t.Fatalf("save upload: %v", err)
	}
	if _, err := store.ReplaceRecords("empty", nil); err != nil {
		t.Fatalf("replace records: %v", err)
	}
	data, err := store.RecordsJSON("empty")
	if err != nil {
		t.Fatalf("records json: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected empty array, got %s", data)
	}
}

func TestSQLiteStore_DeleteUpload(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	if err := store.SaveUpload(testUpload("u1", time.Now().UTC())); err != nil {
		t.Fatalf("save upload: %v", err)
	}
	if _, err := store.ReplaceRecords("u1", testRecords()); err != nil {
		t.Fatalf("replace records: %v", err)
	}

	deleted, err := store.DeleteUpload("u1")
	if err != nil {
		t.Fatalf("delete upload: %v", err)
	}
	if !deleted {
		t.Fatalf("expected upload to be deleted")
	}
	if _, err := store.ListRecords("u1"); !errors.Is(err, ErrUploadNotFound) {
		t.Fatalf("expected records to be gone, got %v", err)
	}

	deleted, err = store.DeleteUpload("u1")
	if err != nil {
		t.Fatalf("delete missing upload: %v", err)
	}
	if deleted {
		t.Fatalf("expected second delete to report nothing removed")
	}
}

func TestSQLiteStore_DeleteAllUploads(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	for _, id := range []string{"a", "b"} {
		if err := store.SaveUpload(testUpload(id, time.Now().UTC())); err != nil {
			t.Fatalf("save upload %s: %v", id, err)
		}
	}

	deleted, err := store.DeleteAllUploads()
	if err != nil {
		t.Fatalf("delete all uploads: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted uploads, got %d", deleted)
	}

	uploads, err := store.ListUploads()
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 0 {
		t.Fatalf("expected no uploads, got %d", len(uploads))
	}
}
