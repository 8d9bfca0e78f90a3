// Package web serves the upload page and the JSON API. It is meant for a
// trusted network and has no auth or CSRF protection.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"patchimport/internal/logging"
	"patchimport/preflight"
	"patchimport/storage"
	"patchimport/upload"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultMaxUploadBytes = 32 << 20
	multipartMemory       = 8 << 20
	uploadedAtLayout      = "2006-01-02 15:04:05"
)

// Uploads is the upload service the handlers drive.
type Uploads interface {
	Accept(ctx context.Context, originalName string, content io.Reader) (storage.Upload, error)
	List() ([]storage.Upload, error)
	RecordsJSON(id string) ([]byte, error)
	Delete(id string) error
}

// Checker produces the readiness report served at /api/checks.
type Checker func() preflight.Report

type Options struct {
	MaxUploadBytes int64
	Logger         *zap.Logger
}

type Server struct {
	uploads        Uploads
	checks         Checker
	logger         *zap.Logger
	maxUploadBytes int64
	router         *chi.Mux
}

type uploadRowView struct {
	ID           string
	File         string
	OriginalName string
	Ext          string
	UploadedAt   string
	SizeKB       string
	Imported     bool
	Status       string
	Error        string
	RecordCount  int
}

type indexPageView struct {
	Title   string
	Uploads []uploadRowView
}

type errorResponse struct {
	Error    string `json:"error"`
	UploadID string `json:"upload_id,omitempty"`
}

func NewServer(uploads Uploads, checks Checker, opts Options) http.Handler {
	server := &Server{
		uploads:        uploads,
		checks:         checks,
		logger:         opts.Logger,
		maxUploadBytes: opts.MaxUploadBytes,
		router:         chi.NewRouter(),
	}
	if server.logger == nil {
		server.logger = zap.NewNop()
	}
	if server.maxUploadBytes <= 0 {
		server.maxUploadBytes = defaultMaxUploadBytes
	}

	r := server.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(server.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", server.handleIndex)
	r.Post("/", server.handleFormUpload)

	r.Route("/api", func(r chi.Router) {
		r.Get("/uploads", server.handleAPIUploads)
		r.Post("/uploads", server.handleAPIUpload)
		r.Get("/uploads/{id}/records", server.handleAPIRecords)
		r.Delete("/uploads/{id}", server.handleAPIDelete)
		r.Get("/checks", server.handleAPIChecks)
	})

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") == "view" {
		s.writeRecords(w, r, r.URL.Query().Get("id"))
		return
	}

	uploads, err := s.uploads.List()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("list uploads: %w", err), http.StatusInternalServerError)
		return
	}

	view := indexPageView{Title: "Patch report import", Uploads: make([]uploadRowView, 0, len(uploads))}
	for _, item := range uploads {
		view.Uploads = append(view.Uploads, uploadRowView{
			ID:           item.ID,
			File:         filepath.Base(item.StoredPath),
			OriginalName: item.OriginalName,
			Ext:          item.Format,
			UploadedAt:   item.UploadedAt.Local().Format(uploadedAtLayout),
			SizeKB:       fmt.Sprintf("%.1f", float64(item.SizeBytes)/1024),
			Imported:     item.Imported(),
			Status:       item.Status,
			Error:        item.Error,
			RecordCount:  item.RecordCount,
		})
	}

	if err := renderTemplate(w, "index.html", view); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

func (s *Server) handleFormUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.acceptUpload(w, r); !ok {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	item, ok := s.acceptUpload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// acceptUpload reads the multipart "file" field and hands it to the upload
// service. It writes the error response itself and reports false on failure.
func (s *Server) acceptUpload(w http.ResponseWriter, r *http.Request) (storage.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return storage.Upload{}, false
		}
		s.respondError(w, r, errors.New("no file received"), http.StatusBadRequest)
		return storage.Upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errors.New("no file received"), http.StatusBadRequest)
		return storage.Upload{}, false
	}
	defer file.Close()

	item, err := s.uploads.Accept(r.Context(), header.Filename, file)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, upload.ErrInvalidUpload) {
			status = http.StatusBadRequest
		}
		s.respondErrorFor(w, r, err, status, item.ID)
		return storage.Upload{}, false
	}
	return item, true
}

func (s *Server) handleAPIUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.uploads.List()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("list uploads: %w", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}

func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	s.writeRecords(w, r, chi.URLParam(r, "id"))
}

func (s *Server) writeRecords(w http.ResponseWriter, r *http.Request, id string) {
	data, err := s.uploads.RecordsJSON(strings.TrimSpace(id))
	if err != nil {
		s.respondError(w, r, err, statusForLookup(err))
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		s.respondError(w, r, fmt.Errorf("format records: %w", err), http.StatusInternalServerError)
		return
	}
	pretty.WriteByte('\n')

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = pretty.WriteTo(w)
}

func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.uploads.Delete(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err, statusForLookup(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIChecks(w http.ResponseWriter, r *http.Request) {
	if s.checks == nil {
		s.respondError(w, r, errors.New("readiness checks are not configured"), http.StatusNotImplemented)
		return
	}
	report := s.checks()
	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func statusForLookup(err error) int {
	switch {
	case errors.Is(err, upload.ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUploadNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	s.respondErrorFor(w, r, err, status, "")
}

func (s *Server) respondErrorFor(w http.ResponseWriter, r *http.Request, err error, status int, uploadID string) {
	logger := logging.FromContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), UploadID: uploadID})
}

func renderTemplate(w http.ResponseWriter, pageTemplate string, data any) error {
	tmpl, err := template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/"+pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", pageTemplate, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render template %s: %w", pageTemplate, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
