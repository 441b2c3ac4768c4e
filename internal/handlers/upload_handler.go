package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/inkwell/internal/interfaces"
	"github.com/ternarybob/inkwell/internal/models"
	"github.com/ternarybob/inkwell/internal/services/handwriting"
	"github.com/ternarybob/inkwell/internal/services/scratch"
)

// uploadField is the multipart field carrying the document
const uploadField = "file"

var (
	errNoFilePart     = errors.New("no file part in the request")
	errNoFileSelected = errors.New("no file selected for upload")
)

// UploadHandler serves the upload, render and extract endpoints
type UploadHandler struct {
	conversion interfaces.ConversionService
	store      interfaces.ScratchStore
	maxBytes   int64
	logger     arbor.ILogger
}

// NewUploadHandler creates the upload handler. maxBytes caps the request body.
func NewUploadHandler(conversion interfaces.ConversionService, store interfaces.ScratchStore, maxBytes int64, logger arbor.ILogger) *UploadHandler {
	return &UploadHandler{
		conversion: conversion,
		store:      store,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// UploadHandler renders the upload as handwriting. A single page comes back as PNG, longer
// text as PDF.
func (h *UploadHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, models.OutputAuto)
}

// PDFUploadHandler renders the upload as a handwriting PDF regardless of page count
func (h *UploadHandler) PDFUploadHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, models.OutputPDF)
}

// ExtractHandler returns the extracted text as JSON without rendering
func (h *UploadHandler) ExtractHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	file, filename, cleanup, err := h.readUpload(w, r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	defer cleanup()

	doc, err := h.conversion.ExtractUpload(r.Context(), filename, file)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "File uploaded successfully",
		"text":    doc.Text,
	})
}

func (h *UploadHandler) render(w http.ResponseWriter, r *http.Request, kind models.OutputKind) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	file, filename, cleanup, err := h.readUpload(w, r)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	defer cleanup()

	out, err := h.conversion.RenderUpload(r.Context(), filename, file, kind)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	defer h.store.Remove(out.Path)

	f, err := os.Open(out.Path)
	if err != nil {
		h.writeFailure(w, r, fmt.Errorf("failed to open rendered output: %w", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.writeFailure(w, r, fmt.Errorf("failed to stat rendered output: %w", err))
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	http.ServeContent(w, r, out.Filename, info.ModTime(), f)

	h.logger.Info().
		Str("filename", filename).
		Str("download", out.Filename).
		Int("pages", out.Pages).
		Int64("bytes", info.Size()).
		Msg("Served handwriting output")
}

// readUpload parses the multipart body and returns the uploaded file. A part named "file"
// with an empty filename is stored by mime/multipart as a plain value, which is how a
// browser reports that no file was chosen.
func (h *UploadHandler) readUpload(w http.ResponseWriter, r *http.Request) (io.Reader, string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", nil, err
		}
		// Spilling large parts to disk is the only server side failure; anything else is a
		// malformed or empty multipart body
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, "", nil, fmt.Errorf("failed to parse upload: %w", err)
		}
		return nil, "", nil, fmt.Errorf("%w: %w", errNoFilePart, err)
	}

	form := r.MultipartForm
	headers := form.File[uploadField]
	if len(headers) == 0 {
		form.RemoveAll()
		if _, ok := form.Value[uploadField]; ok {
			return nil, "", nil, errNoFileSelected
		}
		return nil, "", nil, errNoFilePart
	}

	header := headers[0]
	if header.Filename == "" {
		form.RemoveAll()
		return nil, "", nil, errNoFileSelected
	}

	file, err := header.Open()
	if err != nil {
		form.RemoveAll()
		return nil, "", nil, fmt.Errorf("failed to open upload: %w", err)
	}

	cleanup := func() {
		file.Close()
		form.RemoveAll()
	}
	return file, header.Filename, cleanup, nil
}

// writeFailure is the one place pipeline errors become HTTP statuses
func (h *UploadHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError

	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, errNoFilePart):
		status = http.StatusBadRequest
		message = "No file part in the request"
	case errors.Is(err, errNoFileSelected):
		status = http.StatusBadRequest
		message = "No file selected for upload"
	case errors.Is(err, handwriting.ErrEmptyText):
		status = http.StatusBadRequest
		message = "No text content to render"
	case errors.Is(err, handwriting.ErrTooLong):
		status = http.StatusRequestEntityTooLarge
		message = "Document is too long to render"
	case errors.Is(err, scratch.ErrInvalidName):
		status = http.StatusBadRequest
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		message = fmt.Sprintf("Upload exceeds the %d byte limit", tooLarge.Limit)
	}

	logEvent := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		logEvent = h.logger.Error()
	}
	logEvent.Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Upload request failed")

	WriteError(w, status, message)
}
