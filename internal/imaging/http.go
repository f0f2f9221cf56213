// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package imaging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/hara/internal/blob"
	"github.com/taibuivan/hara/internal/platform/apperr"
	"github.com/taibuivan/hara/internal/platform/constants"
	requestutil "github.com/taibuivan/hara/internal/platform/request"
	"github.com/taibuivan/hara/internal/platform/respond"
	"github.com/taibuivan/hara/internal/platform/validate"
)

// uploadField is the multipart field carrying the picture.
const uploadField = "file"

// Uploader stores processed pictures on a blob host.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader) (blob.Upload, error)
	DeleteByURL(ctx context.Context, url string) bool
}

// UploadResult is returned by POST /uploads.
type UploadResult struct {
	URL       string `json:"url"`
	Path      string `json:"path,omitempty"`
	Size      int64  `json:"size"`
	Processed bool   `json:"processed"`
	// Uploaded is false when URL is an inline data URL.
	Uploaded bool `json:"uploaded"`
}

type deleteRequest struct {
	URL string `json:"url"`
}

// # Handler

// Handler serves the image upload endpoint.
type Handler struct {
	uploader Uploader
	logger   *slog.Logger
}

// NewHandler builds the upload handler. A nil uploader keeps every upload inline.
func NewHandler(uploader Uploader, logger *slog.Logger) *Handler {
	return &Handler{uploader: uploader, logger: logger}
}

// Routes returns the upload routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.upload)
	router.Delete("/", handler.remove)
	return router
}

/*
POST /api/v1/uploads.

Description: Prepares a picture for the kiosk screen. The result is stored on
the blob host when one is configured, otherwise returned as a data URL.

Request:
  - multipart/form-data field "file"

Response:
  - 200: UploadResult
  - 400: VALIDATION_ERROR
  - 413: PAYLOAD_TOO_LARGE
  - 503: SERVICE_UNAVAILABLE when the blob host rejects the upload
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxUploadBytes)

	file, header, err := request.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(writer, request, apperr.PayloadTooLarge("Image exceeds the upload limit"))
			return
		}
		respond.Error(writer, request, apperr.ValidationError("A file field is required",
			apperr.FieldError{Field: uploadField, Message: "is required"}))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		respond.Error(writer, request, apperr.PayloadTooLarge("Image exceeds the upload limit"))
		return
	}
	if len(raw) == 0 {
		respond.Error(writer, request, apperr.ValidationError("The file is empty",
			apperr.FieldError{Field: uploadField, Message: "must not be empty"}))
		return
	}

	img := ProcessOrRaw(raw)
	if !img.Processed {
		handler.logger.WarnContext(request.Context(), "image_passthrough",
			slog.String("name", header.Filename),
			slog.String("content_type", img.ContentType),
		)
	}

	if handler.uploader == nil {
		respond.OK(writer, UploadResult{
			URL:       img.DataURL(),
			Size:      int64(len(img.Data)),
			Processed: img.Processed,
		})
		return
	}

	stored, err := handler.uploader.Upload(request.Context(), uploadName(header.Filename, img), bytes.NewReader(img.Data))
	if err != nil {
		respond.Error(writer, request, apperr.Unavailable("Blob host rejected the upload", err))
		return
	}

	respond.OK(writer, UploadResult{
		URL:       stored.URL,
		Path:      stored.Path,
		Size:      stored.Size,
		Processed: img.Processed,
		Uploaded:  true,
	})
}

/*
DELETE /api/v1/uploads.

Description: Removes a previously uploaded picture from the blob host. Links
the host does not recognise are ignored.

Request:
  - url: string, required

Response:
  - 204: No Content
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	var input deleteRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("url", input.URL)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if handler.uploader != nil && !handler.uploader.DeleteByURL(request.Context(), input.URL) {
		handler.logger.InfoContext(request.Context(), "upload_delete_skipped", slog.String("url", input.URL))
	}
	respond.NoContent(writer)
}

// uploadName keeps the client's base name with an extension that matches
// the stored bytes.
func uploadName(filename string, img Image) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	if img.Processed {
		return base + ".jpg"
	}
	return base + path.Ext(filename)
}
