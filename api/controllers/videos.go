package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvelasco/clipvault/api/middleware"
	"github.com/mvelasco/clipvault/api/responses"
	"github.com/mvelasco/clipvault/internal/videos"
	pkgerrors "github.com/mvelasco/clipvault/pkg/errors"
	"github.com/mvelasco/clipvault/pkg/logger"
)

// multipartMemoryLimit bounds how much of the form is buffered in memory;
// larger parts spill to temp files.
const multipartMemoryLimit = 32 << 20

func videoIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "videoId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid video id")
	}
	return id, nil
}

// VideoList returns all gallery records, newest first.
func VideoList(service *videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := service.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// VideoDetail returns one record by id.
func VideoDetail(service *videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := videoIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := service.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// VideoUpload accepts one multipart video file under the "file" field and
// runs the full ingest pipeline.
func VideoUpload(service *videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Headroom over the file ceiling for the multipart framing itself.
		r.Body = http.MaxBytesReader(w, r.Body, videos.MaxUploadBytes+multipartMemoryLimit)

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "upload exceeds the size limit"))
				return
			}
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed multipart body"))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field required"))
			return
		}
		defer file.Close()

		record, err := service.Upload(r.Context(), middleware.RoleFromContext(r.Context()), videos.UploadInput{
			OriginalName: header.Filename,
			MimeType:     header.Header.Get("Content-Type"),
			SizeBytes:    header.Size,
			Content:      file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// VideoMedia streams the raw bytes for playback. Range requests are handled
// by the standard file server so browsers can seek.
func VideoMedia(service *videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := videoIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		path, record, err := service.MediaPath(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if record.MimeType != "" {
			w.Header().Set("Content-Type", record.MimeType)
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", record.OriginalName))
		http.ServeFile(w, r, path)
	}
}

// VideoDelete removes one video and its blob.
func VideoDelete(service *videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := videoIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := service.Delete(r.Context(), middleware.RoleFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// VideoDeleteAll wipes the whole gallery.
func VideoDeleteAll(service *videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := service.DeleteAll(r.Context(), middleware.RoleFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
