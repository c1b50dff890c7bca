package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/mvelasco/clipvault/internal/analysis"
	"github.com/mvelasco/clipvault/internal/blob"
	"github.com/mvelasco/clipvault/pkg/enums"
	pkgerrors "github.com/mvelasco/clipvault/pkg/errors"
	"github.com/mvelasco/clipvault/pkg/logger"
	"github.com/mvelasco/clipvault/pkg/metrics"
)

// MaxUploadBytes is the fixed upload ceiling (100 MiB).
const MaxUploadBytes = 100 << 20

const (
	adminAuthorLabel = "Admin"
	guestAuthorLabel = "Guest"
)

// Phases reported to the progress observer, in pipeline order.
const (
	PhaseValidating = "validating"
	PhaseStoring    = "storing"
	PhaseThumbnail  = "thumbnail"
	PhaseAnalyzing  = "analyzing"
	PhaseSaving     = "saving"
	PhaseComplete   = "complete"
)

var allowedMimeTypes = map[string]string{
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"video/quicktime":  ".mov",
	"video/x-matroska": ".mkv",
}

var safeExtension = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)

// ProgressFunc receives monotonically increasing progress updates while an
// upload pipeline runs.
type ProgressFunc func(phase string, percent int)

type metadataStore interface {
	LoadAll(ctx context.Context) ([]Record, error)
	SaveAll(ctx context.Context, records []Record) error
}

type blobStore interface {
	Put(storedName string, r io.Reader) (int64, error)
	Path(storedName string) (string, error)
	Delete(storedName string) error
	Clear() error
}

type thumbnailer interface {
	Extract(ctx context.Context, videoPath string) (string, error)
}

type analyzer interface {
	Analyze(ctx context.Context, thumbnailDataURL, originalName string) analysis.Result
}

// UploadInput models one incoming video file.
type UploadInput struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Content      io.Reader
	Progress     ProgressFunc
}

// Service is the gallery controller: it validates uploads, drives the blob
// store, thumbnail extractor and analysis client in sequence, and owns every
// mutation of the metadata collection.
type Service struct {
	meta     metadataStore
	blobs    blobStore
	thumbs   thumbnailer
	analyzer analyzer
	logg     *logger.Logger
	metrics  *metrics.UploadMetrics
	now      func() time.Time
}

// ServiceParams collects the dependencies for NewService.
type ServiceParams struct {
	Metadata   metadataStore
	Blobs      blobStore
	Thumbs     thumbnailer
	Analyzer   analyzer
	Logger     *logger.Logger
	Metrics    *metrics.UploadMetrics
	TimeSource func() time.Time
}

// NewService constructs the video service backed by the provided stores.
func NewService(params ServiceParams) (*Service, error) {
	if params.Metadata == nil {
		return nil, fmt.Errorf("metadata store required")
	}
	if params.Blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if params.Thumbs == nil {
		return nil, fmt.Errorf("thumbnail extractor required")
	}
	if params.Analyzer == nil {
		return nil, fmt.Errorf("analysis client required")
	}
	now := params.TimeSource
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		meta:     params.Metadata,
		blobs:    params.Blobs,
		thumbs:   params.Thumbs,
		analyzer: params.Analyzer,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// Upload runs the full pipeline: validation, blob write, thumbnail capture,
// remote analysis, record assembly, newest-first prepend and metadata commit.
// Validation failures happen before any side effect. A failure after the blob
// write deletes the just-written blob best-effort, so the metadata document
// stays the single source of truth for which blobs exist.
func (s *Service) Upload(ctx context.Context, role enums.Role, input UploadInput) (*Record, error) {
	start := s.now()
	progress := input.Progress
	if progress == nil {
		progress = func(string, int) {}
	}

	progress(PhaseValidating, 5)
	if err := s.validate(role, input); err != nil {
		s.observeUpload(err, start)
		return nil, err
	}

	id := uuid.New()
	storedName := id.String() + storageExtension(input.OriginalName, input.MimeType)

	ctx = s.withVideoID(ctx, id)

	progress(PhaseStoring, 25)
	written, err := s.blobs.Put(storedName, input.Content)
	if err != nil {
		err = pkgerrors.Wrap(pkgerrors.CodeStorage, err, "upload failed")
		s.observeUpload(err, start)
		return nil, err
	}

	progress(PhaseThumbnail, 50)
	blobPath, err := s.blobs.Path(storedName)
	if err == nil {
		var thumb string
		thumb, err = s.thumbs.Extract(ctx, blobPath)
		if err == nil {
			return s.finishUpload(ctx, id, storedName, thumb, written, input, progress, start)
		}
	}

	// Thumbnail (or path resolution) failed after the blob write: clean up.
	s.discardBlob(ctx, storedName)
	err = pkgerrors.Wrap(pkgerrors.CodeStorage, err, "upload failed")
	s.observeUpload(err, start)
	return nil, err
}

func (s *Service) finishUpload(
	ctx context.Context,
	id uuid.UUID,
	storedName, thumbnail string,
	written int64,
	input UploadInput,
	progress ProgressFunc,
	start time.Time,
) (*Record, error) {
	progress(PhaseAnalyzing, 75)
	result := s.analyzer.Analyze(ctx, thumbnail, input.OriginalName)
	if result.Fallback {
		s.metrics.IncAnalysisFallback()
	}

	record := Record{
		ID:           id,
		Title:        result.Title,
		Description:  result.Description,
		OriginalName: input.OriginalName,
		StoredName:   storedName,
		SizeBytes:    written,
		MimeType:     normalizeMime(input.MimeType),
		UploadedAt:   s.now(),
		Thumbnail:    thumbnail,
		Tags:         result.Tags,
		Comments:     []Comment{},
	}
	record.normalize()

	progress(PhaseSaving, 90)
	collection, err := s.meta.LoadAll(ctx)
	if err == nil {
		// Newest first.
		collection = append([]Record{record}, collection...)
		err = s.meta.SaveAll(ctx, collection)
	}
	if err != nil {
		s.discardBlob(ctx, storedName)
		err = pkgerrors.Wrap(pkgerrors.CodeStorage, err, "upload failed")
		s.observeUpload(err, start)
		return nil, err
	}

	progress(PhaseComplete, 100)
	s.observeUpload(nil, start)
	if s.logg != nil {
		s.logg.Info(ctx, "upload.complete")
	}
	return &record, nil
}

func (s *Service) validate(role enums.Role, input UploadInput) error {
	if !role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin session required to upload")
	}

	mimeType := normalizeMime(input.MimeType)
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return pkgerrors.New(pkgerrors.CodeInvalidType, "unsupported video type").
			WithDetails(map[string]any{"mime_type": input.MimeType})
	}

	if input.SizeBytes <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "file size must be positive")
	}
	if input.SizeBytes > MaxUploadBytes {
		return pkgerrors.New(pkgerrors.CodeTooLarge, "file exceeds the 100 MiB upload ceiling").
			WithDetails(map[string]any{"size_bytes": input.SizeBytes})
	}

	if input.Content == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "file content required")
	}
	return nil
}

// List returns all records, newest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	records, err := s.meta.LoadAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load videos")
	}
	return records, nil
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	records, err := s.meta.LoadAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load videos")
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
}

// MediaPath resolves the on-disk blob for a record. A record whose blob is
// absent is a recoverable integrity fault: the caller gets a MediaMissing
// error and the record remains browsable.
func (s *Service) MediaPath(ctx context.Context, id uuid.UUID) (string, *Record, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	path, err := s.blobs.Path(record.StoredName)
	if errors.Is(err, blob.ErrNotFound) {
		return "", nil, pkgerrors.New(pkgerrors.CodeMediaMissing, "media missing for this video").
			WithDetails(map[string]any{"video_id": id.String()})
	}
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "resolve media")
	}
	return path, record, nil
}

// Delete removes one video from both stores. The metadata commit happens
// first; a blob left behind by a failed removal is garbage-collectible and
// only logged.
func (s *Service) Delete(ctx context.Context, role enums.Role, id uuid.UUID) error {
	if !role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin session required to delete")
	}

	records, err := s.meta.LoadAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load videos")
	}

	var target *Record
	remaining := make([]Record, 0, len(records))
	for i := range records {
		if records[i].ID == id {
			target = &records[i]
			continue
		}
		remaining = append(remaining, records[i])
	}
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}

	if err := s.meta.SaveAll(ctx, remaining); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete video")
	}

	s.discardBlob(s.withVideoID(ctx, id), target.StoredName)
	return nil
}

// DeleteAll wipes the metadata document and every blob together.
func (s *Service) DeleteAll(ctx context.Context, role enums.Role) error {
	if !role.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin session required to delete")
	}

	err := multierr.Combine(
		s.meta.SaveAll(ctx, []Record{}),
		s.blobs.Clear(),
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "wipe gallery")
	}
	return nil
}

func (s *Service) discardBlob(ctx context.Context, storedName string) {
	if err := s.blobs.Delete(storedName); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "stored_name", storedName), "orphaned blob left behind")
	}
}

func (s *Service) withVideoID(ctx context.Context, id uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithVideoID(ctx, id.String())
}

func (s *Service) observeUpload(err error, start time.Time) {
	outcome := "success"
	if typed := pkgerrors.As(err); typed != nil {
		outcome = strings.ToLower(string(typed.Code()))
	} else if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveUpload(outcome, s.now().Sub(start))
}

func normalizeMime(value string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(value))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return strings.ToLower(mediaType)
}

// storageExtension derives a safe extension for the stored filename. The
// original filename is never trusted: anything but a short alphanumeric
// extension falls back to the one implied by the mime type.
func storageExtension(originalName, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(strings.TrimSpace(originalName))))
	if safeExtension.MatchString(ext) {
		return ext
	}
	if mapped, ok := allowedMimeTypes[normalizeMime(mimeType)]; ok {
		return mapped
	}
	return ".bin"
}
