package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvelasco/clipvault/api/controllers"
	"github.com/mvelasco/clipvault/internal/analysis"
	"github.com/mvelasco/clipvault/internal/blob"
	"github.com/mvelasco/clipvault/internal/videos"
	pkgAuth "github.com/mvelasco/clipvault/pkg/auth"
	"github.com/mvelasco/clipvault/pkg/config"
	"github.com/mvelasco/clipvault/pkg/enums"
	"github.com/mvelasco/clipvault/pkg/db"
	"github.com/mvelasco/clipvault/pkg/metrics"
	"github.com/mvelasco/clipvault/pkg/security"
	"github.com/mvelasco/clipvault/pkg/types"
)

const testAdminPassword = "correct horse battery staple"

type fixedThumbnailer struct{}

func (fixedThumbnailer) Extract(ctx context.Context, videoPath string) (string, error) {
	return "data:image/jpeg;base64,AAAA", nil
}

type fixedAnalyzer struct{}

func (fixedAnalyzer) Analyze(ctx context.Context, thumbnailDataURL, originalName string) analysis.Result {
	return analysis.Result{
		Title:       "Stub Title",
		Description: "A stubbed description.",
		Tags:        []string{"one", "two", "three", "four", "five"},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	hash, err := security.HashPassword(testAdminPassword, config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		App:  config.AppConfig{Env: "development", Port: "0"},
		JWT:  config.JWTConfig{Secret: "router-test-secret", Issuer: "clipvault-test", ExpirationMinutes: 10},
		Auth: config.AuthConfig{AdminPasswordHash: hash},
	}

	client, err := db.New(context.Background(), config.DBConfig{
		Path:        filepath.Join(t.TempDir(), "router.db"),
		BusyTimeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	repo := videos.NewRepository(client.DB())
	require.NoError(t, repo.Migrate(context.Background()))

	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	service, err := videos.NewService(videos.ServiceParams{
		Metadata: repo,
		Blobs:    blobs,
		Thumbs:   fixedThumbnailer{},
		Analyzer: fixedAnalyzer{},
		Metrics:  metrics.NewUploadMetrics(registry),
	})
	require.NoError(t, err)

	return NewRouter(Deps{
		Config:       cfg,
		VideoService: service,
		HealthChecks: map[string]controllers.Pinger{"database": client, "blob_store": blobs},
		Metrics:      registry,
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/session/login", "", map[string]string{"password": testAdminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var reply struct {
		Token string `json:"token"`
	}
	decodeData(t, rec, &reply)
	require.NotEmpty(t, reply.Token)
	return reply.Token
}

func uploadVideo(t *testing.T, handler http.Handler, token, filename string) videos.Record {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "video/mp4")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("v"), 4096))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var record videos.Record
	decodeData(t, rec, &record)
	return record
}

func TestHealthLive(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "development", rec.Header().Get("X-ClipVault-Env"))
}

func TestHealthReady(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/session/login", "", map[string]string{"password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "UNAUTHORIZED", envelope.Error.Code)
}

func TestSessionMeReflectsRole(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/session/me", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var guest struct {
		Role    string `json:"role"`
		IsAdmin bool   `json:"is_admin"`
	}
	decodeData(t, rec, &guest)
	assert.Equal(t, "guest", guest.Role)
	assert.False(t, guest.IsAdmin)

	token := login(t, handler)
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/session/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var admin struct {
		Role    string `json:"role"`
		IsAdmin bool   `json:"is_admin"`
	}
	decodeData(t, rec, &admin)
	assert.True(t, admin.IsAdmin)
}

func TestUploadRequiresAdmin(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadRejectsMalformedMultipart(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)
	token := login(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/", bytes.NewReader([]byte("not multipart at all")))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=deadbeef")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestUploadListDetailMediaFlow(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)
	token := login(t, handler)

	record := uploadVideo(t, handler, token, "trip.mp4")
	assert.Equal(t, "Stub Title", record.Title)
	assert.Equal(t, int64(4096), record.SizeBytes)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/videos/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []videos.Record
	decodeData(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, record.ID, list[0].ID)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/videos/"+record.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/videos/"+record.ID.String()+"/media", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, 4096, rec.Body.Len())
}

func TestCommentFlow(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)
	token := login(t, handler)
	record := uploadVideo(t, handler, token, "trip.mp4")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/videos/"+record.ID.String()+"/comments", "", map[string]string{"text": "great clip"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var comment videos.Comment
	decodeData(t, rec, &comment)
	assert.Equal(t, "Guest", comment.Author)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/videos/"+record.ID.String()+"/comments", token, map[string]string{"text": "from the trip"})
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeData(t, rec, &comment)
	assert.Equal(t, "Admin", comment.Author)
	assert.True(t, comment.PostedAsAdmin)
}

func TestDeleteWithNonAdminTokenIsForbidden(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)
	token := login(t, handler)
	record := uploadVideo(t, handler, token, "guarded.mp4")

	guestToken, err := pkgAuth.MintSessionToken(config.JWTConfig{
		Secret:            "router-test-secret",
		Issuer:            "clipvault-test",
		ExpirationMinutes: 10,
	}, time.Now().UTC(), pkgAuth.SessionTokenPayload{Role: enums.RoleGuest})
	require.NoError(t, err)

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/videos/"+record.ID.String(), guestToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "FORBIDDEN", envelope.Error.Code)
}

func TestDeleteFlow(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)
	token := login(t, handler)
	record := uploadVideo(t, handler, token, "doomed.mp4")

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/videos/"+record.ID.String(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/videos/"+record.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/videos/"+record.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAllFlow(t *testing.T) {
	t.Parallel()
	handler := newTestRouter(t)
	token := login(t, handler)
	uploadVideo(t, handler, token, "one.mp4")
	uploadVideo(t, handler, token, "two.mp4")

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/videos/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/videos/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []videos.Record
	decodeData(t, rec, &list)
	assert.Empty(t, list)
}
