package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/molgrid/pkg/cache"
	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/observability"
	"github.com/matzehuels/molgrid/pkg/observability/prom"
	"github.com/matzehuels/molgrid/pkg/options"
	"github.com/matzehuels/molgrid/pkg/pipeline"
)

const twoStructures = `[
  {"title": "ethane", "atoms": [{"symbol": "C", "x": 0}, {"symbol": "C", "x": 1.5}], "bonds": [{"begin": 0, "end": 1}]},
  {"title": "ethene", "atoms": [{"symbol": "C", "x": 0}, {"symbol": "C", "x": 1.3}], "bonds": [{"begin": 0, "end": 1, "order": 2}]}
]`

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	return New(pipeline.NewRunner(fc, nil, nil), opts...)
}

func post(t *testing.T, s *Server, query, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/render"+query, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","build":{"version":"dev","commit":"none","date":"unknown"}}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRenderImage(t *testing.T) {
	s := newTestServer(t)
	rec := post(t, s, "?opt=p=90&opt=c=1", twoStructures)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "miss", rec.Header().Get(HeaderCache))
	assert.Equal(t, "2", rec.Header().Get(HeaderStructures))

	img, _, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 90, 180), img.Bounds())

	again := post(t, s, "?opt=c=1&opt=p=90", twoStructures)
	assert.Equal(t, "hit", again.Header().Get(HeaderCache), "option order must not matter")
}

func TestRenderDefaultsUnderRequestOptions(t *testing.T) {
	defaults, err := options.Parse([]string{"p=50", "c=1"})
	require.NoError(t, err)
	s := newTestServer(t, WithDefaults(defaults), WithDefaultFormat("jpg"))

	rec := post(t, s, "?opt=c=2", twoStructures)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	cfg, _, err := image.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestRenderSplit(t *testing.T) {
	s := newTestServer(t)
	rec := post(t, s, "?split=true&opt=p=40", twoStructures)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body splitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Images, 2)
	assert.Equal(t, "image/png", body.ContentType)
}

func TestRenderEarlyStopHeader(t *testing.T) {
	s := newTestServer(t)
	rec := post(t, s, "?opt=N=1", twoStructures)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(HeaderStopped))
	assert.Equal(t, "1", rec.Header().Get(HeaderStructures))
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown option", "?opt=z", twoStructures, http.StatusBadRequest, errors.ErrCodeInvalidOption},
		{"bad option value", "?opt=c=0", twoStructures, http.StatusBadRequest, errors.ErrCodeInvalidOption},
		{"bad format", "?format=svg", twoStructures, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad split", "?split=maybe", twoStructures, http.StatusBadRequest, errors.ErrCodeInvalidOption},
		{"malformed json", "", `[{"atoms": `, http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput},
		{"reaction record", "", `[{"kind": "reaction"}]`, http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput},
		{"empty input", "", `[]`, http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput},
		{"no coordinates", "", `[{"title": "x", "atoms": [{"symbol": "C"}, {"symbol": "O"}], "bonds": [{"begin": 0, "end": 1}]}]`,
			http.StatusInternalServerError, errors.ErrCodeConfiguration},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s, tt.query, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, tt.code, detail.Code)
			assert.NotEmpty(t, detail.RequestID)
		})
	}
}

func TestRenderBodyTooLarge(t *testing.T) {
	s := newTestServer(t, WithMaxBodyBytes(16))
	rec := post(t, s, "", twoStructures)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123<script>")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123script", rec.Header().Get(RequestIDHeader))
}

func TestSanitizeRequestID(t *testing.T) {
	assert.Equal(t, "a.b_c-1", sanitizeRequestID("a.b_c-1"))
	assert.Equal(t, "", sanitizeRequestID("!!!"))
	assert.Len(t, sanitizeRequestID(strings.Repeat("x", 100)), 64)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := prom.NewHooks(reg)
	hooks.Register()
	t.Cleanup(observability.Reset)

	s := newTestServer(t, WithGatherer(reg))
	require.Equal(t, http.StatusOK, post(t, s, "", twoStructures).Code)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "molgrid_batches_started_total 1")
	assert.Contains(t, body, `molgrid_http_requests_total{method="POST",path="/v1/render",status="2xx"} 1`)
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.ErrCodeInvalidPath))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(errors.ErrCodeRender))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.ErrCodeNotFound))
	assert.Equal(t, http.StatusUnsupportedMediaType, statusFor(errors.ErrCodeUnsupported))
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
}

func TestListenAndServeShutdown(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
