package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobFeed/internal/config"
	"jobFeed/internal/database"
	"jobFeed/internal/logger"
	"jobFeed/internal/pipeline"
)

type fakeRuns struct {
	runs []database.PipelineRun
	err  error
}

func (f *fakeRuns) GetRunByID(id uint) (*database.PipelineRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRuns) ListRuns(limit, _ int) ([]database.PipelineRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.runs) > limit {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

type fakeTrigger struct {
	queries []string
	err     error
}

func (f *fakeTrigger) Start(_ context.Context, query string) (database.PipelineRun, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return database.PipelineRun{}, f.err
	}
	return database.PipelineRun{ID: 7, Query: query, Status: database.RunStatusPending}, nil
}

func newTestServer(t *testing.T, runs *fakeRuns, trigger *fakeTrigger) (*Server, *config.Cfg) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Cfg{
		Feed: config.Feed{
			Path:     filepath.Join(dir, "rss.xml"),
			FluffDir: filepath.Join(dir, "fluff"),
		},
	}
	require.NoError(t, os.MkdirAll(cfg.Feed.FluffDir, 0o755))
	return New(cfg, logger.NewNop(), runs, trigger), cfg
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRSS_NotGenerated(t *testing.T) {
	s, _ := newTestServer(t, &fakeRuns{}, &fakeTrigger{})

	w := do(s.Router(), http.MethodGet, "/rss", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, feedNotReady, w.Body.String())
}

func TestRSS_ServesFeed(t *testing.T) {
	s, cfg := newTestServer(t, &fakeRuns{}, &fakeTrigger{})
	require.NoError(t, os.WriteFile(cfg.Feed.Path, []byte("<feed/>"), 0o644))

	w := do(s.Router(), http.MethodGet, "/rss", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, atomContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "<feed/>", w.Body.String())
}

func TestFluff(t *testing.T) {
	s, cfg := newTestServer(t, &fakeRuns{}, &fakeTrigger{})
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Feed.FluffDir, "logo.png"), []byte("png"), 0o644))

	w := do(s.Router(), http.MethodGet, "/fluff/logo.png", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())

	w = do(s.Router(), http.MethodGet, "/fluff/missing.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakeRuns{}, &fakeTrigger{})

	w := do(s.Router(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRuns_ListAndGet(t *testing.T) {
	runs := &fakeRuns{runs: []database.PipelineRun{
		{ID: 2, Query: "SRE", Status: database.RunStatusCompleted, JobsPublished: 4},
		{ID: 1, Query: "Go", Status: database.RunStatusFailed},
	}}
	s, _ := newTestServer(t, runs, &fakeTrigger{})
	r := s.Router()

	w := do(r, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []database.PipelineRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = do(r, http.MethodGet, "/api/runs/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var run database.PipelineRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, 4, run.JobsPublished)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/runs/99", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/runs/abc", "").Code)
}

func TestRuns_DBError(t *testing.T) {
	s, _ := newTestServer(t, &fakeRuns{err: errors.New("connection refused")}, &fakeTrigger{})
	r := s.Router()

	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/api/runs", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/api/runs/1", "").Code)
}

func TestRuns_Start(t *testing.T) {
	trigger := &fakeTrigger{}
	s, _ := newTestServer(t, &fakeRuns{}, trigger)
	r := s.Router()

	w := do(r, http.MethodPost, "/api/runs", `{"query":"Go Developer"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var run database.PipelineRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, uint(7), run.ID)

	w = do(r, http.MethodPost, "/api/runs", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"Go Developer", ""}, trigger.queries)

	w = do(r, http.MethodPost, "/api/runs", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuns_StartConflict(t *testing.T) {
	s, _ := newTestServer(t, &fakeRuns{}, &fakeTrigger{err: pipeline.ErrRunInProgress})

	w := do(s.Router(), http.MethodPost, "/api/runs", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}
