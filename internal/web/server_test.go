package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campwatch/internal/availability"
	"github.com/example/campwatch/internal/dates"
	"github.com/example/campwatch/internal/internaltypes"
	"github.com/example/campwatch/internal/logger"
	"github.com/example/campwatch/internal/metrics"
	"github.com/example/campwatch/internal/runs"
	"github.com/example/campwatch/internal/scheduler"
)

type fakeWindows struct{ err error }

func (f fakeWindows) Generate(context.Context, dates.Options) ([]dates.Window, error) {
	if f.err != nil {
		return nil, f.err
	}
	start, _ := dates.ParseDay("2024-06-07")
	return []dates.Window{dates.NewWindow(start, 2)}, nil
}

type fakeCrawler struct {
	weekends []availability.Weekend
	err      error
}

func (f fakeCrawler) Crawl(context.Context, []dates.Window) ([]availability.Weekend, error) {
	return f.weekends, f.err
}

type fakeSnapshots struct{ snap *scheduler.Snapshot }

func (f fakeSnapshots) Latest() *scheduler.Snapshot { return f.snap }

type fakeRuns struct {
	runs  []runs.Run
	limit int
}

func (f *fakeRuns) Recent(_ context.Context, limit int) ([]runs.Run, error) {
	f.limit = limit
	return f.runs, nil
}

func (f *fakeRuns) Get(_ context.Context, id int64) (runs.Run, error) {
	for _, r := range f.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return runs.Run{}, internaltypes.ErrNotFound
}

func weekends() []availability.Weekend {
	return []availability.Weekend{{
		StartDate: "2024-06-07",
		EndDate:   "2024-06-09",
		Parks: []availability.Park{{
			ID:   10,
			Name: "Park A",
			Campgrounds: []availability.Campground{
				{ID: 100, Name: "Site 1", URL: "u1", Key: "2024-06-07-2024-06-09-100", Spots: []int64{1, 3}},
			},
		}},
	}}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAvailability(t *testing.T) {
	s := &Server{Windows: fakeWindows{}, Crawler: fakeCrawler{weekends: weekends()}, Logger: logger.NewNop()}

	rec := get(t, s.Routes(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []availability.Weekend
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, weekends(), got)
}

func TestAvailability_EmptyIsArray(t *testing.T) {
	s := &Server{Windows: fakeWindows{}, Crawler: fakeCrawler{}}
	rec := get(t, s.Routes(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAvailability_UpstreamFailure(t *testing.T) {
	s := &Server{Windows: fakeWindows{}, Crawler: fakeCrawler{err: fmt.Errorf("region: %w", internaltypes.ErrUpstream)}}
	rec := get(t, s.Routes(), "/")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	s = &Server{Windows: fakeWindows{err: errors.New("boom")}, Crawler: fakeCrawler{}}
	rec = get(t, s.Routes(), "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLatest(t *testing.T) {
	s := &Server{Windows: fakeWindows{}, Crawler: fakeCrawler{}}
	assert.Equal(t, http.StatusNotFound, get(t, s.Routes(), "/latest").Code)

	s.Snapshots = fakeSnapshots{}
	assert.Equal(t, http.StatusNotFound, get(t, s.Routes(), "/latest").Code)

	s.Snapshots = fakeSnapshots{snap: &scheduler.Snapshot{Weekends: weekends(), FinishedAt: time.Unix(0, 0).UTC()}}
	rec := get(t, s.Routes(), "/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var got scheduler.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, weekends(), got.Weekends)
}

func TestWindows(t *testing.T) {
	s := &Server{Windows: fakeWindows{}, Crawler: fakeCrawler{}}
	rec := get(t, s.Routes(), "/windows")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"start_date":"2024-06-07","end_date":"2024-06-09","nights":2}]`, rec.Body.String())
}

func TestRuns(t *testing.T) {
	s := &Server{Windows: fakeWindows{}, Crawler: fakeCrawler{}}
	assert.Equal(t, http.StatusNotFound, get(t, s.Routes(), "/runs").Code)

	fr := &fakeRuns{runs: []runs.Run{{ID: 7, Outcome: runs.OutcomeSucceeded}}}
	s.Runs = fr

	rec := get(t, s.Routes(), "/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, fr.limit)
	var got []runs.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)

	assert.Equal(t, http.StatusBadRequest, get(t, s.Routes(), "/runs?limit=0").Code)
}

func TestRunByID(t *testing.T) {
	s := &Server{Windows: fakeWindows{}, Crawler: fakeCrawler{}}
	assert.Equal(t, http.StatusNotFound, get(t, s.Routes(), "/runs/7").Code)

	s.Runs = &fakeRuns{runs: []runs.Run{{ID: 7, Outcome: runs.OutcomeFailed, ErrorClass: "upstream"}}}

	rec := get(t, s.Routes(), "/runs/7")
	require.Equal(t, http.StatusOK, rec.Code)
	var got runs.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "upstream", got.ErrorClass)

	assert.Equal(t, http.StatusNotFound, get(t, s.Routes(), "/runs/8").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s.Routes(), "/runs/abc").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := &Server{Windows: fakeWindows{}, Crawler: fakeCrawler{}, Metrics: metrics.New()}
	h := s.Routes()

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "campwatch_available_campgrounds")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/nope").Code)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Start(ctx, "127.0.0.1:0", http.NotFoundHandler(), logger.NewNop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
