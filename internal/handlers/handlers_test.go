package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/filedef"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gratten/runlog/internal/db"
	"github.com/gratten/runlog/internal/mock"
	"github.com/gratten/runlog/internal/models"
	"github.com/gratten/runlog/internal/stats"
	"github.com/gratten/runlog/internal/store"
)

var fixedNow = time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	s := store.New(context.Background(), db.NewMemory())
	h := NewHandler(s, mock.New(rand.NewPCG(1, 1)),
		WithClock(func() time.Time { return fixedNow }),
		WithStatsOptions(stats.Options{Weeks: 8, RecentLimit: 10}),
	)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, s
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestCreateStatsDelete(t *testing.T) {
	srv, s := newTestServer(t)

	body := []byte(`{"distance":5,"pace":"8:00","runType":"easy","surface":"road"}`)
	resp := do(t, http.MethodPost, srv.URL+"/api/runs", "application/json", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Run](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Date.Equal(fixedNow))
	assert.Len(t, s.Snapshot(), 1)

	resp = do(t, http.MethodGet, srv.URL+"/api/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[stats.Dashboard](t, resp)
	assert.Equal(t, stats.SurfaceTotals{RoadTotal: 5, CombinedTotal: 5}, d.Surfaces)
	assert.Equal(t, 5.0, d.Week.WeekTotal)
	assert.Len(t, d.Weekly.Labels, 8)
	require.Len(t, d.Recent, 1)
	assert.Equal(t, created.ID, d.Recent[0].ID)

	resp = do(t, http.MethodDelete, srv.URL+"/api/runs/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/stats", "", nil)
	d = decode[stats.Dashboard](t, resp)
	assert.Equal(t, stats.SurfaceTotals{}, d.Surfaces)
	assert.Empty(t, d.Recent)
}

func TestCreateRun_Invalid(t *testing.T) {
	srv, s := newTestServer(t)

	for _, body := range []string{
		`not json`,
		`{"distance":-1,"pace":"8:00","runType":"easy","surface":"road"}`,
		`{"distance":3,"pace":"8:00","runType":"sprint","surface":"road"}`,
		`{"distance":3,"pace":"8","runType":"easy","surface":"road"}`,
	} {
		resp := do(t, http.MethodPost, srv.URL+"/api/runs", "application/json", []byte(body))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.NotEmpty(t, decode[map[string]string](t, resp)["error"])
	}
	assert.Empty(t, s.Snapshot())
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodDelete, srv.URL+"/api/runs/missing", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestListRuns_Limit(t *testing.T) {
	srv, s := newTestServer(t)
	var runs []models.Run
	for i := 0; i < 15; i++ {
		runs = append(runs, store.NewRun(models.RunInput{Distance: 3, Pace: "8:00", RunType: models.RunTypeEasy, Surface: models.SurfaceRoad}, fixedNow.AddDate(0, 0, -i)))
	}
	_, err := s.AddAll(context.Background(), runs)
	require.NoError(t, err)

	resp := do(t, http.MethodGet, srv.URL+"/api/runs", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[[]models.Run](t, resp)
	require.Len(t, got, 10)
	assert.True(t, got[0].Date.Equal(fixedNow))

	resp = do(t, http.MethodGet, srv.URL+"/api/runs?limit=3", "", nil)
	assert.Len(t, decode[[]models.Run](t, resp), 3)

	resp = do(t, http.MethodGet, srv.URL+"/api/runs?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSeed(t *testing.T) {
	srv, s := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/api/seed", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	n := decode[map[string]int](t, resp)["runs"]
	assert.Positive(t, n)
	assert.Len(t, s.Snapshot(), n)
}

func TestImport_RejectsBadUploads(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/import", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = uploadFile(t, srv.URL+"/api/import", "run.fit", []byte("not a fit file"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func uploadFile(t *testing.T, url, name string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return do(t, http.MethodPost, url, mw.FormDataContentType(), buf.Bytes())
}

func trailRunFIT(t *testing.T, start time.Time) []byte {
	t.Helper()
	activity := filedef.NewActivity()
	activity.FileId.SetType(typedef.FileActivity).SetTimeCreated(start)
	activity.Sessions = []*mesgdef.Session{
		mesgdef.NewSession(nil).
			SetTimestamp(start.Add(85 * time.Minute)).
			SetStartTime(start).
			SetSport(typedef.SportRunning).
			SetSubSport(typedef.SubSportTrail).
			SetTotalDistanceScaled(16093.44).
			SetTotalTimerTimeScaled(85 * 60),
	}
	fit := activity.ToFIT(nil)
	var buf bytes.Buffer
	require.NoError(t, encoder.New(&buf).Encode(&fit))
	return buf.Bytes()
}

func TestImport_FITActivity(t *testing.T) {
	srv, s := newTestServer(t)
	start := time.Date(2024, time.May, 12, 6, 15, 0, 0, time.UTC)

	resp := uploadFile(t, srv.URL+"/api/import", "trail.fit", trailRunFIT(t, start))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	imported := decode[[]models.Run](t, resp)
	require.Len(t, imported, 1)
	assert.NotEmpty(t, imported[0].ID)
	assert.True(t, imported[0].Date.Equal(start))
	assert.Equal(t, 10.0, imported[0].Distance)
	assert.Equal(t, "8:30", imported[0].Pace)
	assert.Equal(t, models.RunTypeLong, imported[0].RunType)
	assert.Equal(t, models.SurfaceTrail, imported[0].Surface)

	runs := s.Snapshot()
	require.Len(t, runs, 1)
	assert.Equal(t, imported[0].ID, runs[0].ID)
}

func TestStaticPage(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page strings.Builder
	_, err := page.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, page.String(), "runForm")

	resp = do(t, http.MethodGet, srv.URL+"/app.js", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var script strings.Builder
	_, err = script.ReadFrom(resp.Body)
	require.NoError(t, err)
	// Failures are shown in red, apart from the green success notices.
	assert.Contains(t, script.String(), "bg-red-500")
	assert.Contains(t, script.String(), "notify(err.message, true)")
}

func TestRecoversFromPanic(t *testing.T) {
	h := NewHandler(nil, nil)
	rec := httptest.NewRecorder()
	// A nil store makes every API call panic.
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
