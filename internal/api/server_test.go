package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/sessiondb"
)

func newTestServer(t *testing.T) (*httptest.Server, *sessiondb.DB) {
	t.Helper()
	db, err := sessiondb.Open(":memory:")
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(db).Handler())
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})
	return srv, db
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/api/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestListSessions(t *testing.T) {
	srv, db := newTestServer(t)

	t.Run("empty store returns empty array", func(t *testing.T) {
		var sessions []sessiondb.SessionRow
		resp := getJSON(t, srv.URL+"/api/sessions", &sessions)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotNil(t, sessions)
		assert.Empty(t, sessions)
	})

	t.Run("lists stored sessions", func(t *testing.T) {
		require.NoError(t, db.StartSession("s1", time.Now(), "morning walk"))

		var sessions []sessiondb.SessionRow
		getJSON(t, srv.URL+"/api/sessions", &sessions)
		require.Len(t, sessions, 1)
		assert.Equal(t, "s1", sessions[0].SessionID)
		assert.Equal(t, "morning walk", sessions[0].Notes)
	})

	t.Run("rejects non-GET", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/sessions", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestSessionSubresources(t *testing.T) {
	srv, db := newTestServer(t)
	require.NoError(t, db.StartSession("s1", time.Now(), ""))
	require.NoError(t, db.RecordGaitFrame("s1", 1.0, gait.Metrics{CadenceSpm: 115, WalkingSpeedMps: 1.2}))

	t.Run("summary", func(t *testing.T) {
		var summary sessiondb.SummaryRow
		resp := getJSON(t, srv.URL+"/api/sessions/s1/summary", &summary)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "s1", summary.SessionID)
		assert.Equal(t, 1, summary.FrameCount)
		assert.InDelta(t, 115, summary.AvgCadenceSpm, 1e-9)
	})

	t.Run("gait series", func(t *testing.T) {
		var series sessiondb.GaitSeries
		resp := getJSON(t, srv.URL+"/api/sessions/s1/gait", &series)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, series.TS, 1)
		assert.Equal(t, 115.0, series.Cadence[0])
	})

	t.Run("posture series", func(t *testing.T) {
		var series sessiondb.PostureSeries
		resp := getJSON(t, srv.URL+"/api/sessions/s1/posture", &series)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, series.TS)
	})

	t.Run("unknown session", func(t *testing.T) {
		resp := getJSON(t, srv.URL+"/api/sessions/ghost/summary", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown resource", func(t *testing.T) {
		resp := getJSON(t, srv.URL+"/api/sessions/s1/export", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing resource segment", func(t *testing.T) {
		resp := getJSON(t, srv.URL+"/api/sessions/s1", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
