package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/posture"
	"github.com/banshee-data/gait.report/internal/sessiondb"
)

func seedSession(t *testing.T) *sessiondb.DB {
	t.Helper()
	db, err := sessiondb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.StartSession("s1", time.Now(), "report test"))
	for i := 0; i < 10; i++ {
		ts := float64(i) * 0.5
		require.NoError(t, db.RecordGaitFrame("s1", ts, gait.Metrics{
			CadenceSpm:       110 + float64(i),
			AvgStrideLengthM: 1.3,
			WalkingSpeedMps:  1.2,
		}))
		require.NoError(t, db.RecordPostureFrame("s1", ts, &posture.Metrics{
			CVADeg:         50,
			CompositeScore: 85,
			PosturalType:   posture.TypeIdeal,
			NYPRMax:        posture.NYPRMaxScore,
		}))
	}
	return db
}

func TestWriteHTML(t *testing.T) {
	db := seedSession(t)

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, db, "s1"))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "Cadence")
	assert.Contains(t, html, "Walking Speed")
	assert.Contains(t, html, "Craniovertebral Angle")
}

func TestWriteHTMLUnknownSession(t *testing.T) {
	db := seedSession(t)
	var buf bytes.Buffer
	assert.Error(t, WriteHTML(&buf, db, "ghost"))
}

func TestSavePNG(t *testing.T) {
	db := seedSession(t)
	path := filepath.Join(t.TempDir(), "session.png")
	require.NoError(t, SavePNG(db, "s1", path))
	assert.FileExists(t, path)
}
