package sessiondb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/posture"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionLifecycle(t *testing.T) {
	db := openTestDB(t)

	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, db.StartSession("s1", started, "baseline walk"))
	require.NoError(t, db.StartSession("s2", started.Add(time.Hour), ""))

	sessions, err := db.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].SessionID, "newest first")
	assert.Equal(t, "s1", sessions[1].SessionID)
	assert.Equal(t, "baseline walk", sessions[1].Notes)
	assert.Nil(t, sessions[0].EndedAt)

	ended := started.Add(10 * time.Minute)
	require.NoError(t, db.EndSession("s1", ended))

	sessions, err = db.ListSessions()
	require.NoError(t, err)
	require.NotNil(t, sessions[1].EndedAt)
	assert.True(t, sessions[1].EndedAt.Equal(ended))
}

func TestEndSessionUnknownID(t *testing.T) {
	db := openTestDB(t)
	err := db.EndSession("ghost", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such session")
}

func TestDuplicateSessionID(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartSession("dup", time.Now(), ""))
	assert.Error(t, db.StartSession("dup", time.Now(), ""))
}

func TestGaitFrameRoundTrip(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartSession("s1", time.Now(), ""))

	si := 4.2
	m := gait.Metrics{
		CadenceSpm:       118,
		AvgStrideLengthM: 1.31,
		WalkingSpeedMps:  1.25,
		AvgStepWidthCm:   19,
		SymmetryIndexPct: &si,
	}
	require.NoError(t, db.RecordGaitFrame("s1", 1.5, m))
	require.NoError(t, db.RecordGaitFrame("s1", 0.5, gait.Metrics{CadenceSpm: 100}))

	series, err := db.GaitFrames("s1")
	require.NoError(t, err)
	require.Len(t, series.TS, 2)
	assert.Equal(t, []float64{0.5, 1.5}, series.TS, "ordered by timestamp")
	assert.Equal(t, []float64{100, 118}, series.Cadence)
	assert.Equal(t, 1.25, series.Speed[1])
	assert.Equal(t, 1.31, series.Stride[1])
}

func TestFootStrikeRecordedWithFrame(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartSession("s1", time.Now(), ""))

	stride := 1.28
	m := gait.Metrics{
		StepDetected: &gait.FootStrike{
			Foot:          gait.FootLeft,
			Position:      r3.Vec{X: -0.1, Y: 0.02, Z: 3.2},
			Timestamp:     2.5,
			StrideLengthM: &stride,
		},
	}
	require.NoError(t, db.RecordGaitFrame("s1", 2.5, m))
	require.NoError(t, db.RecordGaitFrame("s1", 2.6, gait.Metrics{}))

	summary, err := db.SessionSummary("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FrameCount)
	assert.Equal(t, 1, summary.StrikeCount)
	assert.Equal(t, 1, summary.LeftStrikes)
	assert.Zero(t, summary.RightStrikes)
}

func TestPostureFrameRoundTrip(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartSession("s1", time.Now(), ""))

	m := &posture.Metrics{
		SagittalLeanDeg: 4.5,
		CVADeg:          49,
		PosturalType:    posture.TypeIdeal,
		NYPRScore:       40,
		NYPRMax:         posture.NYPRMaxScore,
		CompositeScore:  87.5,
	}
	require.NoError(t, db.RecordPostureFrame("s1", 1.0, m))

	series, err := db.PostureFrames("s1")
	require.NoError(t, err)
	require.Len(t, series.TS, 1)
	assert.Equal(t, 87.5, series.Composite[0])
	assert.Equal(t, 49.0, series.CVA[0])
	assert.Equal(t, 4.5, series.Sagittal[0])
}

func TestSessionSummaryAggregates(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.StartSession("s1", time.Now(), ""))

	// Zero-valued warmup frames are excluded from the averages.
	require.NoError(t, db.RecordGaitFrame("s1", 0.0, gait.Metrics{}))
	require.NoError(t, db.RecordGaitFrame("s1", 1.0, gait.Metrics{CadenceSpm: 110, WalkingSpeedMps: 1.2}))
	require.NoError(t, db.RecordGaitFrame("s1", 2.0, gait.Metrics{CadenceSpm: 130, WalkingSpeedMps: 1.4}))

	require.NoError(t, db.RecordPostureFrame("s1", 1.0, &posture.Metrics{CompositeScore: 80}))
	require.NoError(t, db.RecordPostureFrame("s1", 2.0, &posture.Metrics{CompositeScore: 90}))

	summary, err := db.SessionSummary("s1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.FrameCount)
	assert.InDelta(t, 120, summary.AvgCadenceSpm, 1e-9)
	assert.InDelta(t, 130, summary.PeakCadenceSpm, 1e-9)
	assert.InDelta(t, 1.3, summary.AvgSpeedMps, 1e-9)
	assert.InDelta(t, 85, summary.AvgCompositeScr, 1e-9)
}

func TestSessionSummaryUnknownSession(t *testing.T) {
	db := openTestDB(t)
	_, err := db.SessionSummary("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such session")
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.migrateUp())
}
