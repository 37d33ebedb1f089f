// Package sessiondb persists capture sessions and per-frame metrics
// to SQLite. The analysis engines themselves do no I/O; this store
// sits behind the session aggregator.
package sessiondb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/posture"
	"github.com/banshee-data/gait.report/internal/session"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the session database connection.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the session database at path and
// applies any pending migrations. Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	d := &DB{db}
	if err := d.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// migrateUp applies all pending embedded migrations.
func (db *DB) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	// Note: the migrate instance is not closed here because that would
	// close the underlying database connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// SessionRow is one row of the sessions table.
type SessionRow struct {
	SessionID string     `json:"session_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Notes     string     `json:"notes"`
}

// StartSession records a new session.
func (db *DB) StartSession(sessionID string, startedAt time.Time, notes string) error {
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, started_at, notes) VALUES (?, ?, ?)`,
		sessionID, startedAt.UTC(), notes,
	)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// EndSession stamps a session's end time.
func (db *DB) EndSession(sessionID string, endedAt time.Time) error {
	res, err := db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
		endedAt.UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no such session: %s", sessionID)
	}
	return nil
}

// ListSessions returns all sessions newest first.
func (db *DB) ListSessions() ([]SessionRow, error) {
	rows, err := db.Query(
		`SELECT session_id, started_at, ended_at, notes FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var s SessionRow
		if err := rows.Scan(&s.SessionID, &s.StartedAt, &s.EndedAt, &s.Notes); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// RecordGaitFrame stores one per-frame gait snapshot.
func (db *DB) RecordGaitFrame(sessionID string, ts float64, m gait.Metrics) error {
	_, err := db.Exec(`
		INSERT INTO gait_frames (
			session_id, ts, cadence_spm, avg_stride_m, walking_speed_mps,
			avg_step_width_cm, symmetry_index_pct, stance_pct, swing_pct,
			double_support_pct, stride_time_cv_pct
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, ts, m.CadenceSpm, m.AvgStrideLengthM, m.WalkingSpeedMps,
		m.AvgStepWidthCm, m.SymmetryIndexPct, m.StancePct, m.SwingPct,
		m.DoubleSupportPct, m.StrideTimeCVPct,
	)
	if err != nil {
		return fmt.Errorf("failed to record gait frame: %w", err)
	}
	if m.StepDetected != nil {
		if err := db.recordFootStrike(sessionID, m.StepDetected); err != nil {
			return err
		}
	}
	return nil
}

// recordFootStrike stores one accepted strike event.
func (db *DB) recordFootStrike(sessionID string, s *gait.FootStrike) error {
	_, err := db.Exec(`
		INSERT INTO foot_strikes (
			session_id, ts, foot, pos_x, pos_y, pos_z,
			stride_length_m, step_length_m, step_width_cm,
			impact_velocity_mps, foot_clearance_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, s.Timestamp, string(s.Foot), s.Position.X, s.Position.Y, s.Position.Z,
		s.StrideLengthM, s.StepLengthM, s.StepWidthCm,
		s.ImpactVelocityMps, s.FootClearanceM,
	)
	if err != nil {
		return fmt.Errorf("failed to record foot strike: %w", err)
	}
	return nil
}

// RecordPostureFrame stores one per-frame posture snapshot.
func (db *DB) RecordPostureFrame(sessionID string, ts float64, m *posture.Metrics) error {
	_, err := db.Exec(`
		INSERT INTO posture_frames (
			session_id, ts, sagittal_lean_deg, frontal_lean_deg, cva_deg, sva_cm,
			shoulder_asymmetry_cm, shoulder_tilt_deg, pelvic_obliquity_deg,
			kyphosis_deg, lordosis_deg, coronal_deviation_cm,
			postural_type, nypr_score, nypr_max, composite_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, ts, m.SagittalLeanDeg, m.FrontalLeanDeg, m.CVADeg, m.SVACm,
		m.ShoulderAsymmetryCm, m.ShoulderTiltDeg, m.PelvicObliquityDeg,
		m.ThoracicKyphosisDeg, m.LumbarLordosisDeg, m.CoronalDeviationCm,
		string(m.PosturalType), m.NYPRScore, m.NYPRMax, m.CompositeScore,
	)
	if err != nil {
		return fmt.Errorf("failed to record posture frame: %w", err)
	}
	return nil
}

// GaitSeries is the time series of one session's gait frames, in
// timestamp order, as stored.
type GaitSeries struct {
	TS      []float64 `json:"ts"`
	Cadence []float64 `json:"cadence_spm"`
	Speed   []float64 `json:"walking_speed_mps"`
	Stride  []float64 `json:"avg_stride_m"`
}

// GaitFrames returns the cadence/speed/stride series for a session.
func (db *DB) GaitFrames(sessionID string) (*GaitSeries, error) {
	rows, err := db.Query(
		`SELECT ts, cadence_spm, walking_speed_mps, avg_stride_m
		 FROM gait_frames WHERE session_id = ? ORDER BY ts`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query gait frames: %w", err)
	}
	defer rows.Close()

	series := &GaitSeries{}
	for rows.Next() {
		var ts, cadence, speed, stride float64
		if err := rows.Scan(&ts, &cadence, &speed, &stride); err != nil {
			return nil, err
		}
		series.TS = append(series.TS, ts)
		series.Cadence = append(series.Cadence, cadence)
		series.Speed = append(series.Speed, speed)
		series.Stride = append(series.Stride, stride)
	}
	return series, rows.Err()
}

// PostureSeries is the time series of one session's posture frames.
type PostureSeries struct {
	TS        []float64 `json:"ts"`
	Composite []float64 `json:"composite_score"`
	CVA       []float64 `json:"cva_deg"`
	Sagittal  []float64 `json:"sagittal_lean_deg"`
}

// PostureFrames returns the composite/CVA/lean series for a session.
func (db *DB) PostureFrames(sessionID string) (*PostureSeries, error) {
	rows, err := db.Query(
		`SELECT ts, composite_score, cva_deg, sagittal_lean_deg
		 FROM posture_frames WHERE session_id = ? ORDER BY ts`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query posture frames: %w", err)
	}
	defer rows.Close()

	series := &PostureSeries{}
	for rows.Next() {
		var ts, composite, cva, sagittal float64
		if err := rows.Scan(&ts, &composite, &cva, &sagittal); err != nil {
			return nil, err
		}
		series.TS = append(series.TS, ts)
		series.Composite = append(series.Composite, composite)
		series.CVA = append(series.CVA, cva)
		series.Sagittal = append(series.Sagittal, sagittal)
	}
	return series, rows.Err()
}

// SummaryRow extends the in-memory session summary with stored
// strike counts recomputed from the database.
type SummaryRow struct {
	session.Summary
	StrikeCount int `json:"strike_count"`
}

// SessionSummary recomputes a summary for a stored session.
func (db *DB) SessionSummary(sessionID string) (*SummaryRow, error) {
	var s SummaryRow
	s.SessionID = sessionID

	err := db.QueryRow(
		`SELECT started_at FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&s.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no such session: %s", sessionID)
	}
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(AVG(NULLIF(cadence_spm, 0)), 0),
		       COALESCE(MAX(cadence_spm), 0),
		       COALESCE(AVG(NULLIF(walking_speed_mps, 0)), 0)
		FROM gait_frames WHERE session_id = ?`, sessionID,
	).Scan(&s.FrameCount, &s.AvgCadenceSpm, &s.PeakCadenceSpm, &s.AvgSpeedMps)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN foot = 'left' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN foot = 'right' THEN 1 ELSE 0 END), 0)
		FROM foot_strikes WHERE session_id = ?`, sessionID,
	).Scan(&s.StrikeCount, &s.LeftStrikes, &s.RightStrikes)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(`
		SELECT COALESCE(AVG(composite_score), 0)
		FROM posture_frames WHERE session_id = ?`, sessionID,
	).Scan(&s.AvgCompositeScr)
	if err != nil {
		return nil, err
	}

	return &s, nil
}
