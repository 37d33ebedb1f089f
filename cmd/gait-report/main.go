// Command gait-report analyses a recorded joint-frame capture and
// produces clinical gait and posture reports.
//
// Analyse a capture, store the session, and render an HTML report:
//
//	go run ./cmd/gait-report -input walk.jsonl -db sessions.db -html report.html
//
// Generate a synthetic demo walk instead of reading a capture:
//
//	go run ./cmd/gait-report -synth -db sessions.db -html report.html
//
// Serve stored sessions over HTTP:
//
//	go run ./cmd/gait-report -db sessions.db -serve :8080
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/banshee-data/gait.report/internal/api"
	"github.com/banshee-data/gait.report/internal/clinical"
	"github.com/banshee-data/gait.report/internal/config"
	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/posture"
	"github.com/banshee-data/gait.report/internal/replay"
	"github.com/banshee-data/gait.report/internal/report"
	"github.com/banshee-data/gait.report/internal/session"
	"github.com/banshee-data/gait.report/internal/sessiondb"
	"github.com/banshee-data/gait.report/internal/skeleton"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "Path to a JSONL joint-frame capture")
		synth      = flag.Bool("synth", false, "Analyse a synthetic demo walk instead of a capture")
		dbPath     = flag.String("db", "sessions.db", "Path to the session database")
		htmlPath   = flag.String("html", "", "Write an HTML session report to this path")
		pngPath    = flag.String("png", "", "Write a PNG gait trend chart to this path")
		tuningPath = flag.String("tuning", "", "Optional JSON tuning file for detection parameters")
		notes      = flag.String("notes", "", "Free-form session notes")
		serveAddr  = flag.String("serve", "", "Serve the session API on this address instead of analysing")
	)
	flag.Parse()

	db, err := sessiondb.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open session database: %v", err)
	}
	defer db.Close()

	if *serveAddr != "" {
		server := api.NewServer(db)
		log.Printf("Serving session API on %s", *serveAddr)
		log.Fatal(http.ListenAndServe(*serveAddr, server.Handler()))
	}

	if *inputPath == "" && !*synth {
		log.Fatal("Error: either -input or -synth is required")
	}

	var tuning *config.Tuning
	if *tuningPath != "" {
		tuning, err = config.Load(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
	}

	sessionID, err := analyse(db, *inputPath, *synth, tuning, *notes)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	log.Printf("Session %s recorded to %s", sessionID, *dbPath)

	if *htmlPath != "" {
		f, err := os.Create(*htmlPath)
		if err != nil {
			log.Fatalf("Failed to create report file: %v", err)
		}
		if err := report.WriteHTML(f, db, sessionID); err != nil {
			log.Fatalf("Failed to write HTML report: %v", err)
		}
		f.Close()
		log.Printf("HTML report written to %s", *htmlPath)
	}

	if *pngPath != "" {
		if err := report.SavePNG(db, sessionID, *pngPath); err != nil {
			log.Fatalf("Failed to write PNG chart: %v", err)
		}
		log.Printf("PNG chart written to %s", *pngPath)
	}
}

// analyse runs the capture through both engines, records every frame,
// and returns the new session ID.
func analyse(db *sessiondb.DB, inputPath string, synth bool, tuning *config.Tuning, notes string) (string, error) {
	frames, err := frameSource(inputPath, synth)
	if err != nil {
		return "", err
	}

	gaitEngine := gait.NewEngine(tuning.GaitConfig())
	postureEngine := posture.NewEngine(clinical.DefaultTables())

	trunkWeight, lateralWeight := tuning.SessionWeights()
	agg := session.NewAggregatorWeighted(trunkWeight, lateralWeight)

	if err := db.StartSession(agg.SessionID(), time.Now(), notes); err != nil {
		return "", err
	}

	var latest gait.Metrics
	frameCount := 0
	for {
		frame, err := frames()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		gm := gaitEngine.ProcessFrame(frame.Positions, frame.Timestamp)
		pm := postureEngine.Analyze(frame.Positions)
		agg.Observe(frame.Timestamp, gm, pm)
		latest = gm
		frameCount++

		if err := db.RecordGaitFrame(agg.SessionID(), frame.Timestamp, gm); err != nil {
			return "", err
		}
		if pm != nil {
			if err := db.RecordPostureFrame(agg.SessionID(), frame.Timestamp, pm); err != nil {
				return "", err
			}
		}
	}

	if err := db.EndSession(agg.SessionID(), time.Now()); err != nil {
		return "", err
	}

	summary := agg.Summarize(latest)
	log.Printf("Analysed %d frames: %d left + %d right strikes, avg cadence %.1f spm, session posture score %.1f",
		frameCount, summary.LeftStrikes, summary.RightStrikes,
		summary.AvgCadenceSpm, summary.SessionPostureScore)

	return agg.SessionID(), nil
}

// frameSource returns an iterator over capture or synthetic frames.
func frameSource(inputPath string, synth bool) (func() (skeleton.Frame, error), error) {
	if synth {
		frames := replay.SynthesizeWalk(replay.DefaultWalkParams())
		i := 0
		return func() (skeleton.Frame, error) {
			if i >= len(frames) {
				return skeleton.Frame{}, io.EOF
			}
			f := frames[i]
			i++
			return f, nil
		}, nil
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	reader := replay.NewReader(f)
	return func() (skeleton.Frame, error) {
		frame, err := reader.Next()
		if err == io.EOF {
			f.Close()
		}
		return frame, err
	}, nil
}
