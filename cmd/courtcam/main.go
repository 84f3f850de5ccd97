// Command courtcam replays a JSONL detection log through the camera-direction
// pipeline, records the session to sqlite, and emits after-run reports.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/banshee-data/courtcam/internal/config"
	"github.com/banshee-data/courtcam/internal/version"
	"github.com/banshee-data/courtcam/internal/vision/court"
	"github.com/banshee-data/courtcam/internal/vision/monitor"
	"github.com/banshee-data/courtcam/internal/vision/motion"
	"github.com/banshee-data/courtcam/internal/vision/pipeline"
	"github.com/banshee-data/courtcam/internal/vision/replay"
	"github.com/banshee-data/courtcam/internal/vision/storage/sqlite"
	"github.com/banshee-data/courtcam/internal/vision/track"
)

var (
	inputFile     = flag.String("input", "", "JSONL detection log to replay (required)")
	tuningFile    = flag.String("tuning", "", "Tuning overrides JSON file (optional)")
	dbFile        = flag.String("db", "courtcam_session.db", "Path to the SQLite session database")
	migrationsDir = flag.String("migrations", "", "Migrations directory (empty: use built-in schema only)")
	reportFile    = flag.String("report", "session_report.html", "HTML session report output (empty: skip)")
	plotsDir      = flag.String("plots", "", "Directory for PNG trace plots (empty: skip)")
	noRecord      = flag.Bool("no-record", false, "Disable session recording")
	verbose       = flag.Bool("verbose", false, "Enable diagnostic logging")
	logInterval   = flag.Int("log-interval", 250, "Progress logging interval in frames")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("courtcam %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *inputFile == "" {
		flag.Usage()
		log.Fatal("missing required -input")
	}

	if *verbose {
		court.SetLogWriters(os.Stderr, os.Stderr)
		track.SetLogWriters(os.Stderr, os.Stderr, nil)
		motion.SetLogWriters(os.Stderr, os.Stderr)
		pipeline.SetLogWriters(os.Stderr, os.Stderr)
	} else {
		court.SetLogWriters(os.Stderr, nil)
		track.SetLogWriters(os.Stderr, nil, nil)
		motion.SetLogWriters(os.Stderr, nil)
		pipeline.SetLogWriters(os.Stderr, nil)
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tuning := config.EmptyTuningConfig()
	var tuningJSON string
	if *tuningFile != "" {
		loaded, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			return fmt.Errorf("load tuning: %w", err)
		}
		tuning = loaded
		raw, err := os.ReadFile(*tuningFile)
		if err != nil {
			return fmt.Errorf("read tuning: %w", err)
		}
		tuningJSON = string(raw)
	}

	director, err := pipeline.NewDirector(pipeline.ConfigFromTuning(tuning))
	if err != nil {
		return err
	}

	var store *sqlite.Store
	var recorder *sqlite.Recorder
	if !*noRecord {
		store, err = sqlite.Open(*dbFile)
		if err != nil {
			return err
		}
		defer store.Close()
		if *migrationsDir != "" {
			if err := store.MigrateUp(*migrationsDir); err != nil {
				return err
			}
		}
		recorder, err = sqlite.NewRecorder(store, time.Now(), tuningJSON)
		if err != nil {
			return err
		}
		director.SetSink(recorder)
		log.Printf("recording session %s to %s", recorder.SessionID(), *dbFile)
	}

	f, err := os.Open(*inputFile)
	if err != nil {
		return fmt.Errorf("open detection log: %w", err)
	}
	defer f.Close()

	base := time.Now()
	reader := replay.NewReader(f)
	frames := 0
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		out := director.ProcessFrame(rec.Input(base))
		frames++
		if *logInterval > 0 && frames%*logInterval == 0 {
			log.Printf("frame %d: pan=(%.3f, %.3f) zoom=%.2f state=%s tracks=%d",
				frames, out.Pan.X, out.Pan.Y, out.Zoom, out.State, out.Diagnostics.TrackCount)
		}
	}
	log.Printf("replayed %d frames", frames)

	if recorder == nil {
		return nil
	}

	rows, err := store.Commands(recorder.SessionID())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		log.Printf("no commands recorded, skipping reports")
		return nil
	}

	if *plotsDir != "" {
		if err := monitor.PlotCameraTraces(rows, *plotsDir); err != nil {
			return err
		}
		log.Printf("wrote trace plots to %s", *plotsDir)
	}

	if *reportFile != "" {
		cells, gridRows, gridCols := director.CourtCells()
		out, err := os.Create(*reportFile)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer out.Close()
		if err := monitor.WriteSessionReport(out, recorder.SessionID(), rows, cells, gridRows, gridCols); err != nil {
			return err
		}
		log.Printf("wrote session report to %s", *reportFile)
	}

	return nil
}
