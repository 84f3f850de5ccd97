// Command synthgame generates synthetic game scenarios as JSONL detection
// logs for the replay harness: players orbiting the court, a referee, a
// bouncing ball, an occlusion window, and an optional timeout where the
// players rush the sidelines.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/banshee-data/courtcam/internal/vision/replay"
)

var (
	outFile       = flag.String("out", "game.jsonl", "Output detection log path")
	duration      = flag.Float64("duration", 60, "Scenario length in seconds")
	fps           = flag.Float64("fps", 25, "Detection sample rate")
	playerCount   = flag.Int("players", 6, "Number of players")
	withReferee   = flag.Bool("referee", true, "Include a referee")
	withBall      = flag.Bool("ball", true, "Include a ball signal")
	timeoutAt     = flag.Float64("timeout-at", 0, "Start of a timeout in seconds (0: none)")
	timeoutLen    = flag.Float64("timeout-len", 8, "Timeout length in seconds")
	occludeAt     = flag.Float64("occlude-at", 0, "Start of a one-player occlusion in seconds (0: none)")
	occludeFrames = flag.Int("occlude-frames", 20, "Occlusion length in frames")
	seed          = flag.Int64("seed", 1, "Random seed")
)

// actor is one synthetic person moving around the court.
type actor struct {
	// Orbit parameters around the court center
	baseX, baseY   float64
	radiusX        float64
	radiusY        float64
	angularSpeed   float64
	phase          float64
	height         float64
	signature      []float64
	edgeX          float64 // Sideline position during a timeout
	occlusionStart int     // Frame index, -1 when never occluded
	occlusionLen   int
}

func (a *actor) positionAt(t float64, inTimeout bool) (x, y float64) {
	if inTimeout {
		return a.edgeX, 0.5
	}
	x = a.baseX + a.radiusX*math.Cos(a.angularSpeed*t+a.phase)
	y = a.baseY + a.radiusY*math.Sin(a.angularSpeed*t+a.phase)
	return x, y
}

func (a *actor) record(t float64, inTimeout bool, rng *rand.Rand) replay.DetectionRecord {
	x, y := a.positionAt(t, inTimeout)
	// Small detector jitter
	x += rng.NormFloat64() * 0.002
	y += rng.NormFloat64() * 0.002
	halfW := a.height * 0.18
	return replay.DetectionRecord{
		Box:        [4]float64{x - halfW, y - a.height/2, x + halfW, y + a.height/2},
		Confidence: 0.85 + rng.Float64()*0.1,
		Signature:  a.signature,
	}
}

func randomSignature(rng *rand.Rand) []float64 {
	sig := make([]float64, 8)
	for i := range sig {
		sig[i] = rng.Float64()
	}
	return sig
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rng := rand.New(rand.NewSource(*seed))

	actors := make([]*actor, 0, *playerCount+1)
	for i := 0; i < *playerCount; i++ {
		edgeX := 0.05
		if i%2 == 1 {
			edgeX = 0.95
		}
		a := &actor{
			baseX:          0.3 + 0.4*rng.Float64(),
			baseY:          0.45 + 0.2*rng.Float64(),
			radiusX:        0.08 + 0.12*rng.Float64(),
			radiusY:        0.04 + 0.06*rng.Float64(),
			angularSpeed:   0.4 + 0.8*rng.Float64(),
			phase:          rng.Float64() * 2 * math.Pi,
			height:         0.16 + 0.02*rng.Float64(),
			signature:      randomSignature(rng),
			edgeX:          edgeX,
			occlusionStart: -1,
		}
		actors = append(actors, a)
	}
	if *occludeAt > 0 && len(actors) > 0 {
		actors[0].occlusionStart = int(*occludeAt * *fps)
		actors[0].occlusionLen = *occludeFrames
	}
	if *withReferee {
		// Slow sideline patrol; the stripe test, not this log, decides the
		// referee label, so the referee is just another slow-moving actor.
		actors = append(actors, &actor{
			baseX:          0.5,
			baseY:          0.68,
			radiusX:        0.3,
			radiusY:        0.01,
			angularSpeed:   0.15,
			height:         0.17,
			signature:      randomSignature(rng),
			edgeX:          0.5, // Referees do not rush the bench
			occlusionStart: -1,
		})
	}

	out, err := os.Create(*outFile)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	w := replay.NewWriter(out)

	dt := 1.0 / *fps
	frames := int(*duration * *fps)
	for fi := 0; fi < frames; fi++ {
		t := float64(fi) * dt
		inTimeout := *timeoutAt > 0 && t >= *timeoutAt && t < *timeoutAt+*timeoutLen

		rec := replay.Record{TS: t}
		for _, a := range actors {
			if a.occlusionStart >= 0 && fi >= a.occlusionStart && fi < a.occlusionStart+a.occlusionLen {
				continue
			}
			rec.Detections = append(rec.Detections, a.record(t, inTimeout, rng))
		}
		if *withBall && !inTimeout {
			// The ball shadows the first player with a fast wobble.
			bx, by := actors[0].positionAt(t, false)
			rec.Ball = &replay.BallRecord{
				Pos: [2]float64{
					bx + 0.05*math.Sin(6*t),
					by - 0.04 + 0.03*math.Abs(math.Sin(8*t)),
				},
				Confidence: 0.3 + 0.5*rng.Float64(),
			}
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	log.Printf("wrote %d frames (%d actors) to %s", frames, len(actors), *outFile)
	return nil
}
