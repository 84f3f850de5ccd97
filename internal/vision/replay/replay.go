// Package replay defines the JSONL detection-log format: one frame per
// line, timestamps as seconds from the start of the recording. The format is
// produced by capture tooling and the synthetic generator, and consumed by
// the replay harness.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/courtcam/internal/vision/frame"
)

// DetectionRecord is one serialized detection.
type DetectionRecord struct {
	Box        [4]float64 `json:"box"` // min_x, min_y, max_x, max_y
	Confidence float64    `json:"confidence"`
	Signature  []float64  `json:"signature,omitempty"`
}

// BallRecord is one serialized ball signal.
type BallRecord struct {
	Pos        [2]float64 `json:"pos"`
	Confidence float64    `json:"confidence"`
}

// Record is one frame of the detection log.
type Record struct {
	TS         float64           `json:"ts"` // Seconds from recording start
	Detections []DetectionRecord `json:"detections,omitempty"`
	Ball       *BallRecord       `json:"ball,omitempty"`
}

// Input converts the record to a pipeline input, anchoring its relative
// timestamp at base.
func (r Record) Input(base time.Time) frame.Input {
	in := frame.Input{
		Timestamp:  base.Add(time.Duration(r.TS * float64(time.Second))),
		Detections: make([]frame.Detection, len(r.Detections)),
	}
	for i, d := range r.Detections {
		in.Detections[i] = frame.Detection{
			Box: frame.Rect{
				MinX: d.Box[0], MinY: d.Box[1],
				MaxX: d.Box[2], MaxY: d.Box[3],
			},
			Confidence: d.Confidence,
			Signature:  d.Signature,
		}
	}
	if r.Ball != nil {
		in.Ball = &frame.BallSignal{
			Position:   frame.Point{X: r.Ball.Pos[0], Y: r.Ball.Pos[1]},
			Confidence: r.Ball.Confidence,
		}
	}
	return in
}

// Reader reads records line by line.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader wraps r in a record reader.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	// Frames with many detections can exceed the default token size.
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Reader{scanner: sc}
}

// Next returns the next record, or io.EOF when the log is exhausted. Blank
// lines are skipped.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return Record{}, fmt.Errorf("detection log line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("read detection log: %w", err)
	}
	return Record{}, io.EOF
}

// Writer writes records line by line.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter wraps w in a record writer. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// Write appends one record to the log.
func (w *Writer) Write(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("write detection log record: %w", err)
	}
	return nil
}

// Flush flushes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
