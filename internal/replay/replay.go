// Package replay reads recorded joint-frame captures for offline
// analysis. A capture is JSON Lines: one object per frame with a
// timestamp in seconds and a joint-name-to-[x,y,z] position map.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gait.report/internal/skeleton"
)

// maxLineBytes bounds a single capture line; a full 30-joint frame is
// well under 4 KB.
const maxLineBytes = 1 << 16

// record is the wire form of one captured frame.
type record struct {
	T      float64               `json:"t"`
	Joints map[string][3]float64 `json:"joints"`
}

// Reader iterates the frames of a JSONL capture stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader wraps r for frame-by-frame reading.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	return &Reader{scanner: sc}
}

// Next returns the next frame, or io.EOF when the capture is
// exhausted. Joint names outside the vocabulary are rejected rather
// than silently dropped; a corrupt capture should be noticed.
func (r *Reader) Next() (skeleton.Frame, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return skeleton.Frame{}, fmt.Errorf("capture line %d: %w", r.line, err)
		}

		frame := skeleton.Frame{
			Timestamp: rec.T,
			Positions: make(skeleton.Positions, len(rec.Joints)),
		}
		for name, xyz := range rec.Joints {
			j := skeleton.Joint(name)
			if !j.Valid() {
				return skeleton.Frame{}, fmt.Errorf("capture line %d: unknown joint %q", r.line, name)
			}
			frame.Positions[j] = r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		}
		return frame, nil
	}
	if err := r.scanner.Err(); err != nil {
		return skeleton.Frame{}, err
	}
	return skeleton.Frame{}, io.EOF
}

// Writer records frames as JSONL, the inverse of Reader.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w for frame-by-frame capture recording.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one frame to the capture.
func (w *Writer) Write(frame skeleton.Frame) error {
	rec := record{
		T:      frame.Timestamp,
		Joints: make(map[string][3]float64, len(frame.Positions)),
	}
	for j, p := range frame.Positions {
		rec.Joints[string(j)] = [3]float64{p.X, p.Y, p.Z}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush commits buffered frames to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }
