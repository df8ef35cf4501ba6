// Package trajectory writes simulation frames in the .xyz wire format:
//
//	<atomCount>
//	<iteration>
//	<symbol>\t<x>\t<y>\t<z>    (one line per atom, Angstrom)
package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/moldyn/internal/vec3"
)

// AngstromsPerMetre scales internal SI positions back onto the wire.
const AngstromsPerMetre = 1e10

// Writer appends frames to an output stream. When the stream is a resource
// the writer opened itself, Close releases it.
type Writer struct {
	buf    *bufio.Writer
	closer io.Closer
}

// NewWriter wraps an existing stream. The caller keeps ownership of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buf: bufio.NewWriter(w)}
}

// Create opens path for writing and returns a Writer that owns the file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trajectory: %w", err)
	}
	return &Writer{buf: bufio.NewWriter(f), closer: f}, nil
}

// WriteFrame emits one frame. Positions are metres and are converted to
// Angstrom on output.
func (w *Writer) WriteFrame(iteration uint64, symbols []string, pos []vec3.Vec) error {
	if len(symbols) != len(pos) {
		return fmt.Errorf("trajectory: %d symbols for %d positions", len(symbols), len(pos))
	}

	if _, err := fmt.Fprintf(w.buf, "%d\n%d\n", len(pos), iteration); err != nil {
		return err
	}
	for i, p := range pos {
		_, err := fmt.Fprintf(w.buf, "%s\t%f\t%f\t%f\n",
			symbols[i],
			p.X*AngstromsPerMetre,
			p.Y*AngstromsPerMetre,
			p.Z*AngstromsPerMetre)
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush forces buffered frames to the underlying stream.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Close flushes and, if the writer owns its stream, closes it. Frames
// flushed before a failure remain valid in the output.
func (w *Writer) Close() error {
	flushErr := w.buf.Flush()
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			return err
		}
	}
	return flushErr
}
