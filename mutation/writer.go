package mutation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Writer writes records in the text format.
type Writer struct {
	cw  io.WriteCloser
	bw  *bufio.Writer
	buf []byte
}

// NewWriter writes the header for numSamples samples and returns a Writer.
func NewWriter(w io.Writer, numSamples int, c Compression) (*Writer, error) {
	cw, err := compress(w, c)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(cw)
	if _, err := fmt.Fprintf(bw, "%s%d\n", samplesHeader, numSamples); err != nil {
		return nil, err
	}
	return &Writer{cw: cw, bw: bw}, nil
}

// Write appends rec.
func (w *Writer) Write(rec Record) error {
	b := w.buf[:0]
	b = strconv.AppendUint(b, rec.Mutation.Position, 10)
	b = append(b, '\t')
	b = append(b, rec.Mutation.Ref...)
	b = append(b, '\t')
	b = append(b, rec.Mutation.Alt...)
	b = append(b, '\t')
	if len(rec.Carriers) == 0 {
		b = append(b, '.')
	}
	for i, s := range rec.Carriers {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendUint(b, uint64(s), 10)
	}
	b = append(b, '\n')
	w.buf = b
	_, err := w.bw.Write(b)
	return err
}

// Close flushes buffered data and finishes the compressed frame.
// The underlying writer is not closed.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.cw.Close()
}
