package mutation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/grgmap/model"
)

const (
	samplesHeader = "##samples="

	// maxLineSize bounds a single line; carrier lists of very common
	// variants in large cohorts can be long.
	maxLineSize = 256 << 20
)

// ErrMissingHeader is returned when a stream lacks the ##samples header.
var ErrMissingHeader = errors.New("mutation: missing ##samples header")

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mutation: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Reader is an Iterator over the text format.
type Reader struct {
	scanner    *bufio.Scanner
	release    func()
	numSamples int
	line       int
	pending    *string
	done       bool
}

// NewReader reads the header from r and returns a Reader positioned at the
// first record. zstd and LZ4 input is decompressed transparently.
func NewReader(r io.Reader) (*Reader, error) {
	src, release, err := decompress(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	rd := &Reader{scanner: sc, release: release, numSamples: -1}
	for sc.Scan() {
		rd.line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if strings.HasPrefix(text, samplesHeader) {
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(text, samplesHeader)))
			if err != nil || n < 0 {
				release()
				return nil, &ParseError{Line: rd.line, Err: fmt.Errorf("invalid sample count %q", text)}
			}
			rd.numSamples = n
			continue
		}
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}
		rd.pending = &text
		break
	}
	if err := sc.Err(); err != nil {
		release()
		return nil, err
	}
	if rd.numSamples < 0 {
		release()
		return nil, ErrMissingHeader
	}
	return rd, nil
}

// NumSamples returns the sample count declared by the header.
func (r *Reader) NumSamples() int {
	return r.numSamples
}

// Next implements Iterator.
func (r *Reader) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	for {
		text, ok := r.nextLine()
		if !ok {
			if err := r.scanner.Err(); err != nil {
				return Record{}, err
			}
			return Record{}, io.EOF
		}
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}
		rec, err := r.parse(text)
		if err != nil {
			return Record{}, &ParseError{Line: r.line, Err: err}
		}
		return rec, nil
	}
}

func (r *Reader) nextLine() (string, bool) {
	if r.pending != nil {
		text := *r.pending
		r.pending = nil
		return text, true
	}
	if r.done || !r.scanner.Scan() {
		r.done = true
		return "", false
	}
	r.line++
	// Tolerate CRLF line endings.
	return strings.TrimSuffix(r.scanner.Text(), "\r"), true
}

func (r *Reader) parse(text string) (Record, error) {
	fields := strings.Split(text, "\t")
	if len(fields) != 3 && len(fields) != 4 {
		return Record{}, fmt.Errorf("expected 4 tab separated fields, got %d", len(fields))
	}
	pos, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid position %q", fields[0])
	}

	rec := Record{
		Mutation: model.Mutation{Position: pos, Ref: fields[1], Alt: fields[2]},
	}
	if len(fields) == 3 || fields[3] == "" || fields[3] == "." {
		return rec, nil
	}

	parts := strings.Split(fields[3], ",")
	rec.Carriers = make([]model.SampleID, 0, len(parts))
	for _, p := range parts {
		s, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Record{}, fmt.Errorf("invalid sample %q", p)
		}
		if int64(s) >= int64(r.numSamples) {
			return Record{}, fmt.Errorf("sample %d out of range [0, %d)", s, r.numSamples)
		}
		rec.Carriers = append(rec.Carriers, model.SampleID(s))
	}
	return rec, nil
}

// Close releases decompression resources. It does not close the underlying
// reader.
func (r *Reader) Close() error {
	if r.release != nil {
		r.release()
		r.release = nil
	}
	return nil
}
