package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// MaxFrameSize bounds a single frame so a corrupt length prefix cannot
// trigger a huge allocation.
const MaxFrameSize = 64 << 20

// Writer appends frames to a stream, each prefixed with its varint length.
type Writer struct {
	w      *bufio.Writer
	buf    []byte
	frames int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame buffers one frame. Call Flush before closing the underlying writer.
func (w *Writer) WriteFrame(f Frame) error {
	msg := MarshalFrame(w.buf[:0], f)
	if len(msg) > MaxFrameSize {
		return fmt.Errorf("frame %d is %d bytes, over the %d limit", f.Tick, len(msg), MaxFrameSize)
	}
	prefix := protowire.AppendVarint(nil, uint64(len(msg)))
	if _, err := w.w.Write(prefix); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Tick, err)
	}
	if _, err := w.w.Write(msg); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Tick, err)
	}
	w.buf = msg
	w.frames++
	return nil
}

// Frames is the number of frames written so far.
func (w *Writer) Frames() int {
	return w.frames
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader reads frames written by Writer.
type Reader struct {
	r   *bufio.Reader
	buf []byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadFrame returns the next frame, or io.EOF once the stream ends cleanly.
func (r *Reader) ReadFrame() (Frame, error) {
	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("%w: length prefix: %v", ErrMalformedFrame, err)
	}
	if size > MaxFrameSize {
		return Frame{}, fmt.Errorf("%w: length %d over the %d limit", ErrMalformedFrame, size, MaxFrameSize)
	}
	if cap(r.buf) < int(size) {
		r.buf = make([]byte, size)
	}
	r.buf = r.buf[:size]
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		return Frame{}, fmt.Errorf("%w: truncated body: %v", ErrMalformedFrame, err)
	}
	return UnmarshalFrame(r.buf)
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]Frame, error) {
	var frames []Frame
	for {
		f, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}
