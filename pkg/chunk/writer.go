package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

type writeFrame struct {
	id     uint32
	buf    bytes.Buffer
	hasSub bool
}

// Writer builds chunks in memory and flushes each top-level chunk to the
// underlying writer when it is closed, so sizes never need back-patching.
type Writer struct {
	w       io.Writer
	stack   []*writeFrame
	micro   *bytes.Buffer
	microID uint8
}

// NewWriter returns a Writer that emits chunks to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// BeginChunk opens a chunk nested inside the current one.
func (w *Writer) BeginChunk(id uint32) error {
	if w.micro != nil {
		return fmt.Errorf("%w: chunk %#x opened inside micro chunk", ErrUnbalanced, id)
	}
	if n := len(w.stack); n > 0 {
		w.stack[n-1].hasSub = true
	}
	w.stack = append(w.stack, &writeFrame{id: id})
	return nil
}

// EndChunk closes the innermost chunk.
func (w *Writer) EndChunk() error {
	if len(w.stack) == 0 || w.micro != nil {
		return ErrUnbalanced
	}
	f := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]

	size := uint32(f.buf.Len())
	if f.hasSub {
		size |= subChunkFlag
	}
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], f.id)
	binary.LittleEndian.PutUint32(hdr[4:8], size)

	var dst io.Writer = w.w
	if n := len(w.stack); n > 0 {
		dst = &w.stack[n-1].buf
	}
	if _, err := dst.Write(hdr[:]); err != nil {
		return fmt.Errorf("writing chunk %#x header: %w", f.id, err)
	}
	if _, err := dst.Write(f.buf.Bytes()); err != nil {
		return fmt.Errorf("writing chunk %#x payload: %w", f.id, err)
	}
	return nil
}

// BeginMicroChunk opens a micro chunk inside the current data chunk.
func (w *Writer) BeginMicroChunk(id uint8) error {
	if len(w.stack) == 0 {
		return ErrNoOpenChunk
	}
	if w.micro != nil {
		return fmt.Errorf("%w: nested micro chunk %#x", ErrUnbalanced, id)
	}
	w.micro = new(bytes.Buffer)
	w.microID = id
	return nil
}

// EndMicroChunk closes the open micro chunk.
func (w *Writer) EndMicroChunk() error {
	if w.micro == nil {
		return ErrUnbalanced
	}
	data := w.micro.Bytes()
	w.micro = nil
	if len(data) > maxMicroSize {
		return fmt.Errorf("%w: id %#x, %d bytes", ErrMicroTooLarge, w.microID, len(data))
	}
	f := w.stack[len(w.stack)-1]
	f.buf.WriteByte(w.microID)
	f.buf.WriteByte(uint8(len(data)))
	f.buf.Write(data)
	return nil
}

// Write appends raw bytes to the open micro chunk or chunk.
func (w *Writer) Write(p []byte) (int, error) {
	if w.micro != nil {
		return w.micro.Write(p)
	}
	if len(w.stack) == 0 {
		return 0, ErrNoOpenChunk
	}
	return w.stack[len(w.stack)-1].buf.Write(p)
}

// WriteValue writes a fixed-size value in little-endian order.
func (w *Writer) WriteValue(v any) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// WriteMicro writes a complete micro chunk holding v.
func (w *Writer) WriteMicro(id uint8, v any) error {
	if err := w.BeginMicroChunk(id); err != nil {
		return err
	}
	if err := w.WriteValue(v); err != nil {
		return err
	}
	return w.EndMicroChunk()
}

// Depth returns the number of open chunks.
func (w *Writer) Depth() int {
	return len(w.stack)
}
