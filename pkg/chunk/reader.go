package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

type readFrame struct {
	id        uint32
	size      uint32
	remaining uint32
	hasSub    bool
}

// Reader walks a chunk stream produced by Writer.
type Reader struct {
	r     io.Reader
	stack []readFrame

	inMicro        bool
	microID        uint8
	microSize      uint8
	microRemaining uint32
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// charge checks that n more bytes fit in every open chunk.
func (r *Reader) charge(n uint32) error {
	for i := range r.stack {
		if r.stack[i].remaining < n {
			return fmt.Errorf("%w: chunk %#x", ErrOverrun, r.stack[i].id)
		}
	}
	if r.inMicro && r.microRemaining < n {
		return fmt.Errorf("%w: micro chunk %#x", ErrOverrun, r.microID)
	}
	return nil
}

// debit subtracts n consumed bytes from every open chunk.
func (r *Reader) debit(n uint32) {
	for i := range r.stack {
		r.stack[i].remaining -= n
	}
	if r.inMicro {
		r.microRemaining -= n
	}
}

// consume reads exactly len(p) bytes and charges them to every open chunk.
func (r *Reader) consume(p []byte) error {
	n := uint32(len(p))
	if err := r.charge(n); err != nil {
		return err
	}
	if _, err := io.ReadFull(r.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}
	r.debit(n)
	return nil
}

// skip discards n bytes without buffering them.
func (r *Reader) skip(n uint32) error {
	if err := r.charge(n); err != nil {
		return err
	}
	copied, err := io.CopyN(io.Discard, r.r, int64(n))
	if copied < int64(n) {
		if err == nil || errors.Is(err, io.EOF) {
			return ErrTruncated
		}
		return err
	}
	r.debit(n)
	return nil
}

// OpenChunk reads the next chunk header inside the current chunk (or at the
// top level). It returns false when there are no more chunks.
func (r *Reader) OpenChunk() (bool, error) {
	if r.inMicro {
		return false, fmt.Errorf("%w: chunk opened inside micro chunk", ErrUnbalanced)
	}
	if n := len(r.stack); n > 0 && r.stack[n-1].remaining == 0 {
		return false, nil
	}

	var hdr [headerSize]byte
	if len(r.stack) == 0 {
		// At the top level a clean EOF just means the stream is done
		n, err := io.ReadFull(r.r, hdr[:])
		if n == 0 && errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, ErrTruncated
		}
	} else if err := r.consume(hdr[:]); err != nil {
		return false, err
	}

	raw := binary.LittleEndian.Uint32(hdr[4:8])
	f := readFrame{
		id:     binary.LittleEndian.Uint32(hdr[0:4]),
		size:   raw & sizeMask,
		hasSub: raw&subChunkFlag != 0,
	}
	f.remaining = f.size
	if n := len(r.stack); n > 0 && r.stack[n-1].remaining < f.size {
		return false, fmt.Errorf("%w: chunk %#x claims %d bytes", ErrOverrun, f.id, f.size)
	}
	r.stack = append(r.stack, f)
	return true, nil
}

// CloseChunk skips whatever is left of the innermost chunk and pops it.
func (r *Reader) CloseChunk() error {
	if len(r.stack) == 0 {
		return ErrNoOpenChunk
	}
	if r.inMicro {
		if err := r.CloseMicroChunk(); err != nil {
			return err
		}
	}
	if rem := r.stack[len(r.stack)-1].remaining; rem > 0 {
		if err := r.skip(rem); err != nil {
			return err
		}
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// ID returns the ID of the innermost open chunk.
func (r *Reader) ID() uint32 {
	if len(r.stack) == 0 {
		return 0
	}
	return r.stack[len(r.stack)-1].id
}

// Size returns the payload size of the innermost open chunk.
func (r *Reader) Size() uint32 {
	if len(r.stack) == 0 {
		return 0
	}
	return r.stack[len(r.stack)-1].size
}

// HasSubChunks reports whether the innermost chunk holds nested chunks.
func (r *Reader) HasSubChunks() bool {
	if len(r.stack) == 0 {
		return false
	}
	return r.stack[len(r.stack)-1].hasSub
}

// Expect opens the next chunk and fails unless it has the given ID.
func (r *Reader) Expect(id uint32) error {
	ok, err := r.OpenChunk()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: want %#x, got end of chunk", ErrUnexpectedType, id)
	}
	if r.ID() != id {
		return fmt.Errorf("%w: want %#x, got %#x", ErrUnexpectedType, id, r.ID())
	}
	return nil
}

// Read reads raw bytes from the open micro chunk or chunk.
func (r *Reader) Read(p []byte) (int, error) {
	if len(r.stack) == 0 {
		return 0, ErrNoOpenChunk
	}
	if err := r.consume(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadValue reads a fixed-size little-endian value.
func (r *Reader) ReadValue(v any) error {
	return binary.Read(r, binary.LittleEndian, v)
}

// OpenMicroChunk reads the next micro chunk header of the current chunk.
// It returns false when the chunk has no data left.
func (r *Reader) OpenMicroChunk() (bool, error) {
	if len(r.stack) == 0 {
		return false, ErrNoOpenChunk
	}
	if r.inMicro {
		return false, fmt.Errorf("%w: nested micro chunk", ErrUnbalanced)
	}
	if r.stack[len(r.stack)-1].remaining == 0 {
		return false, nil
	}
	var hdr [microHeaderSize]byte
	if err := r.consume(hdr[:]); err != nil {
		return false, err
	}
	r.inMicro = true
	r.microID = hdr[0]
	r.microSize = hdr[1]
	r.microRemaining = uint32(hdr[1])
	return true, nil
}

// MicroID returns the ID of the open micro chunk.
func (r *Reader) MicroID() uint8 {
	return r.microID
}

// MicroSize returns the payload size of the open micro chunk.
func (r *Reader) MicroSize() uint8 {
	return r.microSize
}

// CloseMicroChunk skips the rest of the open micro chunk.
func (r *Reader) CloseMicroChunk() error {
	if !r.inMicro {
		return ErrUnbalanced
	}
	if r.microRemaining > 0 {
		if err := r.skip(r.microRemaining); err != nil {
			return err
		}
	}
	r.inMicro = false
	return nil
}
