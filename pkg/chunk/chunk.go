// Package chunk implements nested, size-prefixed binary chunks.
//
// Each chunk starts with an 8 byte little-endian header: a uint32 chunk ID
// and a uint32 payload size whose high bit marks a chunk that holds further
// chunks instead of raw data. Inside a data chunk, small variables can be
// stored as micro chunks with a one byte ID and a one byte size.
package chunk

import "errors"

// Chunk errors.
var (
	ErrTruncated      = errors.New("truncated chunk data")
	ErrOverrun        = errors.New("read past end of chunk")
	ErrNoOpenChunk    = errors.New("no open chunk")
	ErrMicroTooLarge  = errors.New("micro chunk exceeds 255 bytes")
	ErrUnbalanced     = errors.New("unbalanced chunk begin/end")
	ErrUnexpectedType = errors.New("unexpected chunk")
)

const (
	headerSize      = 8
	microHeaderSize = 2
	subChunkFlag    = uint32(1) << 31
	sizeMask        = ^subChunkFlag
	maxMicroSize    = 255
)
