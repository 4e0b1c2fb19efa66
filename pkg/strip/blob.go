package strip

import (
	"errors"
	"fmt"
)

// ErrMalformedBlob is returned when a strip blob does not match its own
// length fields.
var ErrMalformedBlob = errors.New("malformed strip blob")

// Strips decodes a blob produced by Stripify or OptimizeStripOrder. The
// returned strips share memory with blob.
func Strips(blob []int) ([][]int, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedBlob)
	}
	count := blob[0]
	if count < 0 || count > len(blob)-1 {
		return nil, fmt.Errorf("%w: strip count %d", ErrMalformedBlob, count)
	}
	strips := make([][]int, 0, count)
	pos := 1
	for i := 0; i < count; i++ {
		if pos >= len(blob) {
			return nil, fmt.Errorf("%w: strip %d missing", ErrMalformedBlob, i)
		}
		n := blob[pos]
		pos++
		if n < 0 || n > len(blob)-pos {
			return nil, fmt.Errorf("%w: strip %d claims %d indices, %d left", ErrMalformedBlob, i, n, len(blob)-pos)
		}
		strips = append(strips, blob[pos:pos+n:pos+n])
		pos += n
	}
	if pos != len(blob) {
		return nil, fmt.Errorf("%w: %d trailing values", ErrMalformedBlob, len(blob)-pos)
	}
	return strips, nil
}

// EncodeStrips lays strips out in the blob format.
func EncodeStrips(strips [][]int) []int {
	size := 1
	for _, s := range strips {
		size += 1 + len(s)
	}
	blob := make([]int, 0, size)
	blob = append(blob, len(strips))
	for _, s := range strips {
		blob = append(blob, len(s))
		blob = append(blob, s...)
	}
	return blob
}

// Triangles expands a strip into its non-degenerate triangles, restoring
// the winding of odd positions.
func Triangles(strip []int) [][3]int {
	var tris [][3]int
	for k := 0; k+2 < len(strip); k++ {
		a, b, c := strip[k], strip[k+1], strip[k+2]
		if a == b || b == c || a == c {
			continue
		}
		if k%2 == 1 {
			a, b = b, a
		}
		tris = append(tris, [3]int{a, b, c})
	}
	return tris
}

// CombineStrips joins every strip of blob into one strip by repeating the
// vertices at each join, returned as [total][indices...]. The joins only
// add degenerate triangles; an extra repeat keeps each strip starting on
// an even position so its winding is preserved.
func CombineStrips(blob []int) ([]int, error) {
	strips, err := Strips(blob)
	if err != nil {
		return nil, err
	}
	out := []int{0}
	for _, s := range strips {
		if len(s) == 0 {
			continue
		}
		if n := len(out) - 1; n > 0 {
			last := out[len(out)-1]
			out = append(out, last)
			if n%2 == 1 {
				out = append(out, last)
			}
			out = append(out, s[0])
		}
		out = append(out, s...)
	}
	out[0] = len(out) - 1
	return out, nil
}
