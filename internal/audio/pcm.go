// Package audio feeds PCM from capture tools or recordings into the
// spectrum analyser and exposes the result as sensing streams.
package audio

import "encoding/binary"

// DecodeS16LE appends the samples of mono signed 16-bit little-endian PCM to
// dst, scaled to [-1, 1). A trailing odd byte is ignored.
func DecodeS16LE(b []byte, dst []float64) []float64 {
	for i := 0; i+1 < len(b); i += 2 {
		v := int16(binary.LittleEndian.Uint16(b[i:]))
		dst = append(dst, float64(v)/32768)
	}
	return dst
}

// ring keeps the most recent len(buf) samples.
type ring struct {
	buf    []float64
	pos    int
	filled bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]float64, size)}
}

func (r *ring) write(samples []float64) {
	for _, s := range samples {
		r.buf[r.pos] = s
		r.pos++
		if r.pos == len(r.buf) {
			r.pos = 0
			r.filled = true
		}
	}
}

// snapshot copies the buffered samples into dst, oldest first.
func (r *ring) snapshot(dst []float64) []float64 {
	if !r.filled {
		return append(dst[:0], r.buf[:r.pos]...)
	}
	dst = append(dst[:0], r.buf[r.pos:]...)
	return append(dst, r.buf[:r.pos]...)
}
