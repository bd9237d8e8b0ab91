// Package ndjson turns a chunked byte stream of newline-delimited JSON into
// complete text lines. It knows nothing about what the lines contain.
package ndjson

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder converts UTF-8 byte chunks into text. A multi-byte character split
// across two chunks is carried over and emitted whole with the later chunk.
//
// Invalid byte sequences are replaced with U+FFFD rather than reported, so a
// bad byte never fails a stream.
type Decoder struct {
	t     transform.Transformer
	carry []byte
}

// NewDecoder returns a Decoder with no carried bytes.
func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text decodable from everything seen so far. Bytes of an
// incomplete trailing sequence are held until the next call or Flush.
func (d *Decoder) Decode(chunk []byte) string {
	return d.transform(chunk, false)
}

// Flush emits any carried bytes. An incomplete sequence at end of stream
// decodes to U+FFFD.
func (d *Decoder) Flush() string {
	return d.transform(nil, true)
}

// Pending reports how many bytes are being carried.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) transform(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.carry) > 0 {
		src = append(d.carry, chunk...)
		d.carry = nil
	}
	if len(src) == 0 {
		return ""
	}

	// A replaced byte grows to three, so this never returns ErrShortDst.
	dst := make([]byte, 3*len(src))
	nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		// The UTF-8 decoder only reports short buffers; treat anything
		// else as undecodable and substitute.
		return string(dst[:nDst]) + string(utf8.RuneError)
	}
	if nSrc < len(src) {
		d.carry = append([]byte(nil), src[nSrc:]...)
	}
	return string(dst[:nDst])
}
