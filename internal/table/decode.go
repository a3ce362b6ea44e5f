package table

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sniffLen is how many bytes are inspected to decide the input encoding.
const sniffLen = 4096

// decodeReader wraps r so that the returned reader yields UTF-8 text:
//
//   - A UTF-8 BOM, if present, is stripped.
//   - When the sampled prefix is valid UTF-8 the stream passes through
//     unchanged.
//   - Otherwise the stream is decoded as CP932 (Shift-JIS), the common legacy
//     encoding for Japanese spreadsheet exports.
//
// Detection is best-effort over the first sniffLen bytes; a file that is
// valid UTF-8 in its prefix but broken later will surface decode errors from
// the consumer, not from here.
func decodeReader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sniffLen)

	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
		return br
	}

	sample, _ := br.Peek(sniffLen)
	if validUTF8Prefix(sample) {
		return br
	}
	return transform.NewReader(br, japanese.ShiftJIS.NewDecoder())
}

// validUTF8Prefix reports whether b is valid UTF-8, ignoring up to three
// trailing bytes that may be a rune cut at the sample boundary.
func validUTF8Prefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for i := 1; i <= 3 && i <= len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}
