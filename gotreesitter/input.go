package gotreesitter

import "unicode/utf8"

// Input supplies source text in chunks so large or remote documents do not
// need to be materialized up front. Read returns the bytes starting at
// byteOffset; an empty result means end of input. The returned slice may be
// retained by the parser only until the next call.
type Input interface {
	Read(byteOffset uint32, position Point) []byte
}

// BytesInput adapts an in-memory buffer to Input.
type BytesInput []byte

// Read implements Input.
func (b BytesInput) Read(byteOffset uint32, _ Point) []byte {
	if int(byteOffset) >= len(b) {
		return nil
	}
	return b[byteOffset:]
}

// textBuffer pulls chunks from an Input on demand. Bytes already read stay
// buffered so lexers can look back at token text and trees can keep it.
type textBuffer struct {
	input Input
	data  []byte
	done  bool
	point Point // position of len(data)
}

func newTextBuffer(input Input) *textBuffer {
	return &textBuffer{input: input}
}

func newBytesBuffer(source []byte) *textBuffer {
	return &textBuffer{data: source, done: true, point: endPoint(Point{}, source)}
}

// fill reads chunks until at least upto bytes are buffered or input ends.
func (b *textBuffer) fill(upto int) {
	for !b.done && len(b.data) < upto {
		chunk := b.input.Read(uint32(len(b.data)), b.point)
		if len(chunk) == 0 {
			b.done = true
			return
		}
		b.point = endPoint(b.point, chunk)
		b.data = append(b.data, chunk...)
	}
}

// runeAt decodes the rune at pos. ok is false at end of input.
func (b *textBuffer) runeAt(pos int) (r rune, size int, ok bool) {
	b.fill(pos + utf8.UTFMax)
	if pos >= len(b.data) {
		return 0, 0, false
	}
	r, size = utf8.DecodeRune(b.data[pos:])
	return r, size, true
}

func (b *textBuffer) eofAt(pos int) bool {
	b.fill(pos + 1)
	return pos >= len(b.data)
}

// all drains the input and returns every byte.
func (b *textBuffer) all() []byte {
	for !b.done {
		b.fill(len(b.data) + 4096)
	}
	return b.data
}

func (b *textBuffer) slice(start, end uint32) []byte {
	b.fill(int(end))
	if int(end) > len(b.data) {
		end = uint32(len(b.data))
	}
	if start > end {
		return nil
	}
	return b.data[start:end]
}

// endPoint returns the position reached after reading text from p.
func endPoint(p Point, text []byte) Point {
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRune(text[i:])
		if r == '\n' {
			p.Row++
			p.Column = 0
		} else {
			p.Column++
		}
		i += size
	}
	return p
}
