package gotreesitter

// Point is a row/column position in source text. Columns count runes.
type Point struct {
	Row    uint32
	Column uint32
}

// Less reports whether p sorts before q.
func (p Point) Less(q Point) bool {
	return p.Row < q.Row || (p.Row == q.Row && p.Column < q.Column)
}

// Length is a span of text measured both in bytes and in rows/columns.
// Subtrees store their padding and size as Lengths relative to the end of
// the previous sibling, which is what lets an edit shift every later node
// without touching it.
type Length struct {
	Bytes  uint32
	Extent Point
}

func lengthAdd(a, b Length) Length {
	out := Length{Bytes: a.Bytes + b.Bytes}
	if b.Extent.Row > 0 {
		out.Extent = Point{Row: a.Extent.Row + b.Extent.Row, Column: b.Extent.Column}
	} else {
		out.Extent = Point{Row: a.Extent.Row, Column: a.Extent.Column + b.Extent.Column}
	}
	return out
}

// lengthSub returns a-b. b must not be past a.
func lengthSub(a, b Length) Length {
	out := Length{Bytes: a.Bytes - b.Bytes}
	if a.Extent.Row > b.Extent.Row {
		out.Extent = Point{Row: a.Extent.Row - b.Extent.Row, Column: a.Extent.Column}
	} else if a.Extent.Column > b.Extent.Column {
		out.Extent = Point{Column: a.Extent.Column - b.Extent.Column}
	}
	return out
}

func lengthSaturatingSub(a, b Length) Length {
	if b.Bytes >= a.Bytes {
		return Length{}
	}
	return lengthSub(a, b)
}

func lengthFromPoints(startByte, endByte uint32, start, end Point) Length {
	if endByte < startByte {
		return Length{}
	}
	return lengthSub(Length{Bytes: endByte, Extent: end}, Length{Bytes: startByte, Extent: start})
}
