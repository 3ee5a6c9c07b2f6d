// Package citation turns an upstream answer and its citation spans into
// annotated text with dense [n] markers and an ordered citation list.
package citation

import (
	"unicode/utf8"
)

// Insertion places Marker at byte Offset of the original text
type Insertion struct {
	Offset int
	Marker string
}

// IsBoundary reports whether a marker may be inserted at byte offset off
// of text without splitting a UTF-8 sequence.
func IsBoundary(text string, off int) bool {
	if off < 0 || off > len(text) {
		return false
	}
	if off == 0 || off == len(text) {
		return true
	}
	return utf8.RuneStart(text[off])
}

// SpliceMarkers inserts markers into text. Insertions must be sorted by
// ascending Offset with no duplicate offsets; offsets refer to the original
// text. Insertions that are out of order or off a character boundary are
// skipped and returned.
func SpliceMarkers(text string, insertions []Insertion) (string, []Insertion) {
	var extra int
	for _, ins := range insertions {
		extra += len(ins.Marker)
	}

	src := []byte(text)
	buf := make([]byte, 0, len(src)+extra)
	buf = append(buf, src...)

	var skipped []Insertion
	delta := 0
	last := -1
	for _, ins := range insertions {
		if ins.Offset <= last || !IsBoundary(text, ins.Offset) {
			skipped = append(skipped, ins)
			continue
		}
		pos := ins.Offset + delta
		buf = append(buf[:pos], append([]byte(ins.Marker), buf[pos:]...)...)
		delta += len(ins.Marker)
		last = ins.Offset
	}

	out := string(buf)
	if utf8.ValidString(text) && !utf8.ValidString(out) {
		// a marker carried an invalid sequence
		return text, insertions
	}
	return out, skipped
}
