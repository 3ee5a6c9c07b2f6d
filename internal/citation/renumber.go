package citation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// inlineMarkerPattern matches raw inline citations like [1], [12]
var inlineMarkerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Assignment maps a raw source index to its dense citation number
type Assignment struct {
	SourceIndex int
	Number      int
}

// Renumberer hands out dense 1-based numbers to raw source indices in the
// order they are first seen.
type Renumberer struct {
	numbers map[int]int
	order   []int
}

// NewRenumberer creates an empty renumberer
func NewRenumberer() *Renumberer {
	return &Renumberer{numbers: make(map[int]int)}
}

// Number returns the number of sourceIndex, assigning the next one on first use
func (r *Renumberer) Number(sourceIndex int) int {
	if n, ok := r.numbers[sourceIndex]; ok {
		return n
	}
	r.order = append(r.order, sourceIndex)
	n := len(r.order)
	r.numbers[sourceIndex] = n
	return n
}

// Marker numbers every index of one span and returns the span's marker,
// e.g. "[1][3]", ordered by ascending number.
func (r *Renumberer) Marker(sourceIndices []int) string {
	nums := make([]int, 0, len(sourceIndices))
	seen := make(map[int]bool, len(sourceIndices))
	for _, idx := range sourceIndices {
		n := r.Number(idx)
		if !seen[n] {
			seen[n] = true
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return FormatMarker(nums)
}

// Len is the number of distinct source indices numbered so far
func (r *Renumberer) Len() int { return len(r.order) }

// Assignments returns every assignment ordered by number
func (r *Renumberer) Assignments() []Assignment {
	out := make([]Assignment, len(r.order))
	for i, idx := range r.order {
		out[i] = Assignment{SourceIndex: idx, Number: i + 1}
	}
	return out
}

// FormatMarker renders numbers as concatenated bracket markers
func FormatMarker(numbers []int) string {
	var b strings.Builder
	for _, n := range numbers {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(']')
	}
	return b.String()
}

// RewriteInline renumbers raw [k] markers already present in text in a
// single left-to-right pass. lookup maps a raw marker number to a source
// index; markers it rejects are dropped together with the spaces or tabs
// directly before them.
func (r *Renumberer) RewriteInline(text string, lookup func(raw int) (int, bool)) string {
	matches := inlineMarkerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		segment := text[prev:start]

		raw, err := strconv.Atoi(text[m[2]:m[3]])
		idx, ok := 0, false
		if err == nil {
			idx, ok = lookup(raw)
		}
		if !ok {
			b.WriteString(strings.TrimRight(segment, " \t"))
			prev = end
			continue
		}

		b.WriteString(segment)
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(r.Number(idx)))
		b.WriteByte(']')
		prev = end
	}
	b.WriteString(text[prev:])
	return b.String()
}
