package equation

import (
	"regexp"
	"strconv"
	"strings"
)

// segment is one element of a sequence: either raw source text or a node
// that has already been compiled.
type segment struct {
	// text is the unresolved text when node is nil.
	text string
	// pos is the byte offset in the source of the start of the segment.
	pos  int
	node *Node
}

func (s segment) resolved() bool {
	return s.node != nil
}

// sequence is the intermediate form the compiler rewrites. Its logical string
// is the concatenation of its raw segments; resolved segments have no length
// in it. Passes find text in the logical string and splice the matches out
// into resolved segments until one node is left.
type sequence struct {
	segs []segment
	// end is the source offset just past the sequence, for errors about
	// missing input.
	end int
}

// location is the position of a character of the logical string in terms
// of the segment that contains it.
type location struct {
	seg int
	off int
}

// match is a pattern match in the logical string. end is exclusive.
type match struct {
	start, end int
	text       string
}

func newSequence(src string) *sequence {
	s := sequence{segs: []segment{{text: src}}, end: len(src)}
	s.prune()
	return &s
}

// prune removes empty raw segments.
func (s *sequence) prune() {
	k := 0
	for _, seg := range s.segs {
		if !seg.resolved() && seg.text == "" {
			continue
		}
		s.segs[k] = seg
		k++
	}
	s.segs = s.segs[:k]
}

func (s *sequence) logicalString() string {
	var b strings.Builder
	for _, seg := range s.segs {
		if !seg.resolved() {
			b.WriteString(seg.text)
		}
	}
	return b.String()
}

// len returns the length of the logical string.
func (s *sequence) len() int {
	n := 0
	for _, seg := range s.segs {
		if !seg.resolved() {
			n += len(seg.text)
		}
	}
	return n
}

// locate finds the segment containing the character at pos in the logical
// string.
func (s *sequence) locate(pos int) (location, error) {
	if pos >= 0 {
		acc := 0
		for i, seg := range s.segs {
			if seg.resolved() {
				continue
			}
			if pos < acc+len(seg.text) {
				return location{seg: i, off: pos - acc}, nil
			}
			acc += len(seg.text)
		}
	}
	return location{}, &RangeError{Index: pos, Len: s.len()}
}

// column returns the 1-based source column of a location.
func (s *sequence) column(loc location) int {
	return s.segs[loc.seg].pos + loc.off + 1
}

// spliceRange replaces the logical string from start through end inclusive
// with seg. Text before start in its segment and after end in its segment is
// kept; every segment in between is removed. The result is the index of seg
// in the sequence.
func (s *sequence) spliceRange(start, end int, seg segment) (int, error) {
	l, err := s.locate(start)
	if err != nil {
		return 0, err
	}
	r, err := s.locate(end)
	if err != nil {
		return 0, err
	}
	if r.seg < l.seg || (r.seg == l.seg && r.off < l.off) {
		return 0, &RangeError{Index: end, Len: s.len()}
	}
	first, last := s.segs[l.seg], s.segs[r.seg]
	seg.pos = first.pos + l.off
	repl := make([]segment, 0, 3)
	if l.off > 0 {
		repl = append(repl, segment{text: first.text[:l.off], pos: first.pos})
	}
	k := len(repl)
	repl = append(repl, seg)
	if r.off+1 < len(last.text) {
		repl = append(repl, segment{text: last.text[r.off+1:], pos: last.pos + r.off + 1})
	}
	tail := append(repl, s.segs[r.seg+1:]...)
	s.segs = append(s.segs[:l.seg], tail...)
	return l.seg + k, nil
}

// remove deletes the segment at index i.
func (s *sequence) remove(i int) {
	s.segs = append(s.segs[:i], s.segs[i+1:]...)
}

// matchingParenIndex returns the logical position of the close parenthesis
// matching the open parenthesis at open.
func (s *sequence) matchingParenIndex(open int) (int, error) {
	str := s.logicalString()
	if open < 0 || open >= len(str) || str[open] != '(' {
		return 0, &RangeError{Index: open, Len: len(str)}
	}
	depth := 0
	for i := open; i < len(str); i++ {
		switch str[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	loc, err := s.locate(open)
	if err != nil {
		return 0, err
	}
	return 0, &BracketError{Col: s.column(loc)}
}

// subsequence creates a new sequence holding everything strictly between
// the logical positions open and close, including resolved segments.
func (s *sequence) subsequence(open, close int) (*sequence, error) {
	l, err := s.locate(open)
	if err != nil {
		return nil, err
	}
	r, err := s.locate(close)
	if err != nil {
		return nil, err
	}
	first, last := s.segs[l.seg], s.segs[r.seg]
	sub := sequence{end: last.pos + r.off}
	if l.seg == r.seg {
		sub.segs = []segment{{text: first.text[l.off+1 : r.off], pos: first.pos + l.off + 1}}
	} else {
		sub.segs = make([]segment, 0, r.seg-l.seg+1)
		sub.segs = append(sub.segs, segment{text: first.text[l.off+1:], pos: first.pos + l.off + 1})
		sub.segs = append(sub.segs, s.segs[l.seg+1:r.seg]...)
		sub.segs = append(sub.segs, segment{text: last.text[:r.off], pos: last.pos})
	}
	sub.prune()
	return &sub, nil
}

// find returns the leftmost match of re that starts at or after the logical
// position from. Matches never span more than one raw segment.
func (s *sequence) find(re *regexp.Regexp, from int) (match, bool) {
	acc := 0
	for _, seg := range s.segs {
		if seg.resolved() {
			continue
		}
		o := from - acc
		acc += len(seg.text)
		if o >= len(seg.text) {
			continue
		}
		if o < 0 {
			o = 0
		}
		m := re.FindStringIndex(seg.text[o:])
		if m == nil {
			continue
		}
		start := acc - len(seg.text) + o
		return match{start: start + m[0], end: start + m[1], text: seg.text[o+m[0] : o+m[1]]}, true
	}
	return match{}, false
}

// String formats the sequence with raw text quoted and resolved nodes
// formatted, e.g. ["-" (2+3) "*"].
func (s *sequence) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, seg := range s.segs {
		if i > 0 {
			b.WriteByte(' ')
		}
		if seg.resolved() {
			b.WriteString(seg.node.String())
		} else {
			b.WriteString(strconv.Quote(seg.text))
		}
	}
	b.WriteByte(']')
	return b.String()
}
