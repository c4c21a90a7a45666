package blob

import "fmt"

// Niche is the byte range of a blob which never holds the all-zero pattern.
type Niche struct {
	Start int
	End   int
}

// Len returns the length of the niche in bytes.
func (n Niche) Len() int {
	return n.End - n.Start
}

// Layout describes the encoding of a fixed-size value in a pile.
type Layout struct {
	size       int
	nicheStart int
	nicheEnd   int
	inhabited  bool
}

// NewLayout creates a layout of a given size without a niche.
func NewLayout(size int) Layout {
	return Layout{
		size:      size,
		inhabited: true,
	}
}

// NewNonZeroLayout creates a non-zero layout.
//
// The entire length is considered a non-zero niche.
func NewNonZeroLayout(size int) Layout {
	return Layout{
		size:      size,
		nicheEnd:  size,
		inhabited: true,
	}
}

// WithNiche creates a layout with a caller-specified niche.
func WithNiche(size int, niche Niche) Layout {
	if niche.End <= niche.Start || niche.Start < 0 || niche.End > size {
		panic(fmt.Sprintf("invalid niche %d..%d for size %d", niche.Start, niche.End, size))
	}
	return Layout{
		size:       size,
		nicheStart: niche.Start,
		nicheEnd:   niche.End,
		inhabited:  true,
	}
}

// NeverLayout returns the layout of a value which can never be constructed.
func NeverLayout() Layout {
	return Layout{}
}

// Size returns the size in bytes.
func (l Layout) Size() int {
	return l.size
}

// Inhabited reports whether any value of the layout can exist.
func (l Layout) Inhabited() bool {
	return l.inhabited
}

// Extend returns the layout describing l followed by next.
//
// If both layouts have a niche, the shorter one is used; on equal lengths the niche of l wins.
func (l Layout) Extend(next Layout) Layout {
	r := Layout{
		size:       l.size + next.size,
		nicheStart: l.nicheStart,
		nicheEnd:   l.nicheEnd,
		inhabited:  l.inhabited && next.inhabited,
	}

	nextLen := next.nicheEnd - next.nicheStart
	if nextLen != 0 && (l.nicheEnd == l.nicheStart || nextLen < l.nicheEnd-l.nicheStart) {
		r.nicheStart = l.size + next.nicheStart
		r.nicheEnd = l.size + next.nicheEnd
	}
	return r
}

// HasNiche reports whether the layout carries a usable niche.
func (l Layout) HasNiche() bool {
	return l.inhabited && l.nicheStart != l.nicheEnd
}

// Niche returns the non-zero niche, if present.
func (l Layout) Niche() (Niche, bool) {
	if !l.HasNiche() {
		return Niche{}, false
	}
	return Niche{Start: l.nicheStart, End: l.nicheEnd}, true
}

// String returns a human-readable form of the layout.
func (l Layout) String() string {
	switch {
	case !l.inhabited:
		return "never"
	case l.HasNiche():
		return fmt.Sprintf("%d bytes, niche %d..%d", l.size, l.nicheStart, l.nicheEnd)
	default:
		return fmt.Sprintf("%d bytes", l.size)
	}
}
