package itinerary

// Pager walks a fixed number of pages one step at a time. It only feeds the
// page indicator; nothing about it is persisted.
type Pager struct {
	total   int
	current int
}

func NewPager(total int) *Pager {
	if total < 0 {
		total = 0
	}
	return &Pager{total: total}
}

func (p *Pager) Total() int    { return p.total }
func (p *Pager) Current() int  { return p.current }
func (p *Pager) AtStart() bool { return p.current == 0 }
func (p *Pager) AtEnd() bool   { return p.total == 0 || p.current == p.total-1 }

// Next advances one page and reports whether the position changed
func (p *Pager) Next() bool {
	if p.AtEnd() {
		return false
	}
	p.current++
	return true
}

// Prev goes back one page and reports whether the position changed
func (p *Pager) Prev() bool {
	if p.AtStart() {
		return false
	}
	p.current--
	return true
}

// Seek jumps to page i, clamped to the valid range
func (p *Pager) Seek(i int) {
	switch {
	case p.total == 0 || i < 0:
		p.current = 0
	case i >= p.total:
		p.current = p.total - 1
	default:
		p.current = i
	}
}
