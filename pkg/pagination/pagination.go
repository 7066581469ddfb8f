package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds a limit/offset window over an ordered listing.
type Params struct {
	Limit  int
	Offset int
}

// New normalizes raw limit and offset values. A non-positive limit falls
// back to DefaultLimit, limits above MaxLimit are capped and negative
// offsets become 0.
func New(limit, offset int) Params {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// Bounds returns the half-open slice range [start, end) of this window
// over a listing of total items. Both values are clamped to total.
func (p Params) Bounds(total int) (start, end int) {
	start = p.Offset
	if start > total {
		start = total
	}
	end = start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// Window returns the part of items covered by p.
func Window[T any](items []T, p Params) []T {
	start, end := p.Bounds(len(items))
	return items[start:end]
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}
