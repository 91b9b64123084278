package repository

// Default page values used when a caller does not ask for a specific window.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page selects a window of an ordered listing. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// All is the page that selects every row.
var All = Page{}

// NewPage converts a 1-based page number and a page size into a Page.
// Out-of-range values fall back to the defaults.
func NewPage(page, limit int) Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	return Page{Limit: limit, Offset: (page - 1) * limit}
}

// Apply returns the part of n ordered items selected by p as [start, end).
func (p Page) Apply(n int) (int, int) {
	start := p.Offset
	if start > n {
		start = n
	}
	end := n
	if p.Limit > 0 && start+p.Limit < end {
		end = start + p.Limit
	}
	return start, end
}
