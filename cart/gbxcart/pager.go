package gbxcart

// pager detects page boundary crossings in a monotonically advancing
// completed-byte counter. crossed reports true exactly once per boundary,
// even when the same count is reported more than once.
type pager struct {
	pageSize int64
	last     int64
}

func newPager(pageSize int64) *pager {
	return &pager{pageSize: pageSize, last: -1}
}

func (p *pager) crossed(completed int64) bool {
	if completed%p.pageSize != 0 {
		return false
	}
	if completed == p.last {
		return false
	}
	p.last = completed
	return true
}
