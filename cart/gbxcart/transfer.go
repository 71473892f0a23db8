package gbxcart

import "gbrw/cart"

// transfer drives one context through its lifecycle: will-begin, did-begin,
// then page-granular progress until the byte counter reaches total, then
// did-complete. Reads land in buf; writes are sliced from out in page-sized
// chunks. Everything runs synchronously on the queue goroutine.
type transfer struct {
	q   *Queue
	hdr *cart.Header

	buf []byte // receive window (reads)
	out []byte // source window (writes)

	completed int64
	total     int64
	writing   bool
	page      *pager

	canceled func() bool

	// overall operation progress; base offsets this transfer within a
	// multi-bank operation.
	report      cart.ProgressFunc
	reportBase  int64
	reportTotal int64
}

func (t *transfer) isCanceled() bool {
	return t.canceled != nil && t.canceled()
}

// chunk is the next page-sized slice of outgoing data.
func (t *transfer) chunk() []byte {
	end := t.completed + pageSize
	if end > t.total {
		end = t.total
	}
	return t.out[t.completed:end]
}

func (t *transfer) run(ctx transferContext) error {
	if t.page == nil {
		t.page = newPager(pageSize)
	}
	if t.isCanceled() {
		return cart.ErrCanceled
	}

	if err := ctx.willBegin(t); err != nil {
		return err
	}
	if err := ctx.didBegin(t); err != nil {
		return err
	}

	for t.completed < t.total {
		if t.isCanceled() {
			return cart.ErrCanceled
		}

		n := t.total - t.completed
		if n > pageSize {
			n = pageSize
		}
		if !t.writing {
			if err := t.q.recv(t.buf[t.completed : t.completed+n]); err != nil {
				return err
			}
		}
		t.completed += n

		// a progress command is only due on a page boundary with bytes
		// still remaining; the final boundary is handled by did-complete.
		if t.page.crossed(t.completed) && t.completed < t.total {
			if err := ctx.progress(t); err != nil {
				return err
			}
		}

		if t.report != nil {
			t.report(t.reportBase+t.completed, t.reportTotal)
		}
	}

	// the adapter sends whole pages only; drain the tail of a partial
	// final page so the next transfer starts aligned.
	if !t.writing {
		if rem := t.total % pageSize; rem != 0 {
			junk := make([]byte, pageSize-rem)
			if err := t.q.recv(junk); err != nil {
				return err
			}
		}
	}

	return ctx.didComplete(t)
}
