package catalog

import "sync/atomic"

// Holder shares the current catalog between readers and a reloader.
type Holder struct {
	cur atomic.Pointer[Catalog]
}

func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.Set(c)
	return h
}

// Get returns the current catalog; never nil once constructed with one.
func (h *Holder) Get() *Catalog {
	return h.cur.Load()
}

func (h *Holder) Set(c *Catalog) {
	h.cur.Store(c)
}
