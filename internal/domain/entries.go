package domain

import "fmt"

// Entries is the newest-first journal collection.
//
// It is treated as an immutable value: every mutation below returns a new
// slice and leaves the receiver untouched, so a snapshot handed to a reader
// or to the persistence layer never changes underneath it.
type Entries []Entry

// Index returns the position of id, or -1.
func (es Entries) Index(id string) int {
	for i := range es {
		if es[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the entry with the given id.
func (es Entries) Find(id string) (Entry, bool) {
	if i := es.Index(id); i >= 0 {
		return es[i].Clone(), true
	}
	return Entry{}, false
}

// Clone deep-copies the collection.
func (es Entries) Clone() Entries {
	if es == nil {
		return nil
	}
	out := make(Entries, len(es))
	for i := range es {
		out[i] = es[i].Clone()
	}
	return out
}

// Add validates e and places it at the head of the collection.
func (es Entries) Add(e Entry) (Entries, error) {
	if err := e.Validate(); err != nil {
		return es, err
	}
	if es.Index(e.ID) >= 0 {
		return es, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}

	out := make(Entries, 0, len(es)+1)
	out = append(out, e.normalized())
	out = append(out, es...)
	return out, nil
}

// Update replaces the entry sharing e's id without moving it. The stored
// timestamp wins over the incoming one. changed is false when no entry has
// that id, in which case es is returned as is.
func (es Entries) Update(e Entry) (out Entries, changed bool, err error) {
	i := es.Index(e.ID)
	if i < 0 {
		return es, false, nil
	}
	e.Timestamp = es[i].Timestamp
	if err := e.Validate(); err != nil {
		return es, false, err
	}

	out = make(Entries, len(es))
	copy(out, es)
	out[i] = e.normalized()
	return out, true, nil
}

// Delete drops the entry with the given id. removed is false, and es is
// returned as is, when the id is absent.
func (es Entries) Delete(id string) (out Entries, removed bool) {
	i := es.Index(id)
	if i < 0 {
		return es, false
	}

	out = make(Entries, 0, len(es)-1)
	out = append(out, es[:i]...)
	out = append(out, es[i+1:]...)
	return out, true
}

// Sanitize keeps the first occurrence of every id and drops entries that
// fail validation. The returned slice lists what was dropped and why.
func (es Entries) Sanitize() (Entries, []error) {
	var problems []error
	out := make(Entries, 0, len(es))
	seen := make(map[string]struct{}, len(es))

	for _, e := range es {
		if err := e.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("entry %q: %w", e.ID, err))
			continue
		}
		if _, dup := seen[e.ID]; dup {
			problems = append(problems, fmt.Errorf("entry %q: %w", e.ID, ErrDuplicateID))
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e.normalized())
	}
	return out, problems
}
