package scoring

import "sort"

// TermRef identifies a term within a field. It is a value type used only as a lookup key.
type TermRef struct {
	Field string
	Text  string
}

// Bytes returns the term content as handed to a PositionSource.
func (t TermRef) Bytes() []byte {
	return []byte(t.Text)
}

func (t TermRef) String() string {
	return t.Field + ":" + t.Text
}

// TermSet is a set of distinct terms. Adding a term twice has no effect.
type TermSet map[TermRef]struct{}

// NewTermSet creates a set holding terms.
func NewTermSet(terms ...TermRef) TermSet {
	set := make(TermSet, len(terms))
	for _, t := range terms {
		set.Add(t)
	}
	return set
}

// Add inserts t into the set.
func (s TermSet) Add(t TermRef) {
	s[t] = struct{}{}
}

// Contains reports whether t is in the set.
func (s TermSet) Contains(t TermRef) bool {
	_, ok := s[t]
	return ok
}

// Sorted returns the terms ordered by field then text.
func (s TermSet) Sorted() []TermRef {
	out := make([]TermRef, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Text < out[j].Text
	})
	return out
}
