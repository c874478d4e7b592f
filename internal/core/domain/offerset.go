package domain

// OfferSet is an insertion-ordered set of marketplace offer identifiers.
// Order is preserved so reconciliation output, including the zero-fill of
// unmatched offers, is deterministic for a given enumeration.
type OfferSet struct {
	order []string
	index map[string]struct{}
}

func NewOfferSet(ids ...string) *OfferSet {
	s := &OfferSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *OfferSet) Add(id string) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *OfferSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *OfferSet) Remove(id string) {
	delete(s.index, id)
}

func (s *OfferSet) Len() int {
	return len(s.index)
}

// IDs returns the remaining members in insertion order.
func (s *OfferSet) IDs() []string {
	ids := make([]string, 0, len(s.index))
	for _, id := range s.order {
		if _, ok := s.index[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clone returns an independent copy; mutations of the copy never reach the
// original.
func (s *OfferSet) Clone() *OfferSet {
	c := &OfferSet{
		order: make([]string, 0, len(s.order)),
		index: make(map[string]struct{}, len(s.index)),
	}
	for _, id := range s.order {
		if _, ok := s.index[id]; ok {
			c.order = append(c.order, id)
			c.index[id] = struct{}{}
		}
	}
	return c
}
