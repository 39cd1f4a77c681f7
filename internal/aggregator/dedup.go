package aggregator

// idSet tracks listing ids already admitted into a result.
type idSet map[string]struct{}

func newIDSet() idSet {
	return make(idSet)
}

// add inserts id and reports whether it was new.
func (s idSet) add(id string) bool {
	if _, exists := s[id]; exists {
		return false
	}
	s[id] = struct{}{}
	return true
}
