package realtime

// SeenSet remembers the most recent ids up to a fixed capacity, evicting the oldest
type SeenSet struct {
	capacity int
	order    []string
	next     int
	ids      map[string]struct{}
}

// NewSeenSet creates a set holding at most capacity ids
func NewSeenSet(capacity int) *SeenSet {
	if capacity <= 0 {
		capacity = 1
	}
	return &SeenSet{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		ids:      make(map[string]struct{}, capacity),
	}
}

// Add records id and reports whether it was new
func (s *SeenSet) Add(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	if len(s.order) < s.capacity {
		s.order = append(s.order, id)
	} else {
		delete(s.ids, s.order[s.next])
		s.order[s.next] = id
		s.next = (s.next + 1) % s.capacity
	}
	s.ids[id] = struct{}{}
	return true
}

// Contains reports whether id is currently remembered
func (s *SeenSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of remembered ids
func (s *SeenSet) Len() int {
	return len(s.ids)
}
