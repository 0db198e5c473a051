// Package ordering implements the list arithmetic behind drag-and-drop reordering.
// Positions are dense: after any operation the item at index i has position i.
package ordering

import "errors"

// ErrNotInList is returned when the moved id is not part of the list
var ErrNotInList = errors.New("item not in list")

// Clamp limits index to [0, n]
func Clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}

// Remove returns ids without id and the index it occupied (-1 when absent)
func Remove(ids []string, id string) ([]string, int) {
	out := make([]string, 0, len(ids))
	at := -1
	for i, v := range ids {
		if v == id && at == -1 {
			at = i
			continue
		}
		out = append(out, v)
	}
	return out, at
}

// Insert returns ids with id placed at index (clamped to the list bounds)
func Insert(ids []string, id string, index int) []string {
	index = Clamp(index, len(ids))
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	out = append(out, ids[index:]...)
	return out
}

// Move returns the list with id relocated to index within the same list.
// index refers to the final position, so Move(ids, id, len(ids)-1) sends it last.
func Move(ids []string, id string, index int) ([]string, error) {
	rest, at := Remove(ids, id)
	if at == -1 {
		return nil, ErrNotInList
	}
	return Insert(rest, id, index), nil
}
