// Package listops provides order-preserving edits over id-keyed slices.
//
// Every function returns a new slice and leaves its input untouched, so a
// screen can hand the result to viewstate.Fetch.Mutate without aliasing the
// previous value.
package listops

// Keyed is implemented by entities with a server-assigned id.
type Keyed interface {
	Key() int64
}

// InsertFront returns a copy of list with item at index 0. An existing
// element with the same id is dropped first so ids stay unique.
func InsertFront[T Keyed](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, item)
	for _, el := range list {
		if el.Key() != item.Key() {
			out = append(out, el)
		}
	}
	return out
}

// ReplaceByID returns a copy of list with the element whose id matches
// passed through update. When id is absent the copy equals the input.
func ReplaceByID[T Keyed](list []T, id int64, update func(T) T) []T {
	out := make([]T, len(list))
	copy(out, list)
	for i, el := range out {
		if el.Key() == id {
			out[i] = update(el)
			break
		}
	}
	return out
}

// Replace swaps in item at the position of the element with the same id.
func Replace[T Keyed](list []T, item T) []T {
	return ReplaceByID(list, item.Key(), func(T) T { return item })
}

// RemoveByID returns a copy of list without the element whose id matches.
// Removing an absent id is a no-op.
func RemoveByID[T Keyed](list []T, id int64) []T {
	out := make([]T, 0, len(list))
	for _, el := range list {
		if el.Key() != id {
			out = append(out, el)
		}
	}
	return out
}

// Find returns the element with the given id.
func Find[T Keyed](list []T, id int64) (T, bool) {
	for _, el := range list {
		if el.Key() == id {
			return el, true
		}
	}
	var zero T
	return zero, false
}

// IndexOf returns the position of id in list, or -1.
func IndexOf[T Keyed](list []T, id int64) int {
	for i, el := range list {
		if el.Key() == id {
			return i
		}
	}
	return -1
}
