package admin

import "macroIndicators/internal/backend"

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Move swaps the slug at index with its neighbour. ok is false when the move
// would leave the list; the input slice is never modified.
func Move(slugs []string, index int, dir Direction) ([]string, bool) {
	target := index - 1
	if dir == Down {
		target = index + 1
	}
	if index < 0 || index >= len(slugs) || target < 0 || target >= len(slugs) {
		return slugs, false
	}
	out := append([]string(nil), slugs...)
	out[index], out[target] = out[target], out[index]
	return out, true
}

// IndexOf returns the position of slug or -1.
func IndexOf(slugs []string, slug string) int {
	for i, s := range slugs {
		if s == slug {
			return i
		}
	}
	return -1
}

// OrderFor numbers slugs from zero in list order.
func OrderFor(slugs []string) []backend.OrderEntry {
	out := make([]backend.OrderEntry, len(slugs))
	for i, s := range slugs {
		out[i] = backend.OrderEntry{Slug: s, DisplayOrder: i}
	}
	return out
}
