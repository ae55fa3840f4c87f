package setlists

import (
	"sort"

	"worshipsongs/internal/app"
)

// move relocates the elements at offsets as one block so that it lands before the element
// originally at index to. to may equal len(items) to move the block to the end.
// The relative order of the moved elements is kept.
func move[T any](items []T, offsets []int, to int) ([]T, error) {
	if err := app.CheckOffsets(offsets, len(items)); err != nil {
		return nil, err
	}
	if to < 0 || to > len(items) {
		return nil, app.ErrInvalidOffset
	}

	picked := make(map[int]bool, len(offsets))
	for _, offset := range offsets {
		picked[offset] = true
	}
	ordered := make([]int, 0, len(picked))
	for offset := range picked {
		ordered = append(ordered, offset)
	}
	sort.Ints(ordered)

	block := make([]T, 0, len(ordered))
	rest := make([]T, 0, len(items)-len(ordered))
	shift := 0
	for i, item := range items {
		if picked[i] {
			block = append(block, item)
			if i < to {
				shift++
			}
			continue
		}
		rest = append(rest, item)
	}

	at := to - shift
	out := make([]T, 0, len(items))
	out = append(out, rest[:at]...)
	out = append(out, block...)
	out = append(out, rest[at:]...)
	return out, nil
}
