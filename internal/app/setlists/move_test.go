package setlists

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	items := []string{"A", "B", "C", "D", "E"}

	tests := []struct {
		name    string
		offsets []int
		to      int
		want    []string
	}{
		{name: "first to end", offsets: []int{0}, to: 5, want: []string{"B", "C", "D", "E", "A"}},
		{name: "last to front", offsets: []int{4}, to: 0, want: []string{"E", "A", "B", "C", "D"}},
		{name: "forward one", offsets: []int{1}, to: 3, want: []string{"A", "C", "B", "D", "E"}},
		{name: "backward", offsets: []int{3}, to: 1, want: []string{"A", "D", "B", "C", "E"}},
		{name: "onto itself", offsets: []int{2}, to: 2, want: []string{"A", "B", "C", "D", "E"}},
		{name: "just after itself", offsets: []int{2}, to: 3, want: []string{"A", "B", "C", "D", "E"}},
		{name: "block around target", offsets: []int{0, 4}, to: 2, want: []string{"B", "A", "E", "C", "D"}},
		{name: "unsorted offsets keep order", offsets: []int{3, 1}, to: 0, want: []string{"B", "D", "A", "C", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := move(items, tt.offsets, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"A", "B", "C", "D", "E"}, items)
		})
	}
}

func TestMoveInvalid(t *testing.T) {
	items := []int{1, 2, 3}

	_, err := move(items, []int{3}, 0)
	assert.Error(t, err)

	_, err = move(items, []int{0}, 4)
	assert.Error(t, err)

	_, err = move(items, []int{-1}, 0)
	assert.Error(t, err)
}
