package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func set(ids ...int64) map[int64]struct{} {
	s := map[int64]struct{}{}
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func TestShouldInclude_EmptyLists(t *testing.T) {
	assert.True(t, ShouldInclude(1, nil, nil))
	assert.True(t, ShouldInclude(2, set(), set()))
}

func TestShouldInclude_ExcludeList(t *testing.T) {
	assert.False(t, ShouldInclude(1, set(1), nil))
	assert.True(t, ShouldInclude(2, set(1), nil))
}

func TestShouldInclude_IncludeList(t *testing.T) {
	assert.True(t, ShouldInclude(1, nil, set(1)))
	assert.False(t, ShouldInclude(2, nil, set(1)))
}

func TestShouldInclude_ExclusionDominates(t *testing.T) {
	includes := []map[int64]struct{}{nil, set(), set(7), set(7, 8), set(8)}
	for _, id := range []int64{7, -2147483540, 0} {
		for _, inc := range includes {
			assert.False(t, ShouldInclude(id, set(id), inc), "id %d include %v", id, inc)
		}
	}
}

func TestShouldInclude_OpenByDefault(t *testing.T) {
	for _, id := range []int64{-2147483408, -1, 0, 1, 42} {
		assert.True(t, ShouldInclude(id, set(99), nil))
	}
}

func TestFilter(t *testing.T) {
	f := NewFilter([]int64{-2147483408, 5}, []int64{5, -2147483540})

	assert.True(t, f.ShouldInclude(-2147483408))
	assert.False(t, f.ShouldInclude(5))
	assert.False(t, f.ShouldInclude(-2147483540))
	assert.False(t, f.ShouldInclude(6))
	assert.Equal(t, []int64{-2147483408, 5}, f.Include())
	assert.Equal(t, []int64{-2147483540, 5}, f.Exclude())

	var zero Filter
	assert.True(t, zero.ShouldInclude(123))
	assert.Empty(t, zero.Include())
}
