package availability

import "sort"

// ShouldInclude reports whether parkID is probed and reported. Exclusion wins
// over inclusion; an empty include set admits every park not excluded.
func ShouldInclude(parkID int64, exclude, include map[int64]struct{}) bool {
	if _, ok := exclude[parkID]; ok {
		return false
	}
	if len(include) == 0 {
		return true
	}
	_, ok := include[parkID]
	return ok
}

// Filter holds the static include/exclude park sets. The zero value admits
// every park.
type Filter struct {
	include map[int64]struct{}
	exclude map[int64]struct{}
}

func NewFilter(include, exclude []int64) Filter {
	return Filter{include: toSet(include), exclude: toSet(exclude)}
}

func (f Filter) ShouldInclude(parkID int64) bool {
	return ShouldInclude(parkID, f.exclude, f.include)
}

func (f Filter) Include() []int64 { return sortedIDs(f.include) }
func (f Filter) Exclude() []int64 { return sortedIDs(f.exclude) }

func toSet(ids []int64) map[int64]struct{} {
	if len(ids) == 0 {
		return nil
	}
	s := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func sortedIDs(s map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
