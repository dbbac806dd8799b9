// Package notify decides which campgrounds are new since the last cycle,
// renders them as a MarkdownV2 message and hands the message to a transport.
package notify

import (
	"sync"

	"github.com/example/campwatch/internal/availability"
)

// State remembers the campground keys seen by the last committed cycle.
// It lives in memory for the lifetime of the process.
type State struct {
	mu       sync.Mutex
	previous map[string]struct{}
}

func NewState() *State {
	return &State{previous: map[string]struct{}{}}
}

// Plan is the outcome of Prepare: the trimmed weekends to report and every
// key seen this cycle.
type Plan struct {
	Weekends []availability.Weekend
	current  map[string]struct{}
}

// Empty reports whether the plan has nothing to notify.
func (p Plan) Empty() bool { return len(p.Weekends) == 0 }

// Seen returns the number of keys the plan will commit.
func (p Plan) Seen() int { return len(p.current) }

// Prepare keeps the campgrounds whose key was not seen by the last committed
// cycle. Parks left without campgrounds and weekends left without parks are
// dropped. State is not modified.
func (s *State) Prepare(weekends []availability.Weekend) Plan {
	s.mu.Lock()
	previous := s.previous
	s.mu.Unlock()

	plan := Plan{current: make(map[string]struct{})}
	for _, wk := range weekends {
		var parks []availability.Park
		for _, p := range wk.Parks {
			var fresh []availability.Campground
			for _, c := range p.Campgrounds {
				plan.current[c.Key] = struct{}{}
				if _, seen := previous[c.Key]; seen {
					continue
				}
				fresh = append(fresh, c)
			}
			if len(fresh) > 0 {
				p.Campgrounds = fresh
				parks = append(parks, p)
			}
		}
		if len(parks) > 0 {
			wk.Parks = parks
			plan.Weekends = append(plan.Weekends, wk)
		}
	}
	return plan
}

// Commit makes the plan's keys the reference for the next cycle.
func (s *State) Commit(plan Plan) {
	current := plan.current
	if current == nil {
		current = map[string]struct{}{}
	}
	s.mu.Lock()
	s.previous = current
	s.mu.Unlock()
}

// Dedupe prepares and commits in one step.
func (s *State) Dedupe(weekends []availability.Weekend) []availability.Weekend {
	plan := s.Prepare(weekends)
	s.Commit(plan)
	return plan.Weekends
}

// Len returns the number of committed keys.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.previous)
}
