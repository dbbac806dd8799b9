// Package availability resolves which campgrounds are bookable for a window
// by walking the region → park → campground → spot hierarchy.
package availability

import (
	"context"
	"strconv"

	"github.com/example/campwatch/internal/dates"
)

// Level is the depth of a node in the availability hierarchy.
type Level int

const (
	LevelRegion Level = iota
	LevelPark
	LevelCampground
	LevelSpot
)

func (l Level) String() string {
	switch l {
	case LevelRegion:
		return "region"
	case LevelPark:
		return "park"
	case LevelCampground:
		return "campground"
	case LevelSpot:
		return "spot"
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// Status is the upstream availability code of a child node.
type Status int

const (
	StatusAvailable          Status = 0
	StatusUnavailable        Status = 1
	StatusRestricted         Status = 6
	StatusPartiallyAvailable Status = 7
)

// Node identifies a queryable entity. Title is empty for spots and for ids
// missing from the catalog.
type Node struct {
	ID    int64
	Level Level
	Title string
}

// Child is one entry of an availability response for a parent node.
type Child struct {
	ID     int64
	Status Status
}

// Fetcher issues one availability query for nodeID over w and returns its
// children with their status. level is the level of nodeID itself.
type Fetcher interface {
	FetchChildren(ctx context.Context, nodeID int64, level Level, w dates.Window) ([]Child, error)
}

// Titles resolves display titles. Unknown ids resolve to "".
type Titles interface {
	Title(id int64) string
}

// TitleFunc adapts a plain function to Titles.
type TitleFunc func(id int64) string

func (f TitleFunc) Title(id int64) string { return f(id) }

// URLBuilder returns the booking link for a campground and window.
type URLBuilder func(campgroundID int64, w dates.Window) string

type Campground struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	URL   string  `json:"url"`
	Key   string  `json:"key"`
	Spots []int64 `json:"spots"`
}

type Park struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Campgrounds []Campground `json:"campgrounds"`
}

// Weekend is the crawl result for one window.
type Weekend struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Parks     []Park `json:"parks"`
}

// CampgroundKey is the dedup identity of a campground within a window.
func CampgroundKey(w dates.Window, campgroundID int64) string {
	return w.StartDate() + "-" + w.EndDate() + "-" + strconv.FormatInt(campgroundID, 10)
}

// CountCampgrounds returns the number of campgrounds across all weekends.
func CountCampgrounds(weekends []Weekend) int {
	n := 0
	for _, wk := range weekends {
		for _, p := range wk.Parks {
			n += len(p.Campgrounds)
		}
	}
	return n
}
